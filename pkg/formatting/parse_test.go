package formatting_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/cadence/pkg/formatting"
)

type flagged struct {
	Words []string `json:"nonsensical_words"`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"direct", `{"nonsensical_words":["blorp","zint"]}`, 2},
		{"padded", "  {\"nonsensical_words\":[]}  \n", 0},
		{"fenced", "```json\n{\"nonsensical_words\":[\"blorp\"]}\n```", 1},
		{"fenced without tag", "```\n{\"nonsensical_words\":[\"a\",\"b\",\"c\"]}\n```", 3},
		{"prose wrapped", "Here you go: {\"nonsensical_words\":[\"qux\"]} Let me know.", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.Parse[flagged](tt.content)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(got.Words) != tt.want {
				t.Errorf("words: got %d, want %d", len(got.Words), tt.want)
			}
		})
	}
}

func TestParseFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"prose", "I could not find any issues."},
		{"truncated", `{"nonsensical_words":["a",`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := formatting.Parse[flagged](tt.content)
			if !errors.Is(err, formatting.ErrParseFailed) {
				t.Errorf("err: got %v, want ErrParseFailed", err)
			}
		})
	}
}

func TestParseFailureExcerpt(t *testing.T) {
	_, err := formatting.Parse[flagged](strings.Repeat("x", 1000))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Error()) > 300 {
		t.Errorf("error length: got %d, want excerpted message", len(err.Error()))
	}
}

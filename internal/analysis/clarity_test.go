package analysis_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/JaimeStill/cadence/internal/analysis"
	"github.com/JaimeStill/cadence/internal/evaluator"
	"github.com/JaimeStill/cadence/internal/prompts"
	"github.com/JaimeStill/cadence/internal/transcripts"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tokens(text string) []transcripts.Word {
	fields := strings.Fields(text)
	words := make([]transcripts.Word, len(fields))
	for i, f := range fields {
		words[i] = transcripts.Word{Word: f, Start: float64(i), End: float64(i) + 0.5}
	}
	return words
}

func respond(body string) evaluator.ClientFunc {
	return func(context.Context, evaluator.Request) (string, error) {
		return body, nil
	}
}

func TestCountFillersNormalization(t *testing.T) {
	words := []transcripts.Word{
		{Word: "UM "}, {Word: "um"}, {Word: " Um"}, {Word: "hello"},
	}

	breakdown, total := analysis.CountFillers(words, "")
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(breakdown) != 1 || breakdown[0] != (analysis.FillerCount{Word: "um", Count: 3}) {
		t.Errorf("breakdown = %+v, want [{um 3}]", breakdown)
	}
}

func TestCountFillersPhrases(t *testing.T) {
	text := "You know, I think, you know, it works. Unknown is not a filler."
	words := tokens(text)

	breakdown, total := analysis.CountFillers(words, text)

	counts := make(map[string]int)
	for _, f := range breakdown {
		counts[f.Word] = f.Count
	}

	if counts["you know"] != 2 {
		t.Errorf("you know = %d, want 2", counts["you know"])
	}
	if total != 2 {
		t.Errorf("total = %d, want 2 (breakdown %+v)", total, breakdown)
	}
}

func TestCountFillersOrdering(t *testing.T) {
	text := "so um so like so um"
	breakdown, total := analysis.CountFillers(tokens(text), text)

	want := []analysis.FillerCount{
		{Word: "so", Count: 3},
		{Word: "um", Count: 2},
		{Word: "like", Count: 1},
	}

	if total != 6 {
		t.Errorf("total = %d, want 6", total)
	}
	if len(breakdown) != len(want) {
		t.Fatalf("breakdown = %+v, want %+v", breakdown, want)
	}
	for i := range want {
		if breakdown[i] != want[i] {
			t.Errorf("breakdown[%d] = %+v, want %+v", i, breakdown[i], want[i])
		}
	}
}

func TestScoreClarity(t *testing.T) {
	tests := []struct {
		name     string
		filler   float64
		nonsense float64
		want     float64
	}{
		{"clean", 1, 0.5, 100},
		{"mild filler", 4, 0, 90},
		{"heavy filler", 10, 0, 70},
		{"mild nonsense", 0, 2, 90},
		{"heavy nonsense", 0, 5, 70},
		{"both heavy", 40, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := analysis.ScoreClarity(tt.filler, tt.nonsense); got != tt.want {
				t.Errorf("ScoreClarity(%v, %v) = %v, want %v", tt.filler, tt.nonsense, got, tt.want)
			}
		})
	}
}

func TestClarityEmptyWords(t *testing.T) {
	var calls atomic.Int32
	client := evaluator.ClientFunc(func(context.Context, evaluator.Request) (string, error) {
		calls.Add(1)
		return `{"nonsensical_words":[]}`, nil
	})

	a := analysis.NewClarityAnalyzer(client, prompts.Defaults{}, 0.3, discard())
	got := a.Analyze(context.Background(), nil, "some text")

	if calls.Load() != 0 {
		t.Errorf("completion calls = %d, want 0", calls.Load())
	}
	if got.FillerCount != 0 || got.NonsensicalCount != 0 || got.Score != 0 {
		t.Errorf("got %+v, want zeroed metrics", got)
	}
}

func TestClarityAnalyze(t *testing.T) {
	var req evaluator.Request
	client := evaluator.ClientFunc(func(_ context.Context, r evaluator.Request) (string, error) {
		req = r
		return "```json\n{\"nonsensical_words\": [\"flurb\"]}\n```", nil
	})

	text := "um the flurb results were strong and the team delivered on every goal we set this quarter " +
		"with clear metrics across all regions and products"
	words := tokens(text)

	a := analysis.NewClarityAnalyzer(client, prompts.Defaults{}, 0.3, discard())
	got := a.Analyze(context.Background(), words, text)

	if req.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", req.Temperature)
	}
	if !req.JSON {
		t.Error("request should ask for a JSON response")
	}
	if req.Stage != string(prompts.StageClarity) {
		t.Errorf("stage = %q, want clarity", req.Stage)
	}
	if !strings.Contains(req.Prompt, text) {
		t.Error("prompt should contain the transcript text")
	}

	if got.FillerCount != 1 {
		t.Errorf("FillerCount = %d, want 1", got.FillerCount)
	}
	if got.NonsensicalCount != 1 || got.NonsensicalWords[0] != "flurb" {
		t.Errorf("NonsensicalWords = %v, want [flurb]", got.NonsensicalWords)
	}
	// 25 words: 4% filler and 4% nonsense.
	if got.FillerPercentage != 4 || got.NonsensicalPercentage != 4 {
		t.Errorf("percentages = %v, %v, want 4, 4", got.FillerPercentage, got.NonsensicalPercentage)
	}
	// 100 - (4-2)*5 - (20 + (4-3)*5) = 65
	if got.Score != 65 {
		t.Errorf("Score = %v, want 65", got.Score)
	}
}

func TestClarityDegradesOnFailure(t *testing.T) {
	tests := []struct {
		name   string
		client evaluator.Client
	}{
		{"transport error", evaluator.ClientFunc(func(context.Context, evaluator.Request) (string, error) {
			return "", errors.New("connection reset")
		})},
		{"timeout", evaluator.ClientFunc(func(context.Context, evaluator.Request) (string, error) {
			return "", evaluator.ErrTimeout
		})},
		{"malformed response", respond("I could not find any problems.")},
		{"null list", respond(`{"nonsensical_words": null}`)},
	}

	text := "the results were strong and the team delivered on every goal"
	words := tokens(text)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := analysis.NewClarityAnalyzer(tt.client, prompts.Defaults{}, 0.3, discard())
			got := a.Analyze(context.Background(), words, text)

			if got.NonsensicalCount != 0 {
				t.Errorf("NonsensicalCount = %d, want 0", got.NonsensicalCount)
			}
			if got.NonsensicalWords == nil || len(got.NonsensicalWords) != 0 {
				t.Errorf("NonsensicalWords = %v, want empty", got.NonsensicalWords)
			}
			if got.Score != 100 {
				t.Errorf("Score = %v, want 100", got.Score)
			}
		})
	}
}

// Package formatting extracts structured values from language model output.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content holds no decodable JSON object.
var ErrParseFailed = errors.New("failed to parse response")

// maxExcerpt bounds how much of the unparseable content an error carries.
const maxExcerpt = 200

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// Parse decodes content into T. It tries, in order: the whole content, the
// first markdown code fence, and the span from the first '{' to the last '}'.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		var v T
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, excerpt(content))
}

func candidates(content string) []string {
	out := []string{content}

	if m := fencedBlock.FindStringSubmatch(content); len(m) >= 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}

	return out
}

func excerpt(content string) string {
	if len(content) <= maxExcerpt {
		return content
	}
	return content[:maxExcerpt] + "..."
}

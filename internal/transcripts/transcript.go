// Package transcripts exposes read access to transcripts produced by the
// transcription service, including their word-level timestamps.
package transcripts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Word is one transcribed token with its start and end offsets in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the full text of one audio source with its ordered words.
type Transcript struct {
	ID          uuid.UUID  `json:"id"`
	AudioFileID *uuid.UUID `json:"audio_file_id"`
	Text        string     `json:"text"`
	Words       []Word     `json:"words"`
	CreatedAt   time.Time  `json:"created_at"`
}

// WordCount returns the number of timestamped words.
func (t *Transcript) WordCount() int {
	return len(t.Words)
}

type timestamps struct {
	Words []Word `json:"words"`
}

// ParseWords decodes a stored word_timestamps payload. A NULL or empty payload,
// or one without a words array, yields an empty sequence.
func ParseWords(raw []byte) ([]Word, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []Word{}, nil
	}

	var ts timestamps
	if err := json.Unmarshal(raw, &ts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTimestamps, err)
	}

	if ts.Words == nil {
		return []Word{}, nil
	}
	return ts.Words, nil
}

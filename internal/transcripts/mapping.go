package transcripts

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/pkg/query"
	"github.com/JaimeStill/cadence/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "transcripts", "t").
	Project("id", "ID").
	Project("audio_file_id", "AudioFileID").
	Project("text", "Text").
	Project("word_timestamps", "WordTimestamps").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for transcript queries.
type Filters struct {
	AudioFileID *uuid.UUID `json:"audio_file_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereEquals("AudioFileID", f.AudioFileID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Malformed identifiers are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("audio_file_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.AudioFileID = &id
		}
	}

	return f
}

func scanTranscript(s repository.Scanner) (Transcript, error) {
	var (
		t   Transcript
		raw []byte
	)

	if err := s.Scan(&t.ID, &t.AudioFileID, &t.Text, &raw, &t.CreatedAt); err != nil {
		return t, err
	}

	words, err := ParseWords(raw)
	if err != nil {
		return t, err
	}
	t.Words = words

	return t, nil
}

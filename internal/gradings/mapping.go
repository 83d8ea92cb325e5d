package gradings

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/pkg/query"
	"github.com/JaimeStill/cadence/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "gradings", "g").
	Project("id", "ID").
	Project("transcript_id", "TranscriptID").
	Project("rubric_id", "RubricID").
	Project("graded_by_user_id", "GradedByUserID").
	Project("source_type", "SourceType").
	Project("context_type", "ContextType").
	Project("context_id", "ContextID").
	Project("is_official", "IsOfficial").
	Project("status", "Status").
	Project("attempt", "Attempt").
	Project("overall_score", "OverallScore").
	Project("max_possible_score", "MaxPossibleScore").
	Project("pacing_wpm_avg", "PacingWPMAvg").
	Project("pacing_wpm_variance", "PacingWPMVariance").
	Project("pacing_pause_count", "PacingPauseCount").
	Project("pacing_score", "PacingScore").
	Project("clarity_filler_word_count", "ClarityFillerWordCount").
	Project("clarity_filler_word_percentage", "ClarityFillerWordPercentage").
	Project("clarity_nonsensical_word_count", "ClarityNonsensicalWordCount").
	Project("clarity_score", "ClarityScore").
	Project("detailed_results", "DetailedResults").
	Project("error", "Error").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

const returning = `RETURNING
	id, transcript_id, rubric_id, graded_by_user_id, source_type, context_type,
	context_id, is_official, status, attempt, overall_score, max_possible_score,
	pacing_wpm_avg, pacing_wpm_variance, pacing_pause_count, pacing_score,
	clarity_filler_word_count, clarity_filler_word_percentage,
	clarity_nonsensical_word_count, clarity_score, detailed_results, error,
	created_at, updated_at`

// Filters contains optional filtering criteria for grading queries.
type Filters struct {
	TranscriptID   *uuid.UUID `json:"transcript_id,omitempty"`
	RubricID       *uuid.UUID `json:"rubric_id,omitempty"`
	Status         *Status    `json:"status,omitempty"`
	SourceType     *string    `json:"source_type,omitempty"`
	ContextType    *string    `json:"context_type,omitempty"`
	ContextID      *uuid.UUID `json:"context_id,omitempty"`
	GradedByUserID *uuid.UUID `json:"graded_by_user_id,omitempty"`
	IsOfficial     *bool      `json:"is_official,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("TranscriptID", f.TranscriptID).
		WhereEquals("RubricID", f.RubricID).
		WhereEquals("Status", f.Status).
		WhereEquals("SourceType", f.SourceType).
		WhereEquals("ContextType", f.ContextType).
		WhereEquals("ContextID", f.ContextID).
		WhereEquals("GradedByUserID", f.GradedByUserID).
		WhereEquals("IsOfficial", f.IsOfficial)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Malformed values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	f := Filters{
		TranscriptID:   parseUUID(values.Get("transcript_id")),
		RubricID:       parseUUID(values.Get("rubric_id")),
		ContextID:      parseUUID(values.Get("context_id")),
		GradedByUserID: parseUUID(values.Get("graded_by_user_id")),
	}

	if s := values.Get("status"); s != "" {
		if status, err := ParseStatus(s); err == nil {
			f.Status = &status
		}
	}

	if s := strings.ToLower(values.Get("source_type")); s == SourceSelf || s == SourceInstructor {
		f.SourceType = &s
	}

	if c := strings.ToLower(values.Get("context_type")); c == ContextPractice || c == ContextClass {
		f.ContextType = &c
	}

	if o := values.Get("is_official"); o != "" {
		if v, err := strconv.ParseBool(o); err == nil {
			f.IsOfficial = &v
		}
	}

	return f
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch status := Status(strings.ToLower(s)); status {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

func parseUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func scanGrading(s repository.Scanner) (Grading, error) {
	var (
		g       Grading
		details []byte
	)

	err := s.Scan(
		&g.ID,
		&g.TranscriptID,
		&g.RubricID,
		&g.GradedByUserID,
		&g.SourceType,
		&g.ContextType,
		&g.ContextID,
		&g.IsOfficial,
		&g.Status,
		&g.Attempt,
		&g.OverallScore,
		&g.MaxPossibleScore,
		&g.PacingWPMAvg,
		&g.PacingWPMVariance,
		&g.PacingPauseCount,
		&g.PacingScore,
		&g.ClarityFillerWordCount,
		&g.ClarityFillerWordPercentage,
		&g.ClarityNonsensicalWordCount,
		&g.ClarityScore,
		&details,
		&g.Error,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return g, err
	}

	if len(details) > 0 {
		var d DetailedResults
		if err := json.Unmarshal(details, &d); err != nil {
			return g, err
		}
		g.DetailedResults = &d
	}

	return g, nil
}

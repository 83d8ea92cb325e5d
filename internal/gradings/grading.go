// Package gradings persists grading attempts and drives their lifecycle.
// A grading is created in the processing state, run once per attempt by a
// worker, and finishes as completed or failed. Resubmitting with
// replace_existing resets the grading and increments its attempt so any
// earlier in-flight run can no longer write.
package gradings

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/internal/analysis"
	"github.com/JaimeStill/cadence/internal/jobs"
	"github.com/JaimeStill/cadence/internal/workflow"
)

// Status is the lifecycle state of a grading attempt.
type Status string

// Grading statuses. Completed and failed are terminal for an attempt.
const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Source and context types.
const (
	SourceSelf       = "self"
	SourceInstructor = "instructor"
	ContextPractice  = "practice"
	ContextClass     = "class"
)

// Grading is one evaluation of a transcript against a rubric. Score fields
// are non-nil only when Status is completed.
type Grading struct {
	ID             uuid.UUID  `json:"id"`
	TranscriptID   *uuid.UUID `json:"transcript_id"`
	RubricID       *uuid.UUID `json:"rubric_id"`
	GradedByUserID *uuid.UUID `json:"graded_by_user_id"`
	SourceType     string     `json:"source_type"`
	ContextType    string     `json:"context_type"`
	ContextID      *uuid.UUID `json:"context_id"`
	IsOfficial     bool       `json:"is_official"`
	Status         Status     `json:"status"`
	Attempt        int        `json:"attempt"`

	OverallScore     *float64 `json:"overall_score"`
	MaxPossibleScore *float64 `json:"max_possible_score"`

	PacingWPMAvg      *float64 `json:"pacing_wpm_avg"`
	PacingWPMVariance *float64 `json:"pacing_wpm_variance"`
	PacingPauseCount  *int     `json:"pacing_pause_count"`
	PacingScore       *float64 `json:"pacing_score"`

	ClarityFillerWordCount      *int     `json:"clarity_filler_word_count"`
	ClarityFillerWordPercentage *float64 `json:"clarity_filler_word_percentage"`
	ClarityNonsensicalWordCount *int     `json:"clarity_nonsensical_word_count"`
	ClarityScore                *float64 `json:"clarity_score"`

	DetailedResults *DetailedResults `json:"detailed_results"`
	Error           *string          `json:"error"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Handle returns the job handle for the grading's current attempt.
func (g *Grading) Handle() jobs.Handle {
	return jobs.Handle{GradingID: g.ID, Attempt: g.Attempt}
}

// Apply copies a workflow result onto the grading and marks it completed.
func (g *Grading) Apply(r *workflow.Result) {
	details := NewDetailedResults(r)

	g.Status = StatusCompleted
	g.Error = nil
	g.OverallScore = &r.OverallScore
	g.MaxPossibleScore = &r.MaxPossibleScore
	g.PacingWPMAvg = &r.Pacing.WPMAvg
	g.PacingWPMVariance = &r.Pacing.WPMVariance
	g.PacingPauseCount = &r.Pacing.PauseCount
	g.PacingScore = &r.Pacing.Score
	g.ClarityFillerWordCount = &r.Clarity.FillerCount
	g.ClarityFillerWordPercentage = &r.Clarity.FillerPercentage
	g.ClarityNonsensicalWordCount = &r.Clarity.NonsensicalCount
	g.ClarityScore = &r.Clarity.Score
	g.DetailedResults = &details
}

// Reset clears every score field.
func (g *Grading) Reset() {
	g.OverallScore = nil
	g.MaxPossibleScore = nil
	g.PacingWPMAvg = nil
	g.PacingWPMVariance = nil
	g.PacingPauseCount = nil
	g.PacingScore = nil
	g.ClarityFillerWordCount = nil
	g.ClarityFillerWordPercentage = nil
	g.ClarityNonsensicalWordCount = nil
	g.ClarityScore = nil
	g.DetailedResults = nil
}

// DetailedResults is the structured breakdown stored with a completed grading.
type DetailedResults struct {
	CriterionScores  []analysis.CriterionScore `json:"criterion_scores"`
	FillerWords      []analysis.FillerCount    `json:"filler_words"`
	NonsensicalWords []string                  `json:"nonsensical_words"`
	PacingTimeline   []analysis.Segment        `json:"pacing_timeline"`
	PauseAvgDuration float64                   `json:"pause_avg_duration"`
	AIFeedback       map[string]string         `json:"ai_feedback"`
	ContentStatus    string                    `json:"content_status"`
}

// NewDetailedResults builds the detailed breakdown for a workflow result.
func NewDetailedResults(r *workflow.Result) DetailedResults {
	return DetailedResults{
		CriterionScores:  r.Content.Scores,
		FillerWords:      r.Clarity.Fillers,
		NonsensicalWords: r.Clarity.NonsensicalWords,
		PacingTimeline:   r.Pacing.Timeline,
		PauseAvgDuration: r.Pacing.PauseAvgDuration,
		AIFeedback:       map[string]string{"overall": r.Content.OverallFeedback},
		ContentStatus:    r.ContentStatus,
	}
}

// Command requests a grading of a transcript against a rubric.
type Command struct {
	TranscriptID    uuid.UUID  `json:"transcript_id"`
	RubricID        uuid.UUID  `json:"rubric_id"`
	ReplaceExisting bool       `json:"replace_existing"`
	GradedByUserID  *uuid.UUID `json:"graded_by_user_id"`
	SourceType      string     `json:"source_type"`
	ContextType     string     `json:"context_type"`
	ContextID       *uuid.UUID `json:"context_id"`
	IsOfficial      bool       `json:"is_official"`
}

// Normalize fills default context values. Official gradings are always
// instructor gradings in a class context.
func (c *Command) Normalize() {
	c.SourceType = strings.ToLower(strings.TrimSpace(c.SourceType))
	c.ContextType = strings.ToLower(strings.TrimSpace(c.ContextType))

	if c.SourceType == "" {
		c.SourceType = SourceSelf
	}
	if c.ContextType == "" {
		c.ContextType = ContextPractice
	}
	if c.IsOfficial {
		c.SourceType = SourceInstructor
		c.ContextType = ContextClass
	}
}

// Validate reports missing references and unknown context values.
func (c Command) Validate() error {
	if c.TranscriptID == uuid.Nil {
		return ErrTranscriptRequired
	}
	if c.RubricID == uuid.Nil {
		return ErrRubricRequired
	}
	if c.SourceType != SourceSelf && c.SourceType != SourceInstructor {
		return ErrInvalidSourceType
	}
	if c.ContextType != ContextPractice && c.ContextType != ContextClass {
		return ErrInvalidContextType
	}
	if c.ContextType == ContextClass && c.ContextID == nil {
		return ErrContextRequired
	}
	return nil
}

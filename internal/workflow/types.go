package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/internal/analysis"
)

// State keys carried between graph nodes.
const (
	KeyTranscriptID = "transcript_id"
	KeyRubricID     = "rubric_id"
	KeyTranscript   = "transcript"
	KeyRubric       = "rubric"
	KeyPacing       = "pacing"
	KeyClarity      = "clarity"
	KeyContent      = "content"
	KeyResult       = "result"
)

// Result is the aggregated output of one grading run.
type Result struct {
	TranscriptID     uuid.UUID        `json:"transcript_id"`
	RubricID         uuid.UUID        `json:"rubric_id"`
	OverallScore     float64          `json:"overall_score"`
	MaxPossibleScore float64          `json:"max_possible_score"`
	ContentStatus    string           `json:"content_status"`
	Pacing           analysis.Pacing  `json:"pacing"`
	Clarity          analysis.Clarity `json:"clarity"`
	Content          analysis.Content `json:"content"`
	CompletedAt      time.Time        `json:"completed_at"`
}

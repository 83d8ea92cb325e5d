package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/internal/analysis"
	"github.com/JaimeStill/cadence/internal/rubrics"
	"github.com/JaimeStill/cadence/internal/transcripts"
)

// TranscriptSource loads a transcript by id.
type TranscriptSource interface {
	Find(ctx context.Context, id uuid.UUID) (*transcripts.Transcript, error)
}

// RubricSource loads a rubric, with ordered criteria, by id.
type RubricSource interface {
	Find(ctx context.Context, id uuid.UUID) (*rubrics.Rubric, error)
}

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	Transcripts TranscriptSource
	Rubrics     RubricSource
	Clarity     *analysis.ClarityAnalyzer
	Content     *analysis.ContentGrader
	Logger      *slog.Logger
}

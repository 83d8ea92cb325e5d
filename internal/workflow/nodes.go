package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/cadence/internal/analysis"
	"github.com/JaimeStill/cadence/internal/rubrics"
	"github.com/JaimeStill/cadence/internal/transcripts"
)

var tracer = otel.Tracer("cadence/workflow")

// traced wraps a node function in a span named after the node.
func traced(name string, fn func(ctx context.Context, s state.State) (state.State, error)) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ctx, span := tracer.Start(ctx, "workflow."+name)
		defer span.End()

		out, err := fn(ctx, s)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return out, err
	})
}

// LoadNode returns a state node that loads the transcript and rubric
// referenced by the grading.
func LoadNode(rt *Runtime) state.StateNode {
	return traced("load", func(ctx context.Context, s state.State) (state.State, error) {
		transcriptID, err := get[uuid.UUID](s, KeyTranscriptID)
		if err != nil {
			return s, fmt.Errorf("load: %w: %w", ErrLoadFailed, err)
		}

		rubricID, err := get[uuid.UUID](s, KeyRubricID)
		if err != nil {
			return s, fmt.Errorf("load: %w: %w", ErrLoadFailed, err)
		}

		t, err := rt.Transcripts.Find(ctx, transcriptID)
		if err != nil {
			if errors.Is(err, transcripts.ErrNotFound) {
				return s, fmt.Errorf("load: %w: %s", ErrTranscriptNotFound, transcriptID)
			}
			return s, fmt.Errorf("load: %w: transcript: %w", ErrLoadFailed, err)
		}

		r, err := rt.Rubrics.Find(ctx, rubricID)
		if err != nil {
			if errors.Is(err, rubrics.ErrNotFound) {
				return s, fmt.Errorf("load: %w: %s", ErrRubricNotFound, rubricID)
			}
			return s, fmt.Errorf("load: %w: rubric: %w", ErrLoadFailed, err)
		}

		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("transcript.words", len(t.Words)),
			attribute.Int("rubric.criteria", len(r.Criteria)),
		)

		rt.Logger.InfoContext(
			ctx, "load node complete",
			"transcript_id", transcriptID,
			"rubric_id", rubricID,
			"word_count", len(t.Words),
			"criteria_count", len(r.Criteria),
		)

		s = s.Set(KeyTranscript, *t)
		s = s.Set(KeyRubric, *r)
		return s, nil
	})
}

// PacingNode returns a state node that runs the pacing analysis.
func PacingNode(rt *Runtime) state.StateNode {
	return traced("pacing", func(ctx context.Context, s state.State) (state.State, error) {
		t, err := get[transcripts.Transcript](s, KeyTranscript)
		if err != nil {
			return s, fmt.Errorf("pacing: %w", err)
		}

		p := analysis.AnalyzePacing(t.Words)

		rt.Logger.InfoContext(
			ctx, "pacing node complete",
			"wpm_avg", p.WPMAvg,
			"pause_count", p.PauseCount,
			"pacing_score", p.Score,
		)

		return s.Set(KeyPacing, p), nil
	})
}

// ClarityNode returns a state node that runs the clarity analysis.
func ClarityNode(rt *Runtime) state.StateNode {
	return traced("clarity", func(ctx context.Context, s state.State) (state.State, error) {
		t, err := get[transcripts.Transcript](s, KeyTranscript)
		if err != nil {
			return s, fmt.Errorf("clarity: %w", err)
		}

		c := rt.Clarity.Analyze(ctx, t.Words, t.Text)

		rt.Logger.InfoContext(
			ctx, "clarity node complete",
			"filler_count", c.FillerCount,
			"nonsensical_count", c.NonsensicalCount,
			"clarity_score", c.Score,
		)

		return s.Set(KeyClarity, c), nil
	})
}

// ContentNode returns a state node that grades the transcript against the rubric.
func ContentNode(rt *Runtime) state.StateNode {
	return traced("content", func(ctx context.Context, s state.State) (state.State, error) {
		t, err := get[transcripts.Transcript](s, KeyTranscript)
		if err != nil {
			return s, fmt.Errorf("content: %w", err)
		}

		r, err := get[rubrics.Rubric](s, KeyRubric)
		if err != nil {
			return s, fmt.Errorf("content: %w", err)
		}

		c := rt.Content.Grade(ctx, t.Text, &r)

		rt.Logger.InfoContext(
			ctx, "content node complete",
			"criteria_count", len(r.Criteria),
			"scored_count", len(c.Scores),
		)

		return s.Set(KeyContent, c), nil
	})
}

// ScoreNode returns a state node that aggregates the analyses into a Result.
func ScoreNode(rt *Runtime) state.StateNode {
	return traced("score", func(ctx context.Context, s state.State) (state.State, error) {
		r, err := get[rubrics.Rubric](s, KeyRubric)
		if err != nil {
			return s, fmt.Errorf("score: %w: %w", ErrScoreFailed, err)
		}
		t, err := get[transcripts.Transcript](s, KeyTranscript)
		if err != nil {
			return s, fmt.Errorf("score: %w: %w", ErrScoreFailed, err)
		}
		pacing, err := get[analysis.Pacing](s, KeyPacing)
		if err != nil {
			return s, fmt.Errorf("score: %w: %w", ErrScoreFailed, err)
		}
		clarity, err := get[analysis.Clarity](s, KeyClarity)
		if err != nil {
			return s, fmt.Errorf("score: %w: %w", ErrScoreFailed, err)
		}
		content, err := get[analysis.Content](s, KeyContent)
		if err != nil {
			return s, fmt.Errorf("score: %w: %w", ErrScoreFailed, err)
		}

		overall, maxPossible := Score(content, &r)

		result := Result{
			TranscriptID:     t.ID,
			RubricID:         r.ID,
			OverallScore:     overall,
			MaxPossibleScore: maxPossible,
			ContentStatus:    content.Status(len(r.Criteria)),
			Pacing:           pacing,
			Clarity:          clarity,
			Content:          content,
			CompletedAt:      time.Now(),
		}

		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Float64("grading.overall_score", overall),
			attribute.String("grading.content_status", result.ContentStatus),
		)

		rt.Logger.InfoContext(
			ctx, "score node complete",
			"overall_score", overall,
			"max_possible_score", maxPossible,
			"content_status", result.ContentStatus,
		)

		return s.Set(KeyResult, result), nil
	})
}

func get[T any](s state.State, key string) (T, error) {
	var zero T

	val, ok := s.Get(key)
	if !ok {
		return zero, fmt.Errorf("missing %s in state", key)
	}

	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%s is not %T", key, zero)
	}

	return v, nil
}

package gradings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/JaimeStill/cadence/internal/jobs"
	"github.com/JaimeStill/cadence/internal/workflow"
	"github.com/JaimeStill/cadence/pkg/storage"
)

var tracer = otel.Tracer("cadence/gradings")

// failTimeout bounds the terminal write for a run whose context already expired.
const failTimeout = 10 * time.Second

// Store persists the state transitions of a single grading attempt. Every
// method is guarded by attempt: a write for a superseded attempt returns
// ErrStaleAttempt and changes nothing.
type Store interface {
	// Begin claims a processing attempt for execution.
	Begin(ctx context.Context, id uuid.UUID, attempt int) (*Grading, error)
	// Complete records a successful result and marks the attempt completed.
	Complete(ctx context.Context, id uuid.UUID, attempt int, result *workflow.Result) (*Grading, error)
	// Fail clears score fields and marks the attempt failed with cause.
	Fail(ctx context.Context, id uuid.UUID, attempt int, cause error) error
}

// Executor runs the grading workflow for a transcript and rubric.
type Executor func(ctx context.Context, transcriptID, rubricID uuid.UUID) (*workflow.Result, error)

// Runner executes queued grading jobs against a Store.
type Runner struct {
	store   Store
	execute Executor
	storage storage.System
	logger  *slog.Logger
}

// NewRunner creates a Runner. Completed gradings are archived to blobs when
// it is enabled.
func NewRunner(st Store, execute Executor, blobs storage.System, logger *slog.Logger) *Runner {
	return &Runner{
		store:   st,
		execute: execute,
		storage: blobs,
		logger:  logger.With("system", "gradings.runner"),
	}
}

// Run executes one job. It is a jobs.Handler. Jobs for deleted gradings or
// superseded attempts are discarded without error. Workflow failures and
// panics end the attempt in the failed state and are returned.
func (r *Runner) Run(ctx context.Context, job jobs.Job) (err error) {
	ctx, span := tracer.Start(ctx, "gradings.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("grading.id", job.GradingID.String()),
		attribute.Int("grading.attempt", job.Attempt),
	)

	logger := r.logger.With("grading_id", job.GradingID, "attempt", job.Attempt)

	g, err := r.store.Begin(ctx, job.GradingID, job.Attempt)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStaleAttempt) {
		logger.InfoContext(ctx, "grading job discarded", "reason", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("begin grading: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
			r.fail(ctx, logger, job, err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if g.TranscriptID == nil {
		err = workflow.ErrTranscriptNotFound
		r.fail(ctx, logger, job, err)
		return err
	}
	if g.RubricID == nil {
		err = workflow.ErrRubricNotFound
		r.fail(ctx, logger, job, err)
		return err
	}

	start := time.Now()
	result, err := r.execute(ctx, *g.TranscriptID, *g.RubricID)
	if err != nil {
		r.fail(ctx, logger, job, err)
		return err
	}

	completed, err := r.store.Complete(ctx, job.GradingID, job.Attempt, result)
	if errors.Is(err, ErrStaleAttempt) || errors.Is(err, ErrNotFound) {
		logger.InfoContext(ctx, "grading result discarded", "reason", err)
		return nil
	}
	if err != nil {
		err = fmt.Errorf("complete grading: %w", err)
		r.fail(ctx, logger, job, err)
		return err
	}

	logger.InfoContext(
		ctx, "grading completed",
		"overall_score", result.OverallScore,
		"content_status", result.ContentStatus,
		"duration", time.Since(start),
	)

	r.archive(ctx, logger, completed)
	return nil
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, job jobs.Job, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failTimeout)
	defer cancel()

	if err := r.store.Fail(ctx, job.GradingID, job.Attempt, cause); err != nil {
		if errors.Is(err, ErrStaleAttempt) || errors.Is(err, ErrNotFound) {
			logger.InfoContext(ctx, "grading failure discarded", "reason", err)
			return
		}
		logger.ErrorContext(ctx, "failed to record grading failure", "cause", cause, "error", err)
		return
	}

	logger.WarnContext(ctx, "grading failed", "error", cause)
}

// archive writes the completed grading as a JSON report. Archive failures
// are logged and never change the grading's outcome.
func (r *Runner) archive(ctx context.Context, logger *slog.Logger, g *Grading) {
	if r.storage == nil || !r.storage.Enabled() {
		return
	}

	data, err := json.Marshal(g)
	if err != nil {
		logger.WarnContext(ctx, "failed to encode grading report", "error", err)
		return
	}

	key := ReportKey(g.ID)
	if err := r.storage.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		logger.WarnContext(ctx, "failed to archive grading report", "key", key, "error", err)
		return
	}

	logger.DebugContext(ctx, "grading report archived", "key", key)
}

// ReportKey returns the storage key of a grading's archived report.
func ReportKey(id uuid.UUID) string {
	return fmt.Sprintf("gradings/%s/report.json", id)
}

package gradings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/internal/jobs"
	"github.com/JaimeStill/cadence/internal/rubrics"
	"github.com/JaimeStill/cadence/internal/transcripts"
	"github.com/JaimeStill/cadence/internal/workflow"
	"github.com/JaimeStill/cadence/pkg/pagination"
	"github.com/JaimeStill/cadence/pkg/query"
	"github.com/JaimeStill/cadence/pkg/repository"
	"github.com/JaimeStill/cadence/pkg/storage"
)

var errorMap = repository.ErrorMap{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
}

const clearScores = `
	overall_score = NULL,
	max_possible_score = NULL,
	pacing_wpm_avg = NULL,
	pacing_wpm_variance = NULL,
	pacing_pause_count = NULL,
	pacing_score = NULL,
	clarity_filler_word_count = NULL,
	clarity_filler_word_percentage = NULL,
	clarity_nonsensical_word_count = NULL,
	clarity_score = NULL,
	detailed_results = NULL`

type repo struct {
	db         *sql.DB
	queue      jobs.Queue
	rt         *workflow.Runtime
	storage    storage.System
	runner     *Runner
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a grading repository implementing the System interface.
// Submitted attempts are enqueued on queue and executed against rt.
func New(
	db *sql.DB,
	queue jobs.Queue,
	rt *workflow.Runtime,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	r := &repo{
		db:         db,
		queue:      queue,
		rt:         rt,
		storage:    store,
		logger:     logger.With("system", "gradings"),
		pagination: pagination,
	}

	r.runner = NewRunner(r, r.execute, store, logger)
	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) execute(ctx context.Context, transcriptID, rubricID uuid.UUID) (*workflow.Result, error) {
	return workflow.Execute(ctx, r.rt, transcriptID, rubricID)
}

func (r *repo) Run(ctx context.Context, job jobs.Job) error {
	return r.runner.Run(ctx, job)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Grading], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Error")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count gradings: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanGrading)
	if err != nil {
		return nil, fmt.Errorf("query gradings: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Grading, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	g, err := repository.QueryOne(ctx, r.db, q, args, scanGrading)
	if err != nil {
		return nil, errorMap.Map(err)
	}
	return &g, nil
}

func (r *repo) ListByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]Grading, error) {
	if err := r.verifyTranscript(ctx, transcriptID); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE g.transcript_id = $1 ORDER BY g.created_at DESC",
		projection.Columns(),
		projection.From(),
	)

	items, err := repository.QueryMany(ctx, r.db, q, []any{transcriptID}, scanGrading)
	if err != nil {
		return nil, fmt.Errorf("query transcript gradings: %w", err)
	}
	return items, nil
}

func (r *repo) Submit(ctx context.Context, cmd Command) (*Grading, error) {
	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if err := r.verifyTranscript(ctx, cmd.TranscriptID); err != nil {
		return nil, err
	}
	if err := r.verifyRubric(ctx, cmd.RubricID); err != nil {
		return nil, err
	}

	var replaced bool
	g, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Grading, error) {
		var existing uuid.UUID
		err := tx.QueryRowContext(
			ctx,
			"SELECT id FROM gradings WHERE transcript_id = $1 AND rubric_id = $2 FOR UPDATE",
			cmd.TranscriptID, cmd.RubricID,
		).Scan(&existing)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			return r.insert(ctx, tx, cmd)
		case err != nil:
			return Grading{}, fmt.Errorf("find existing grading: %w", err)
		case !cmd.ReplaceExisting:
			return Grading{}, ErrDuplicate
		default:
			replaced = true
			return r.reset(ctx, tx, existing, cmd)
		}
	})

	if err != nil {
		return nil, errorMap.Map(err)
	}

	if replaced {
		r.deleteReport(ctx, g.ID)
	}

	job := jobs.Job{GradingID: g.ID, Attempt: g.Attempt, EnqueuedAt: time.Now().UTC()}
	if err := r.queue.Enqueue(ctx, job); err != nil {
		cause := fmt.Errorf("enqueue grading: %w", err)
		if ferr := r.Fail(context.WithoutCancel(ctx), g.ID, g.Attempt, cause); ferr != nil {
			r.logger.Error("failed to record enqueue failure", "id", g.ID, "error", ferr)
		}
		return nil, cause
	}

	r.logger.Info(
		"grading submitted",
		"id", g.ID,
		"attempt", g.Attempt,
		"transcript_id", cmd.TranscriptID,
		"rubric_id", cmd.RubricID,
		"replaced", replaced,
	)
	return &g, nil
}

func (r *repo) insert(ctx context.Context, tx *sql.Tx, cmd Command) (Grading, error) {
	q := `
		INSERT INTO gradings(
			transcript_id, rubric_id, graded_by_user_id,
			source_type, context_type, context_id, is_official
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		` + returning

	args := []any{
		cmd.TranscriptID, cmd.RubricID, cmd.GradedByUserID,
		cmd.SourceType, cmd.ContextType, cmd.ContextID, cmd.IsOfficial,
	}

	return repository.QueryOne(ctx, tx, q, args, scanGrading)
}

func (r *repo) reset(ctx context.Context, tx *sql.Tx, id uuid.UUID, cmd Command) (Grading, error) {
	q := `
		UPDATE gradings
		SET status = 'processing',
			attempt = attempt + 1,
			graded_by_user_id = $2,
			source_type = $3,
			context_type = $4,
			context_id = $5,
			is_official = $6,
			error = NULL,
			updated_at = now(),` + clearScores + `
		WHERE id = $1
		` + returning

	args := []any{
		id, cmd.GradedByUserID,
		cmd.SourceType, cmd.ContextType, cmd.ContextID, cmd.IsOfficial,
	}

	return repository.QueryOne(ctx, tx, q, args, scanGrading)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM gradings WHERE id = $1", id); err != nil {
		return errorMap.Map(err)
	}

	r.deleteReport(ctx, id)
	r.logger.Info("grading deleted", "id", id)
	return nil
}

func (r *repo) Report(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	if !r.storage.Enabled() {
		return nil, storage.ErrDisabled
	}

	g, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusCompleted {
		return nil, ErrReportNotFound
	}

	rc, err := r.storage.Download(ctx, ReportKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("download report: %w", err)
	}
	return rc, nil
}

func (r *repo) Recover(ctx context.Context) (int, error) {
	pending, err := repository.QueryMany(
		ctx, r.db,
		"SELECT id, attempt FROM gradings WHERE status = 'processing' ORDER BY created_at",
		nil,
		func(s repository.Scanner) (jobs.Job, error) {
			var j jobs.Job
			err := s.Scan(&j.GradingID, &j.Attempt)
			return j, err
		},
	)
	if err != nil {
		return 0, fmt.Errorf("query pending gradings: %w", err)
	}

	for i, job := range pending {
		job.EnqueuedAt = time.Now().UTC()
		if err := r.queue.Enqueue(ctx, job); err != nil {
			return i, fmt.Errorf("re-enqueue grading %s: %w", job.GradingID, err)
		}
	}

	if len(pending) > 0 {
		r.logger.Info("pending gradings recovered", "count", len(pending))
	}
	return len(pending), nil
}

func (r *repo) Begin(ctx context.Context, id uuid.UUID, attempt int) (*Grading, error) {
	q := `
		UPDATE gradings
		SET updated_at = now()
		WHERE id = $1 AND attempt = $2 AND status = 'processing'
		` + returning

	g, err := repository.QueryOne(ctx, r.db, q, []any{id, attempt}, scanGrading)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.staleOrMissing(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repo) Complete(ctx context.Context, id uuid.UUID, attempt int, result *workflow.Result) (*Grading, error) {
	details, err := json.Marshal(NewDetailedResults(result))
	if err != nil {
		return nil, fmt.Errorf("encode detailed results: %w", err)
	}

	q := `
		UPDATE gradings
		SET status = 'completed',
			overall_score = $3,
			max_possible_score = $4,
			pacing_wpm_avg = $5,
			pacing_wpm_variance = $6,
			pacing_pause_count = $7,
			pacing_score = $8,
			clarity_filler_word_count = $9,
			clarity_filler_word_percentage = $10,
			clarity_nonsensical_word_count = $11,
			clarity_score = $12,
			detailed_results = $13,
			error = NULL,
			updated_at = now()
		WHERE id = $1 AND attempt = $2 AND status = 'processing'
		` + returning

	args := []any{
		id, attempt,
		result.OverallScore, result.MaxPossibleScore,
		result.Pacing.WPMAvg, result.Pacing.WPMVariance,
		result.Pacing.PauseCount, result.Pacing.Score,
		result.Clarity.FillerCount, result.Clarity.FillerPercentage,
		result.Clarity.NonsensicalCount, result.Clarity.Score,
		string(details),
	}

	g, err := repository.QueryOne(ctx, r.db, q, args, scanGrading)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.staleOrMissing(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repo) Fail(ctx context.Context, id uuid.UUID, attempt int, cause error) error {
	q := `
		UPDATE gradings
		SET status = 'failed',
			error = $3,
			updated_at = now(),` + clearScores + `
		WHERE id = $1 AND attempt = $2 AND status = 'processing'`

	err := repository.ExecExpectOne(ctx, r.db, q, id, attempt, cause.Error())
	if errors.Is(err, sql.ErrNoRows) {
		return r.staleOrMissing(ctx, id)
	}
	return err
}

// staleOrMissing explains why an attempt-guarded write matched no row.
func (r *repo) staleOrMissing(ctx context.Context, id uuid.UUID) error {
	var attempt int
	err := r.db.QueryRowContext(ctx, "SELECT attempt FROM gradings WHERE id = $1", id).Scan(&attempt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrStaleAttempt
}

func (r *repo) verifyTranscript(ctx context.Context, id uuid.UUID) error {
	if _, err := r.rt.Transcripts.Find(ctx, id); err != nil {
		if errors.Is(err, transcripts.ErrNotFound) {
			return ErrTranscriptNotFound
		}
		return fmt.Errorf("find transcript: %w", err)
	}
	return nil
}

func (r *repo) verifyRubric(ctx context.Context, id uuid.UUID) error {
	if _, err := r.rt.Rubrics.Find(ctx, id); err != nil {
		if errors.Is(err, rubrics.ErrNotFound) {
			return ErrRubricNotFound
		}
		return fmt.Errorf("find rubric: %w", err)
	}
	return nil
}

func (r *repo) deleteReport(ctx context.Context, id uuid.UUID) {
	if !r.storage.Enabled() {
		return
	}

	err := r.storage.Delete(ctx, ReportKey(id))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("failed to delete grading report", "id", id, "error", err)
	}
}

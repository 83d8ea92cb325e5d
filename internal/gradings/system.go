package gradings

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/internal/jobs"
	"github.com/JaimeStill/cadence/pkg/pagination"
)

// System defines the contract for grading submission and retrieval. It is
// also the Store used by the Runner that executes queued attempts.
type System interface {
	Store

	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Grading], error)

	Find(ctx context.Context, id uuid.UUID) (*Grading, error)
	ListByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]Grading, error)

	// Submit creates or replaces the grading for a transcript and rubric and
	// enqueues its attempt. The returned grading is in the processing state.
	Submit(ctx context.Context, cmd Command) (*Grading, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Report opens the archived JSON report of a completed grading.
	Report(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)

	// Recover re-enqueues every grading left in the processing state and
	// returns the number of jobs enqueued.
	Recover(ctx context.Context) (int, error)

	// Run executes a queued job. It satisfies jobs.Handler.
	Run(ctx context.Context, job jobs.Job) error
}

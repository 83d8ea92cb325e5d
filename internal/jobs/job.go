// Package jobs provides the grading job queue and the worker pool that
// consumes it. Submitting a grading enqueues a Job; workers dequeue jobs and
// hand them to a Handler outside the request path.
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job identifies one grading attempt to execute.
type Job struct {
	GradingID  uuid.UUID `json:"grading_id"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Handle is returned to submitters so they can poll the grading.
type Handle struct {
	GradingID uuid.UUID `json:"grading_id"`
	Attempt   int       `json:"attempt"`
}

// Handle returns the submitter-facing handle for the job.
func (j Job) Handle() Handle {
	return Handle{GradingID: j.GradingID, Attempt: j.Attempt}
}

// Handler executes a dequeued job.
type Handler func(ctx context.Context, job Job) error

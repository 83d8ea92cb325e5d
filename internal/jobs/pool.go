package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/cadence/pkg/lifecycle"
)

// retryDelay is the pause after a failed dequeue before polling again.
const retryDelay = time.Second

// Pool runs a fixed number of workers that dequeue jobs and pass them to a
// Handler. Each job runs under its own timeout and is detached from the
// pool's shutdown signal, so in-flight jobs finish instead of being cancelled.
type Pool struct {
	queue   Queue
	handler Handler
	workers int
	timeout time.Duration
	logger  *slog.Logger

	started   atomic.Bool
	running   atomic.Int32
	processed atomic.Int64
	done      chan struct{}
}

// NewPool creates a Pool of workers consuming queue.
func NewPool(queue Queue, handler Handler, workers int, timeout time.Duration, logger *slog.Logger) *Pool {
	return &Pool{
		queue:   queue,
		handler: handler,
		workers: max(workers, 1),
		timeout: timeout,
		logger:  logger.With("system", "workers"),
		done:    make(chan struct{}),
	}
}

// Start launches the workers once startup completes and registers a
// shutdown hook that waits for them to exit.
func (p *Pool) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("starting worker pool", "workers", p.workers, "job_timeout", p.timeout)

	lc.Register("workers", p)

	lc.OnStartup("workers", func(context.Context) error {
		go p.run(lc.Context())
		return nil
	})

	lc.OnShutdown(func() {
		if !p.started.Load() {
			return
		}
		<-p.done
		p.logger.Info("worker pool stopped", "processed", p.processed.Load())
	})

	return nil
}

// Ready reports whether every worker is running.
func (p *Pool) Ready() bool {
	return int(p.running.Load()) == p.workers
}

// Processed returns the number of jobs handled since start.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Run blocks running workers until ctx is cancelled and all workers exit.
// A Pool runs at most once.
func (p *Pool) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrPoolStarted
	}
	defer close(p.done)

	g, gctx := errgroup.WithContext(ctx)
	for i := range p.workers {
		g.Go(func() error {
			p.work(gctx, i+1)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) run(ctx context.Context) {
	if err := p.Run(ctx); err != nil {
		p.logger.Error("worker pool exited", "error", err)
	}
}

func (p *Pool) work(ctx context.Context, id int) {
	logger := p.logger.With("worker", id)

	p.running.Add(1)
	defer p.running.Add(-1)

	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrQueueClosed) {
				return
			}
			logger.Error("dequeue failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}

		p.process(context.WithoutCancel(ctx), logger, job)
	}
}

func (p *Pool) process(ctx context.Context, logger *slog.Logger, job Job) {
	defer p.processed.Add(1)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer("cadence/jobs").Start(ctx, "jobs.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("grading.id", job.GradingID.String()),
		attribute.Int("grading.attempt", job.Attempt),
	)

	start := time.Now()
	logger.InfoContext(ctx, "job started",
		"grading_id", job.GradingID,
		"attempt", job.Attempt,
		"queued_for", start.Sub(job.EnqueuedAt),
	)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.ErrorContext(ctx, "job panicked", "grading_id", job.GradingID, "error", err)
		}
	}()

	if err := p.handler(ctx, job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "job failed",
			"grading_id", job.GradingID,
			"attempt", job.Attempt,
			"duration", time.Since(start),
			"error", err,
		)
		return
	}

	logger.InfoContext(ctx, "job complete",
		"grading_id", job.GradingID,
		"attempt", job.Attempt,
		"duration", time.Since(start),
	)
}

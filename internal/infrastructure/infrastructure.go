// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, tracing, the
// completion evaluator, and the job queue) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/cadence/internal/config"
	"github.com/JaimeStill/cadence/internal/evaluator"
	"github.com/JaimeStill/cadence/internal/jobs"
	"github.com/JaimeStill/cadence/pkg/database"
	"github.com/JaimeStill/cadence/pkg/lifecycle"
	"github.com/JaimeStill/cadence/pkg/storage"
	"github.com/JaimeStill/cadence/pkg/tracing"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, report storage, tracing, completions, and
// job transport.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Tracing   tracing.System
	Evaluator evaluator.System
	Queue     jobs.Queue
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing, cfg.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	eval, err := evaluator.New(cfg.Agent.GoAgentsConfig(), cfg.Grading.CallTimeoutDuration(), logger)
	if err != nil {
		return nil, fmt.Errorf("evaluator init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Tracing:   tracer,
		Evaluator: eval,
		Queue:     newQueue(&cfg.Queue, logger),
	}, nil
}

func newQueue(cfg *config.QueueConfig, logger *slog.Logger) jobs.Queue {
	if cfg.Backend == config.QueueRedis {
		return jobs.NewRedisQueue(cfg.Redis.Options(), logger)
	}
	return jobs.NewMemoryQueue(cfg.Capacity, logger)
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Each system registers its own startup and shutdown hooks.
func (i *Infrastructure) Start() error {
	if err := i.Tracing.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("tracing start failed: %w", err)
	}
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Evaluator.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("evaluator start failed: %w", err)
	}
	if err := i.Queue.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("queue start failed: %w", err)
	}
	return nil
}

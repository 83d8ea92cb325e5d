// Package api assembles the API module with all domain systems, the grading
// worker pool, and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/cadence/internal/config"
	"github.com/JaimeStill/cadence/internal/infrastructure"
	"github.com/JaimeStill/cadence/internal/jobs"
	"github.com/JaimeStill/cadence/pkg/lifecycle"
	"github.com/JaimeStill/cadence/pkg/middleware"
	"github.com/JaimeStill/cadence/pkg/module"
)

// Module is the mounted API together with the domain systems and the
// worker pool that executes submitted gradings.
type Module struct {
	*module.Module
	Domain *Domain
	Pool   *jobs.Pool
}

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	pool := jobs.NewPool(
		runtime.Queue,
		domain.Gradings.Run,
		runtime.Workers,
		runtime.Grading.JobTimeoutDuration(),
		runtime.Logger,
	)

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return &Module{
		Module: m,
		Domain: domain,
		Pool:   pool,
	}, nil
}

// Start registers the worker pool with the lifecycle coordinator.
func (m *Module) Start(lc *lifecycle.Coordinator) error {
	return m.Pool.Start(lc)
}

// Recover re-enqueues gradings left processing by a previous run. It must
// be called after startup completes so the database and queue are ready.
func (m *Module) Recover(ctx context.Context) (int, error) {
	n, err := m.Domain.Gradings.Recover(ctx)
	if err != nil {
		return n, fmt.Errorf("recover gradings: %w", err)
	}
	return n, nil
}

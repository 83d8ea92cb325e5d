package api

import (
	"github.com/JaimeStill/cadence/internal/config"
	"github.com/JaimeStill/cadence/internal/infrastructure"
	"github.com/JaimeStill/cadence/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Grading    config.GradingConfig
	Workers    int
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Tracing:   infra.Tracing,
			Evaluator: infra.Evaluator,
			Queue:     infra.Queue,
		},
		Pagination: cfg.API.Pagination,
		Grading:    cfg.Grading,
		Workers:    cfg.Queue.Workers,
	}
}

package main

import (
	"time"

	"github.com/JaimeStill/cadence/internal/config"
	"github.com/JaimeStill/cadence/internal/infrastructure"
)

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"env", cfg.Env(),
		"version", cfg.Version,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start launches infrastructure, the worker pool, and the HTTP listener.
// Gradings interrupted by a previous run are requeued once every startup
// hook has succeeded.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.modules.API.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("startup failed", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")

		if n, err := s.modules.API.Recover(s.infra.Lifecycle.Context()); err != nil {
			s.infra.Logger.Error("grading recovery failed", "error", err, "requeued", n)
		}
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}

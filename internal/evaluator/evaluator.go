// Package evaluator provides the completion client used by the grading
// analyses. A System is constructed once per process, registered with the
// lifecycle coordinator, and injected into the analyzers.
package evaluator

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

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/cadence/pkg/lifecycle"
)

// Request is a single completion call.
type Request struct {
	// Stage names the caller for logs and spans.
	Stage string
	// Prompt is the complete text sent to the model.
	Prompt string
	// Temperature controls sampling variability. Zero leaves the model default.
	Temperature float64
	// JSON requests a JSON object response from the provider.
	JSON bool
}

// Options returns the provider options carried by the request, or nil when
// it carries none.
func (r Request) Options() map[string]any {
	opts := make(map[string]any)
	if r.Temperature > 0 {
		opts["temperature"] = r.Temperature
	}
	if r.JSON {
		opts["response_format"] = map[string]any{"type": "json_object"}
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// Client sends a prompt to the completion service and returns the raw text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// System is a Client bound to the process lifecycle. Every call is bounded
// by the configured timeout. Calls keep being served during shutdown so
// that jobs drained by the worker pool can finish.
type System interface {
	Client
	Start(lc *lifecycle.Coordinator) error
}

type system struct {
	client  Client
	timeout time.Duration
	logger  *slog.Logger

	calls    atomic.Int64
	failures atomic.Int64
}

// New creates a System backed by a go-agents agent built from cfg.
func New(cfg *gaconfig.AgentConfig, timeout time.Duration, logger *slog.Logger) (System, error) {
	if _, err := agent.New(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAgent, err)
	}
	return Wrap(&agentClient{cfg: cfg}, timeout, logger), nil
}

// Wrap binds an arbitrary Client to the timeout, tracing, and drain behavior
// of a System.
func Wrap(c Client, timeout time.Duration, logger *slog.Logger) System {
	return &system{
		client:  c,
		timeout: timeout,
		logger:  logger.With("system", "evaluator"),
	}
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting evaluator", "call_timeout", s.timeout)

	lc.OnShutdown(func() {
		s.logger.Info(
			"evaluator stopped",
			"calls", s.calls.Load(),
			"failures", s.failures.Load(),
		)
	})

	return nil
}

func (s *system) Complete(ctx context.Context, req Request) (string, error) {
	s.calls.Add(1)

	ctx, span := otel.Tracer("cadence/evaluator").Start(ctx, "evaluator.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("evaluator.stage", req.Stage),
		attribute.Float64("evaluator.temperature", req.Temperature),
		attribute.Bool("evaluator.json", req.JSON),
		attribute.Int("evaluator.prompt_length", len(req.Prompt)),
	)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.client.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		s.failures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	s.logger.DebugContext(
		ctx, "completion received",
		"stage", req.Stage,
		"duration", time.Since(start),
		"response_length", len(text),
	)

	return text, nil
}

type agentClient struct {
	cfg *gaconfig.AgentConfig
}

func (c *agentClient) Complete(ctx context.Context, req Request) (string, error) {
	a, err := agent.New(c.cfg)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	var opts []map[string]any
	if o := req.Options(); o != nil {
		opts = append(opts, o)
	}

	resp, err := a.Chat(ctx, req.Prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}

	return resp.Content(), nil
}

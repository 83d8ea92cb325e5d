// Package tracing installs the process-wide OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/JaimeStill/cadence/pkg/lifecycle"
)

// System owns the tracer provider for the process lifetime.
type System interface {
	// Start installs the provider globally and registers a shutdown hook
	// that flushes pending spans.
	Start(lc *lifecycle.Coordinator) error
}

type provider struct {
	cfg     *Config
	version string
	logger  *slog.Logger
	tp      *sdktrace.TracerProvider
}

// New builds the tracer provider described by cfg. A disabled configuration
// leaves the global no-op provider in place.
func New(cfg *Config, version string, logger *slog.Logger) (System, error) {
	p := &provider{
		cfg:     cfg,
		version: version,
		logger:  logger.With("system", "tracing"),
	}

	if !cfg.Enabled {
		return p, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(version),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build exporter: %w", err)
	}

	p.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)

	return p, nil
}

func (p *provider) Start(lc *lifecycle.Coordinator) error {
	if p.tp == nil {
		p.logger.Info("tracing disabled")
		return nil
	}

	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p.logger.Info(
		"tracing initialized",
		"service", p.cfg.ServiceName,
		"endpoint", p.cfg.Endpoint,
		"sample_ratio", p.cfg.SampleRatio,
	)

	lc.OnShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.tp.Shutdown(ctx); err != nil {
			p.logger.Error("tracer provider shutdown failed", "error", err)
			return
		}
		p.logger.Info("tracer provider flushed")
	})

	return nil
}

func newExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

// Package observability wires logging, tracing, and metrics for the engine.
// Init builds a Provider (raw components) and a Registry (per-module handles)
// that modules receive at construction time.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
)

// Config controls observability initialization.
type Config struct {
	ServiceName  string
	Environment  string
	Version      string
	OTLPEndpoint string
	OTLPInsecure bool
	TraceSample  float64
}

// Provider holds the raw observability components.
type Provider struct {
	Logger             *slog.Logger
	TracerProvider     trace.TracerProvider
	PrometheusRegistry *prometheus.Registry

	shutdown []func(context.Context) error
}

// Registry holds the per-module observability handles.
type Registry struct {
	Tracer             trace.Tracer
	SeasonMetrics      SeasonMetrics
	TransitionMetrics  TransitionMetrics
	LeaderboardMetrics LeaderboardMetrics
	EventBusMetrics    EventBusMetrics
}

// Observability bundles the provider and registry.
type Observability struct {
	Provider *Provider
	Registry *Registry
}

// Init builds the full observability stack. The environment decides the log
// handler: JSON everywhere except "development" (text) and "test" (discard).
func Init(ctx context.Context, cfg Config) (Observability, error) {
	logger := newLogger(cfg)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tp, shutdownTracing, err := initTracerProvider(ctx, cfg)
	if err != nil {
		return Observability{}, fmt.Errorf("observability.Init: %w", err)
	}

	provider := &Provider{
		Logger:             logger,
		TracerProvider:     tp,
		PrometheusRegistry: promRegistry,
	}
	if shutdownTracing != nil {
		provider.shutdown = append(provider.shutdown, shutdownTracing)
	}

	metrics, err := NewPrometheusMetrics(promRegistry, cfg.ServiceName)
	if err != nil {
		return Observability{}, fmt.Errorf("observability.Init: %w", err)
	}

	registry := &Registry{
		Tracer:             tp.Tracer(cfg.ServiceName),
		SeasonMetrics:      metrics.Season,
		TransitionMetrics:  metrics.Transition,
		LeaderboardMetrics: metrics.Leaderboard,
		EventBusMetrics:    metrics.EventBus,
	}

	return Observability{Provider: provider, Registry: registry}, nil
}

// Shutdown flushes and stops anything Init started.
func (p *Provider) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, fn := range p.shutdown {
		if err := fn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newLogger(cfg Config) *slog.Logger {
	var handler slog.Handler
	switch cfg.Environment {
	case "test":
		handler = slog.NewTextHandler(io.Discard, nil)
	case "development":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.Version),
	)
}

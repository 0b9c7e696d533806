// Package router sends searches to the configured backend (the local lite
// engine, a hosted vector database or a managed search API) and falls back
// to the lite engine when a remote backend fails.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/resilience"
)

// Result is the outcome of a routed search.
type Result struct {
	IDs      []int64 `json:"ids"`
	Backend  string  `json:"backend"`
	Fallback bool    `json:"fallback"`
}

type Router struct {
	mode     string
	primary  Provider
	lite     LiteEngine
	fallback bool
	metrics  *metrics.Metrics
}

type Option func(*Router)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithProvider replaces the backend selected from configuration.
func WithProvider(p Provider) Option {
	return func(r *Router) {
		r.primary = p
	}
}

// New builds a Router for cfg.Mode. The lite engine is always required: it
// serves lite mode, fallbacks and the index maintenance endpoints.
func New(cfg config.RouterConfig, engine LiteEngine, opts ...Option) (*Router, error) {
	r := &Router{
		mode:     cfg.Mode,
		lite:     engine,
		fallback: cfg.FallbackToLite,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.primary != nil {
		return r, nil
	}
	switch cfg.Mode {
	case config.ModeLite, "":
		r.mode = config.ModeLite
		r.primary = NewLiteProvider(engine)
	case config.ModeHosted:
		r.primary = NewHTTPProvider(config.ModeHosted, cfg.HostedURL, cfg.Timeout, r.breaker(config.ModeHosted))
	case config.ModeManaged:
		r.primary = NewHTTPProvider(config.ModeManaged, cfg.ManagedURL, cfg.Timeout, r.breaker(config.ModeManaged))
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownMode, cfg.Mode)
	}
	return r, nil
}

func (r *Router) breaker(name string) *resilience.CircuitBreaker {
	cfg := resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
	if r.metrics != nil {
		gauge := r.metrics.CircuitBreakerState
		gauge.WithLabelValues(name).Set(float64(resilience.StateClosed))
		cfg.OnStateChange = func(name string, _, to resilience.State) {
			gauge.WithLabelValues(name).Set(float64(to))
		}
	}
	return resilience.NewCircuitBreaker(name, cfg)
}

// Mode returns the configured backend mode.
func (r *Router) Mode() string {
	return r.mode
}

// Search queries the active backend. When a remote backend fails and
// fallback is enabled the lite engine answers instead.
func (r *Router) Search(ctx context.Context, term string, limit int) (Result, error) {
	ids, err := r.primary.Search(ctx, term, limit)
	if err == nil {
		return Result{IDs: ids, Backend: r.primary.Name()}, nil
	}
	if !r.fallback || r.primary.Name() == "lite" {
		return Result{}, err
	}
	logger.FromContext(ctx).Warn("search backend failed, falling back to lite engine",
		"component", "search-router",
		"backend", r.primary.Name(),
		"error", err,
	)
	if r.metrics != nil {
		r.metrics.RouterFallbacksTotal.WithLabelValues(r.primary.Name()).Inc()
	}
	return Result{
		IDs:      r.lite.Search(ctx, term, limit),
		Backend:  "lite",
		Fallback: true,
	}, nil
}

// IndexStats reports the lite engine's cached index.
func (r *Router) IndexStats(ctx context.Context) lite.IndexStats {
	return r.lite.Stats(ctx)
}

// ForceRebuild rebuilds the lite engine's index.
func (r *Router) ForceRebuild(ctx context.Context) lite.RebuildResult {
	return r.lite.ForceRebuild(ctx)
}

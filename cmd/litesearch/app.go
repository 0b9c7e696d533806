package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog/memory"
	catalogpg "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog/postgres"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/cache"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/router"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/redis"
)

// app holds the wired components shared by every command.
type app struct {
	engine      *lite.Engine
	router      *router.Router
	health      *health.Checker
	metrics     *metrics.Metrics
	closers     []func() error
	sharedCache bool
}

// newApp connects the catalog and cache backends selected by cfg. The
// demo catalog replaces PostgreSQL when demo is set. m may be nil.
func newApp(cfg *config.Config, demo bool, m *metrics.Metrics) (*app, error) {
	a := &app{health: health.NewChecker(), metrics: m}

	provider, err := a.openCatalog(cfg, demo)
	if err != nil {
		a.Close()
		return nil, err
	}
	store, err := a.openCache(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []lite.Option{lite.WithDefaultLimit(cfg.Search.DefaultLimit)}
	var routerOpts []router.Option
	if m != nil {
		opts = append(opts, lite.WithMetrics(m))
		routerOpts = append(routerOpts, router.WithMetrics(m))
	}
	a.engine = lite.New(provider, store, cfg.Lite, opts...)
	a.router, err = router.New(cfg.Router, a.engine, routerOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.health.Register("lite_index", func(ctx context.Context) health.ComponentHealth {
		stats := a.engine.Stats(ctx)
		if !stats.Cached {
			return health.ComponentHealth{Status: health.StatusUp, Message: "index not built yet"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d products, %d terms", stats.IndexedCount, stats.TermCount)}
	})
	return a, nil
}

func (a *app) openCatalog(cfg *config.Config, demo bool) (catalog.Provider, error) {
	if demo || !cfg.Postgres.Enabled {
		slog.Info("using in-memory demo catalog", "products", len(demoProducts()))
		return memory.New(demoProducts()...), nil
	}
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connecting to catalog database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	a.health.Register("postgres", health.Ping(true, db.Ping))
	slog.Info("catalog database connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	return catalogpg.NewProvider(db.DB), nil
}

func (a *app) openCache(cfg *config.Config) (cache.Store, error) {
	if cfg.Lite.CacheBackend == "redis" {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err == nil {
			a.closers = append(a.closers, client.Close)
			a.health.Register("redis", health.Ping(false, client.Ping))
			a.sharedCache = true
			slog.Info("index cache backed by redis", "addr", cfg.Redis.Addr, "ttl", cfg.Lite.CacheTTL)
			return cache.NewRedisStore(client), nil
		}
		slog.Warn("redis unavailable, falling back to in-memory index cache", "error", err)
	}
	mem, err := cache.NewMemoryStore()
	if err != nil {
		return nil, fmt.Errorf("creating index cache: %w", err)
	}
	a.closers = append(a.closers, func() error { mem.Close(); return nil })
	return mem, nil
}

// Close releases backends in reverse order of opening.
func (a *app) Close() error {
	var result error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	a.closers = nil
	return result
}

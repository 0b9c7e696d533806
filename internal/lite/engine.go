// Package lite is the local fallback search engine: a TF-IDF index built
// lazily from the catalog, cached for a fixed lifetime and invalidated when
// the catalog changes.
package lite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/cache"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/index"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/lexicon"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/ranker"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/metrics"
)

// MinQueryLength is the shortest trimmed query, in runes, that is searched.
const MinQueryLength = 2

const defaultSearchLimit = 10

// Rebuild triggers, used as metric labels.
const (
	TriggerLazy      = "lazy"
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// RebuildStats describes a completed rebuild.
type RebuildStats struct {
	IndexedCount int           `json:"indexed_count"`
	TermCount    int           `json:"term_count"`
	Duration     time.Duration `json:"duration"`
}

// RebuildResult is the outcome of ForceRebuild. Failures are reported here
// rather than as errors.
type RebuildResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Stats   RebuildStats `json:"stats"`
}

// IndexStats describes the cached index, if any.
type IndexStats struct {
	IndexedCount int       `json:"indexed_count"`
	TermCount    int       `json:"term_count"`
	LastBuilt    time.Time `json:"last_built"`
	Cached       bool      `json:"cached"`
	Limit        int       `json:"limit"`
}

// Engine serves searches from a lazily built, cached TF-IDF index.
type Engine struct {
	cfg          config.LiteConfig
	lexicon      *lexicon.Lexicon
	builder      *index.Builder
	store        cache.Store
	defaultLimit int
	now          func() time.Time
	group        singleflight.Group
	generation   atomic.Uint64
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for cache expiry, BuiltAt and recency boosts.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics records searches, cache lookups and builds on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithDefaultLimit sets the result count used when a search passes limit <= 0.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// New creates an Engine over provider, caching indexes in store.
func New(provider catalog.Provider, store cache.Store, cfg config.LiteConfig, opts ...Option) *Engine {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 12 * time.Hour
	}
	e := &Engine{
		cfg:          cfg,
		lexicon:      lexicon.New(cfg),
		store:        store,
		defaultLimit: defaultSearchLimit,
		now:          time.Now,
		logger:       slog.Default().With("component", "lite-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.builder = index.NewBuilder(provider, e.lexicon.Tokenizer(),
		index.WithWorkers(cfg.BuildWorkers),
		index.WithClock(e.now),
		index.WithMetrics(e.metrics),
	)
	return e
}

// Limit returns the item limit of the configured index size.
func (e *Engine) Limit() int {
	return e.cfg.Limit()
}

// Search returns up to limit document ids for term, best first. Empty or
// too-short queries, queries without searchable tokens and build failures
// all yield an empty result.
func (e *Engine) Search(ctx context.Context, term string, limit int) []int64 {
	return ranker.IDs(e.SearchScored(ctx, term, limit))
}

// SearchScored is Search with the final scores attached.
func (e *Engine) SearchScored(ctx context.Context, term string, limit int) []ranker.ScoredDoc {
	start := time.Now()
	log := logger.FromContext(ctx).With("component", "lite-engine")

	if utf8.RuneCountInString(strings.TrimSpace(term)) < MinQueryLength {
		e.observeSearch("rejected", start, 0)
		return nil
	}
	idx, err := e.GetOrBuild(ctx)
	if err != nil {
		log.Warn("index unavailable, returning no results", "error", err)
		e.observeSearch("error", start, 0)
		return nil
	}
	tokens := e.lexicon.TokenizeQuery(term)
	if len(tokens) == 0 {
		e.observeSearch("rejected", start, 0)
		return nil
	}
	if limit <= 0 {
		limit = e.defaultLimit
	}
	results := ranker.Rank(idx, tokens, e.now(), limit)

	resultType := "hit"
	if len(results) == 0 {
		resultType = "empty"
	}
	e.observeSearch(resultType, start, len(results))
	log.Debug("lite search",
		"query", term,
		"tokens", len(tokens),
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results
}

// GetOrBuild returns the cached index for the configured size, building and
// caching it on a miss. Concurrent misses share one build, which runs
// detached from any single caller's cancellation; each caller stops waiting
// when its own ctx is done.
func (e *Engine) GetOrBuild(ctx context.Context) (*index.Index, error) {
	limit := e.Limit()
	key := cache.Key(limit)
	if idx, ok := e.lookup(ctx, key); ok {
		e.countCache(true)
		return idx, nil
	}
	e.countCache(false)

	buildCtx := context.WithoutCancel(ctx)
	idx, shared, err := await(ctx, e.group.DoChan(key, func() (interface{}, error) {
		if idx, ok := e.lookup(buildCtx, key); ok {
			return idx, nil
		}
		return e.buildAndSave(buildCtx, key, limit, TriggerLazy)
	}))
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Debug("joined in-flight index build", "key", key)
	}
	return idx, nil
}

// ForceRebuild synchronously rebuilds the index for the configured size and
// replaces the cached entry. It never joins a lazy build that may have
// listed the catalog before the request.
func (e *Engine) ForceRebuild(ctx context.Context) RebuildResult {
	return e.rebuild(ctx, TriggerManual)
}

func (e *Engine) rebuild(ctx context.Context, trigger string) RebuildResult {
	start := time.Now()
	limit := e.Limit()
	key := cache.Key(limit)
	e.generation.Add(1)
	e.group.Forget(key)
	e.group.Forget(forcedKey(key))
	if err := e.store.Invalidate(ctx, key); err != nil {
		e.logger.Warn("clearing index before rebuild failed", "key", key, "error", err)
	}

	buildCtx := context.WithoutCancel(ctx)
	idx, _, err := await(ctx, e.group.DoChan(forcedKey(key), func() (interface{}, error) {
		return e.buildAndSave(buildCtx, key, limit, trigger)
	}))
	if err != nil {
		return RebuildResult{Message: fmt.Sprintf("Index rebuild failed: %v", err)}
	}
	if idx.Empty() {
		return RebuildResult{Message: "No indexable products found; the index is empty."}
	}
	stats := idx.Stats()
	return RebuildResult{
		Success: true,
		Message: fmt.Sprintf("Indexed %d products with %d terms.", stats.IndexedCount, stats.TermCount),
		Stats: RebuildStats{
			IndexedCount: stats.IndexedCount,
			TermCount:    stats.TermCount,
			Duration:     time.Since(start),
		},
	}
}

// Stats describes the cached index for the configured size. It never
// triggers a build.
func (e *Engine) Stats(ctx context.Context) IndexStats {
	limit := e.Limit()
	idx, ok := e.lookup(ctx, cache.Key(limit))
	if !ok {
		return IndexStats{Limit: limit}
	}
	s := idx.Stats()
	return IndexStats{
		IndexedCount: s.IndexedCount,
		TermCount:    s.TermCount,
		LastBuilt:    s.BuiltAt,
		Cached:       true,
		Limit:        limit,
	}
}

// Invalidate drops the cached index of every size preset, so a change in
// the configured size never resurrects an older snapshot. Builds already in
// flight finish for their waiting callers but are not cached, and later
// callers start a fresh build.
func (e *Engine) Invalidate(ctx context.Context) error {
	e.generation.Add(1)
	var result error
	for _, limit := range config.IndexSizeLimits() {
		key := cache.Key(limit)
		e.group.Forget(key)
		e.group.Forget(forcedKey(key))
		if err := e.store.Invalidate(ctx, key); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalidating %s: %w", key, err))
		}
	}
	if result != nil {
		e.logger.Warn("index invalidation incomplete", "error", result)
		return result
	}
	e.logger.Debug("index cache invalidated")
	return nil
}

func (e *Engine) OnItemCreated(ctx context.Context, itemID int64) error {
	return e.onCatalogChange(ctx, "created", itemID)
}

func (e *Engine) OnItemUpdated(ctx context.Context, itemID int64) error {
	return e.onCatalogChange(ctx, "updated", itemID)
}

func (e *Engine) OnItemDeleted(ctx context.Context, itemID int64) error {
	return e.onCatalogChange(ctx, "deleted", itemID)
}

func (e *Engine) onCatalogChange(ctx context.Context, kind string, itemID int64) error {
	if e.metrics != nil {
		e.metrics.CatalogEventsTotal.WithLabelValues(kind).Inc()
	}
	logger.FromContext(ctx).Info("catalog changed, invalidating index",
		"component", "lite-engine",
		"event", kind,
		"item_id", itemID,
	)
	return e.Invalidate(ctx)
}

// StartRebuildLoop forces a rebuild every configured rebuild interval until
// ctx is cancelled.
func (e *Engine) StartRebuildLoop(ctx context.Context) {
	interval := e.cfg.RebuildInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	e.logger.Info("scheduled rebuilds started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("scheduled rebuilds stopped")
			return
		case <-ticker.C:
			res := e.rebuild(ctx, TriggerScheduled)
			if !res.Success {
				e.logger.Warn("scheduled rebuild did not succeed", "message", res.Message)
				continue
			}
			e.logger.Info("scheduled rebuild complete",
				"indexed", res.Stats.IndexedCount,
				"term_count", res.Stats.TermCount,
				"duration_ms", res.Stats.Duration.Milliseconds(),
			)
		}
	}
}

// lookup reads key from the store, treating read failures and entries older
// than the cache lifetime as misses.
func (e *Engine) lookup(ctx context.Context, key string) (*index.Index, bool) {
	idx, err := e.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			e.logger.Warn("index cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	if e.now().Sub(idx.BuiltAt) >= e.cfg.CacheTTL {
		return nil, false
	}
	return idx, true
}

func (e *Engine) save(ctx context.Context, key string, idx *index.Index) {
	ttl := e.cfg.CacheTTL - e.now().Sub(idx.BuiltAt)
	if ttl <= 0 {
		return
	}
	if err := e.store.Set(ctx, key, idx, ttl); err != nil {
		e.logger.Warn("index cache write failed", "key", key, "error", err)
	}
}

// buildAndSave builds the index and caches it unless the catalog changed
// while the build was running.
func (e *Engine) buildAndSave(ctx context.Context, key string, limit int, trigger string) (*index.Index, error) {
	gen := e.generation.Load()
	idx, err := e.build(ctx, limit, trigger)
	if err != nil {
		return nil, err
	}
	if e.generation.Load() != gen {
		e.logger.Debug("catalog changed during build, not caching index", "key", key, "trigger", trigger)
		return idx, nil
	}
	e.save(ctx, key, idx)
	return idx, nil
}

func forcedKey(key string) string {
	return key + ":force"
}

func await(ctx context.Context, ch <-chan singleflight.Result) (*index.Index, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Shared, res.Err
		}
		return res.Val.(*index.Index), res.Shared, nil
	}
}

func (e *Engine) build(ctx context.Context, limit int, trigger string) (*index.Index, error) {
	start := time.Now()
	idx, err := e.builder.Build(ctx, limit)
	if e.metrics != nil {
		status := "success"
		switch {
		case err != nil:
			status = "error"
		case idx.Empty():
			status = "empty"
		}
		e.metrics.IndexRebuildsTotal.WithLabelValues(trigger, status).Inc()
		e.metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			e.metrics.IndexedDocuments.Set(float64(idx.Len()))
			e.metrics.IndexTerms.Set(float64(len(idx.Terms)))
		}
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (e *Engine) countCache(hit bool) {
	if e.metrics == nil {
		return
	}
	if hit {
		e.metrics.IndexCacheHits.Inc()
		return
	}
	e.metrics.IndexCacheMisses.Inc()
}

func (e *Engine) observeSearch(resultType string, start time.Time, count int) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues("lite", resultType).Inc()
	e.metrics.SearchLatency.WithLabelValues("lite").Observe(time.Since(start).Seconds())
	if resultType == "hit" || resultType == "empty" {
		e.metrics.SearchResultsCount.Observe(float64(count))
	}
}

package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/document"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/tracing"
)

// Builder builds indexes from a catalog provider.
type Builder struct {
	provider  catalog.Provider
	tokenizer *tokenizer.Tokenizer
	workers   int
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers sets the size of the extraction pool.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithClock sets the clock used to stamp BuiltAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithMetrics records extraction failures on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// NewBuilder returns a Builder that lists items from provider and tokenizes
// them with tok.
func NewBuilder(provider catalog.Provider, tok *tokenizer.Tokenizer, opts ...Option) *Builder {
	b := &Builder{
		provider:  provider,
		tokenizer: tok,
		workers:   runtime.NumCPU(),
		now:       time.Now,
		logger:    slog.Default().With("component", "index-builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type extraction struct {
	doc    document.Document
	counts map[string]int
	ok     bool
}

// Build lists up to limit items (0 = unbounded) and indexes them. Bounded
// builds only list in-stock items; unbounded builds list every published
// item. Items that fail extraction are logged and skipped. A catalog with
// no indexable items yields an empty index and no error.
func (b *Builder) Build(ctx context.Context, limit int) (*Index, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "index.build")
	defer span.End()
	span.SetAttr("limit", limit)

	listCtx, listSpan := tracing.Start(ctx, "index.list")
	items, err := b.provider.ListIndexableItems(listCtx, limit, limit > 0)
	listSpan.SetAttr("items", len(items))
	listSpan.End()
	if err != nil {
		return nil, fmt.Errorf("listing indexable items: %w", err)
	}

	extractCtx, extractSpan := tracing.Start(ctx, "index.extract")
	results, err := b.extractAll(extractCtx, items)
	extractSpan.End()
	if err != nil {
		return nil, err
	}

	_, weighSpan := tracing.Start(ctx, "index.weigh")
	defer weighSpan.End()

	idx := &Index{
		Documents: make(map[int64]map[string]int, len(results)),
		Terms:     make(map[string]map[int64]float64),
		Metadata:  make(map[int64]document.Document, len(results)),
		Limit:     limit,
		BuiltAt:   b.now(),
	}
	docFreq := make(map[string]int)
	skipped := 0
	for _, r := range results {
		if !r.ok {
			skipped++
			continue
		}
		if _, dup := idx.Metadata[r.doc.ID]; dup {
			continue
		}
		idx.Metadata[r.doc.ID] = r.doc
		idx.Documents[r.doc.ID] = r.counts
		for term := range r.counts {
			docFreq[term]++
		}
	}

	total := float64(len(idx.Metadata))
	for docID, counts := range idx.Documents {
		for term, tf := range counts {
			postings, ok := idx.Terms[term]
			if !ok {
				postings = make(map[int64]float64, docFreq[term])
				idx.Terms[term] = postings
			}
			postings[docID] = float64(tf) * math.Log(total/float64(docFreq[term]))
		}
	}
	idx.Seal()

	if skipped > 0 && b.metrics != nil {
		b.metrics.SkippedItemsTotal.Add(float64(skipped))
	}
	b.logger.Info("index built",
		"limit", limit,
		"listed", len(items),
		"indexed", len(idx.Metadata),
		"skipped", skipped,
		"term_count", len(idx.Terms),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return idx, nil
}

// extractAll extracts and tokenizes items on a worker pool. Results keep
// the provider's order.
func (b *Builder) extractAll(ctx context.Context, items []catalog.Item) ([]extraction, error) {
	results := make([]extraction, len(items))
	if len(items) == 0 {
		return results, nil
	}
	workers := b.workers
	if workers > len(items) {
		workers = len(items)
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p any) {
		b.logger.Error("extraction worker panicked", "panic", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("creating extraction pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			results[i] = b.extract(item)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submitting extraction task: %w", err)
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	return results, nil
}

func (b *Builder) extract(item catalog.Item) extraction {
	ex, err := document.Extract(item)
	if err != nil {
		b.logger.Warn("skipping item", "item_id", safeID(item), "error", err)
		return extraction{}
	}
	counts := make(map[string]int)
	for _, token := range b.tokenizer.Tokenize(ex.Text) {
		counts[token]++
	}
	return extraction{doc: ex.Document, counts: counts, ok: true}
}

func safeID(item catalog.Item) (id int64) {
	defer func() {
		if recover() != nil {
			id = 0
		}
	}()
	return item.ID()
}

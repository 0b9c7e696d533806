// Package memory is an in-process catalog used by tests, benchmarks and the
// demo mode of the CLI.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
)

// Product is a plain catalog record. The *Err fields let tests simulate a
// failing lookup for one item.
type Product struct {
	ProductID     int64
	Title         string
	Sku           string
	Desc          string
	ShortDesc     string
	Brands        []string
	CategoryNames []string
	TagNames      []string
	Attrs         []catalog.Attribute
	Cost          float64
	Stock         catalog.StockStatus
	Created       time.Time
	Draft         bool

	BrandErr     error
	CategoryErr  error
	TagErr       error
	AttributeErr error
}

var _ catalog.Item = (*Product)(nil)

func (p *Product) ID() int64                        { return p.ProductID }
func (p *Product) Name() string                     { return p.Title }
func (p *Product) SKU() string                      { return p.Sku }
func (p *Product) Description() string              { return p.Desc }
func (p *Product) ShortDescription() string         { return p.ShortDesc }
func (p *Product) Price() float64                   { return p.Cost }
func (p *Product) StockStatus() catalog.StockStatus { return p.Stock }
func (p *Product) CreatedAt() time.Time             { return p.Created }

func (p *Product) BrandCandidates() ([]string, error) {
	return p.Brands, p.BrandErr
}

func (p *Product) Categories() ([]string, error) {
	return p.CategoryNames, p.CategoryErr
}

func (p *Product) Tags() ([]string, error) {
	return p.TagNames, p.TagErr
}

func (p *Product) Attributes() ([]catalog.Attribute, error) {
	return p.Attrs, p.AttributeErr
}

// Store is a concurrency-safe in-memory Provider.
type Store struct {
	mu       sync.RWMutex
	products map[int64]*Product
	err      error
}

var _ catalog.Provider = (*Store)(nil)

// New returns a Store seeded with products.
func New(products ...*Product) *Store {
	s := &Store{products: make(map[int64]*Product, len(products))}
	for _, p := range products {
		s.products[p.ProductID] = p
	}
	return s
}

// Put inserts or replaces a product.
func (s *Store) Put(p *Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ProductID] = p
}

// Delete removes a product.
func (s *Store) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// Get returns a product by id.
func (s *Store) Get(id int64) (*Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// Len returns the number of stored products, drafts included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// FailWith makes every subsequent listing fail with err; nil restores it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ListIndexableItems returns published products newest first, ties broken
// by descending id, mirroring the ordering of the SQL provider.
func (s *Store) ListIndexableItems(ctx context.Context, limit int, inStockOnly bool) ([]catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	matched := make([]*Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Draft {
			continue
		}
		if inStockOnly && !p.Stock.InStock() {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Created.Equal(matched[j].Created) {
			return matched[i].Created.After(matched[j].Created)
		}
		return matched[i].ProductID > matched[j].ProductID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	items := make([]catalog.Item, len(matched))
	for i, p := range matched {
		items[i] = p
	}
	return items, nil
}

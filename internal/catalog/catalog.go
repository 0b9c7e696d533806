// Package catalog defines the contract between the search engine and the
// shop's product catalog. The engine never talks to a concrete e-commerce
// platform; any backend that implements Provider can be indexed.
package catalog

import (
	"context"
	"time"
)

// StockStatus is the inventory state of a catalog item.
type StockStatus string

const (
	StockInStock     StockStatus = "instock"
	StockOutOfStock  StockStatus = "outofstock"
	StockOnBackorder StockStatus = "onbackorder"
)

// InStock reports whether the item can be bought right now.
func (s StockStatus) InStock() bool {
	return s == StockInStock
}

// Attribute is a product attribute such as colour or size.
//
// Taxonomy-backed attributes carry their values in Terms; plain attributes
// carry free-form Options of which only the first is searchable.
type Attribute struct {
	Name     string
	Visible  bool
	Taxonomy bool
	Terms    []string
	Options  []string
}

// Item is one catalog product as seen by the indexer. Accessors returning an
// error perform lookups that can fail independently for a single item.
type Item interface {
	ID() int64
	Name() string
	SKU() string
	Description() string
	ShortDescription() string
	// BrandCandidates returns brand values from every brand source, in
	// priority order. Empty values are allowed.
	BrandCandidates() ([]string, error)
	Categories() ([]string, error)
	Tags() ([]string, error)
	Attributes() ([]Attribute, error)
	Price() float64
	StockStatus() StockStatus
	CreatedAt() time.Time
}

// Provider enumerates indexable catalog items.
type Provider interface {
	// ListIndexableItems returns up to limit published items, newest first.
	// A limit of zero means no limit. When inStockOnly is set, items that
	// are not in stock are omitted.
	ListIndexableItems(ctx context.Context, limit int, inStockOnly bool) ([]Item, error)
}

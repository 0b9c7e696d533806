// Package document turns a catalog item into the searchable text and the
// ranking metadata the lite index keeps per product.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/tokenizer"
)

// Document is the per-product metadata used for boosts and display.
type Document struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	SKU         string              `json:"sku"`
	Brand       string              `json:"brand"`
	Categories  []string            `json:"categories"`
	Price       float64             `json:"price"`
	StockStatus catalog.StockStatus `json:"stock_status"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Extracted is the result of extracting one item.
type Extracted struct {
	Text     string
	Document Document
}

// Extract builds the searchable text and metadata for item. A failing brand
// lookup yields an empty brand; a failing category, tag or attribute lookup,
// or a panic inside the item, fails the whole item.
func Extract(item catalog.Item) (ex Extracted, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting item: panic: %v", r)
		}
	}()

	categories, err := item.Categories()
	if err != nil {
		return Extracted{}, fmt.Errorf("loading categories of item %d: %w", item.ID(), err)
	}
	tags, err := item.Tags()
	if err != nil {
		return Extracted{}, fmt.Errorf("loading tags of item %d: %w", item.ID(), err)
	}
	attributes, err := item.Attributes()
	if err != nil {
		return Extracted{}, fmt.Errorf("loading attributes of item %d: %w", item.ID(), err)
	}
	brand := resolveBrand(item)

	parts := make([]string, 0, 5+len(categories)+len(tags)+len(attributes))
	parts = append(parts,
		item.Name(),
		item.SKU(),
		tokenizer.StripHTML(item.Description()),
		tokenizer.StripHTML(item.ShortDescription()),
		brand,
	)
	parts = append(parts, categories...)
	parts = append(parts, tags...)
	parts = append(parts, attributeValues(attributes)...)

	return Extracted{
		Text: strings.Join(parts, " "),
		Document: Document{
			ID:          item.ID(),
			Name:        item.Name(),
			SKU:         item.SKU(),
			Brand:       brand,
			Categories:  categories,
			Price:       item.Price(),
			StockStatus: item.StockStatus(),
			CreatedAt:   item.CreatedAt(),
		},
	}, nil
}

func resolveBrand(item catalog.Item) string {
	candidates, err := item.BrandCandidates()
	if err != nil {
		return ""
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

// attributeValues returns the searchable values of visible attributes:
// every term of a taxonomy attribute, the first option of a plain one.
func attributeValues(attributes []catalog.Attribute) []string {
	var values []string
	for _, attr := range attributes {
		if !attr.Visible {
			continue
		}
		if attr.Taxonomy {
			values = append(values, attr.Terms...)
			continue
		}
		if len(attr.Options) > 0 {
			values = append(values, attr.Options[0])
		}
	}
	return values
}

package document

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog/memory"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/tokenizer"
)

type panicItem struct{ *memory.Product }

func (panicItem) Tags() ([]string, error) { panic("tags table corrupted") }

func TestExtract(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := &memory.Product{
		ProductID:     42,
		Title:         "Trail Runner",
		Sku:           "TR-42",
		Desc:          "<p>Lightweight <b>running</b> shoe</p>",
		ShortDesc:     "Grip &amp; comfort",
		Brands:        []string{"", "  ", " Salomon ", "Other"},
		CategoryNames: []string{"Shoes", "Outdoor"},
		TagNames:      []string{"trail"},
		Attrs: []catalog.Attribute{
			{Name: "Color", Visible: true, Taxonomy: true, Terms: []string{"Blue", "Red"}},
			{Name: "Material", Visible: true, Options: []string{"Mesh", "Rubber"}},
			{Name: "Internal", Visible: false, Options: []string{"secret"}},
		},
		Cost:    99.5,
		Stock:   catalog.StockInStock,
		Created: created,
	}

	ex, err := Extract(item)
	require.NoError(t, err)

	assert.Equal(t, Document{
		ID:          42,
		Name:        "Trail Runner",
		SKU:         "TR-42",
		Brand:       "Salomon",
		Categories:  []string{"Shoes", "Outdoor"},
		Price:       99.5,
		StockStatus: catalog.StockInStock,
		CreatedAt:   created,
	}, ex.Document)

	tokens := tokenizer.New(nil).Tokenize(ex.Text)
	assert.Equal(t, []string{
		"trail", "runner", "tr", "42", "lightweight", "running", "shoe",
		"grip", "comfort", "salomon", "shoes", "outdoor", "trail",
		"blue", "red", "mesh",
	}, tokens)
	assert.NotContains(t, ex.Text, "secret")
	assert.NotContains(t, ex.Text, "Rubber")
}

func TestExtractToleratesBrandFailure(t *testing.T) {
	item := &memory.Product{ProductID: 1, Title: "Lamp", Brands: []string{"Acme"}, BrandErr: errors.New("taxonomy missing")}
	ex, err := Extract(item)
	require.NoError(t, err)
	assert.Empty(t, ex.Document.Brand)
}

func TestExtractFailures(t *testing.T) {
	boom := errors.New("lookup failed")
	tests := []struct {
		name string
		item catalog.Item
	}{
		{"categories", &memory.Product{ProductID: 1, CategoryErr: boom}},
		{"tags", &memory.Product{ProductID: 2, TagErr: boom}},
		{"attributes", &memory.Product{ProductID: 3, AttributeErr: boom}},
		{"panic", panicItem{&memory.Product{ProductID: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.item)
			assert.Error(t, err)
		})
	}
}

package ranker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/document"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/index"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func testIndex() *index.Index {
	old := now.Add(-365 * 24 * time.Hour)
	idx := &index.Index{
		Terms: map[string]map[int64]float64{
			"laptop":     {1: 2.0, 2: 1.0},
			"laptopbag":  {3: 1.0},
			"stand":      {2: 0.5},
			"headphones": {4: 1.0, 5: 1.0},
		},
		Metadata: map[int64]document.Document{
			1: {ID: 1, StockStatus: catalog.StockOutOfStock, CreatedAt: old},
			2: {ID: 2, StockStatus: catalog.StockOutOfStock, CreatedAt: old},
			3: {ID: 3, StockStatus: catalog.StockOutOfStock, CreatedAt: old},
			4: {ID: 4, StockStatus: catalog.StockOutOfStock, CreatedAt: old},
			5: {ID: 5, StockStatus: catalog.StockInStock, CreatedAt: old},
		},
	}
	return idx.Seal()
}

func TestScore(t *testing.T) {
	scores := Score(testIndex(), []string{"laptop"})
	assert.InDelta(t, 2.0, scores[1], 1e-9)
	assert.InDelta(t, 1.0, scores[2], 1e-9)
	assert.InDelta(t, 1.0*6.0/9.0, scores[3], 1e-9)
	assert.NotContains(t, scores, int64(4))
}

func TestRankOrdersByScore(t *testing.T) {
	got := Rank(testIndex(), []string{"laptop"}, now, 0)
	assert.Equal(t, []int64{1, 2, 3}, IDs(got))
	assert.Greater(t, got[1].Score, got[2].Score, "exact match outranks prefix match")
}

func TestRankTruncates(t *testing.T) {
	got := Rank(testIndex(), []string{"laptop"}, now, 2)
	assert.Equal(t, []int64{1, 2}, IDs(got))
}

func TestRankNoMatches(t *testing.T) {
	assert.Empty(t, Rank(testIndex(), []string{"zzz"}, now, 10))
	assert.Empty(t, Rank(testIndex(), nil, now, 10))
}

func TestInStockRanksAboveOutOfStock(t *testing.T) {
	got := Rank(testIndex(), []string{"headphones"}, now, 0)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].DocID)
	assert.InDelta(t, 1.2, got[0].Score, 1e-9)
}

func TestTieBreakByAscendingID(t *testing.T) {
	idx := (&index.Index{
		Terms:    map[string]map[int64]float64{"lamp": {30: 1, 10: 1, 20: 1}},
		Metadata: map[int64]document.Document{10: {ID: 10}, 20: {ID: 20}, 30: {ID: 30}},
	}).Seal()
	for i := 0; i < 20; i++ {
		assert.Equal(t, []int64{10, 20, 30}, IDs(Rank(idx, []string{"lamp"}, now, 0)))
	}
}

func TestBoost(t *testing.T) {
	recent := now.Add(-24 * time.Hour)
	old := now.Add(-60 * 24 * time.Hour)

	tests := []struct {
		name  string
		doc   document.Document
		query string
		want  float64
	}{
		{"no boosts", document.Document{CreatedAt: old}, "sofa", 1.0},
		{"brand", document.Document{Brand: "IKEA", CreatedAt: old}, "ikea sofa", 1.5},
		{"brand diacritics", document.Document{Brand: "Ștefănescu", CreatedAt: old}, "stefanescu", 1.5},
		{"empty brand never matches", document.Document{Brand: "  ", CreatedAt: old}, "sofa", 1.0},
		{"category once", document.Document{Categories: []string{"Sofa", "Sofas", "Living"}, CreatedAt: old}, "sofa living", 1.3},
		{"in stock", document.Document{StockStatus: catalog.StockInStock, CreatedAt: old}, "sofa", 1.2},
		{"backorder is not in stock", document.Document{StockStatus: catalog.StockOnBackorder, CreatedAt: old}, "sofa", 1.0},
		{"recent", document.Document{CreatedAt: recent}, "sofa", 1.1},
		{"unknown creation date", document.Document{}, "sofa", 1.0},
		{
			"all boosts",
			document.Document{Brand: "Ikea", Categories: []string{"sofa"}, StockStatus: catalog.StockInStock, CreatedAt: recent},
			"ikea sofa",
			1.5 * 1.3 * 1.2 * 1.1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Boost(1.0, tt.doc, tt.query, now), 1e-9)
		})
	}
}

func TestQueryText(t *testing.T) {
	assert.Equal(t, "casti headphones", QueryText([]string{"casti", "headphones"}))
}

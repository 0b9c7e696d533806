package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/catalog/memory"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/cache"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/events"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/router"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/errors"
)

const token = "s3cret"

type server struct {
	mux     *http.ServeMux
	catalog *memory.Store
}

func product(id int64, name string) *memory.Product {
	return &memory.Product{
		ProductID: id,
		Title:     name,
		Stock:     catalog.StockInStock,
		Created:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newServer(t *testing.T, search config.SearchConfig, products ...*memory.Product) *server {
	t.Helper()
	store := memory.New(products...)
	mem, err := cache.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(mem.Close)

	engine := lite.New(store, mem, config.LiteConfig{IndexSize: config.IndexSizeMedium, CacheTTL: time.Hour, BuildWorkers: 1})
	r, err := router.New(config.RouterConfig{Mode: config.ModeLite}, engine)
	require.NoError(t, err)

	mux := http.NewServeMux()
	New(r, events.NewLocal(engine), search).Register(mux, token)
	return &server{mux: mux, catalog: store}
}

func (s *server) do(method, target, body string, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if admin {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

var searchCfg = config.SearchConfig{DefaultLimit: 10, MaxResults: 50}

func TestSearch(t *testing.T) {
	s := newServer(t, searchCfg,
		product(1, "Laptop stand"),
		product(2, "Laptop laptop sleeve"),
		product(3, "Desk lamp"),
	)

	rec := s.do(http.MethodGet, "/api/v1/search?q=laptop", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SearchResponse](t, rec)
	assert.Equal(t, SearchResponse{Query: "laptop", Mode: "lite", Backend: "lite", IDs: []int64{2, 1}, Count: 2}, resp)
}

func TestSearchEmptyQueryIsNotAnError(t *testing.T) {
	s := newServer(t, searchCfg, product(1, "Laptop stand"))

	for _, q := range []string{"", "a", "%20%20"} {
		rec := s.do(http.MethodGet, "/api/v1/search?q="+q, "", false)
		require.Equal(t, http.StatusOK, rec.Code, q)
		resp := decode[SearchResponse](t, rec)
		assert.Equal(t, []int64{}, resp.IDs)
		assert.Zero(t, resp.Count)
	}
}

func TestSearchLimit(t *testing.T) {
	s := newServer(t, config.SearchConfig{DefaultLimit: 1, MaxResults: 2},
		product(1, "Red mug"),
		product(2, "Red cup"),
		product(3, "Red plate"),
	)

	assert.Equal(t, 1, decode[SearchResponse](t, s.do(http.MethodGet, "/api/v1/search?q=red", "", false)).Count)
	assert.Equal(t, 2, decode[SearchResponse](t, s.do(http.MethodGet, "/api/v1/search?q=red&limit=99", "", false)).Count)

	for _, bad := range []string{"0", "-3", "ten"} {
		rec := s.do(http.MethodGet, "/api/v1/search?q=red&limit="+bad, "", false)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestIndexStats(t *testing.T) {
	s := newServer(t, searchCfg, product(1, "Laptop stand"))

	stats := decode[lite.IndexStats](t, s.do(http.MethodGet, "/api/v1/index/stats", "", false))
	assert.False(t, stats.Cached)
	assert.Equal(t, 1000, stats.Limit)

	s.do(http.MethodGet, "/api/v1/search?q=laptop", "", false)
	stats = decode[lite.IndexStats](t, s.do(http.MethodGet, "/api/v1/index/stats", "", false))
	assert.True(t, stats.Cached)
	assert.Equal(t, 1, stats.IndexedCount)
}

func TestRebuild(t *testing.T) {
	s := newServer(t, searchCfg, product(1, "Laptop stand"), product(2, "Desk lamp"))

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/index/rebuild", "", false).Code)

	rec := s.do(http.MethodPost, "/api/v1/index/rebuild", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[lite.RebuildResult](t, rec)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Stats.IndexedCount)

	rec = s.do(http.MethodPost, "/api/v1/index/rebuild", "", true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRebuildEmptyCatalog(t *testing.T) {
	s := newServer(t, searchCfg)

	rec := s.do(http.MethodPost, "/api/v1/index/rebuild", "", true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	result := decode[lite.RebuildResult](t, rec)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}

func TestCatalogEventInvalidatesIndex(t *testing.T) {
	s := newServer(t, searchCfg, product(1, "Laptop stand"), product(2, "Laptop sleeve"))
	assert.Equal(t, 2, decode[SearchResponse](t, s.do(http.MethodGet, "/api/v1/search?q=laptop", "", false)).Count)

	s.catalog.Delete(2)
	rec := s.do(http.MethodPost, "/api/v1/catalog/events", `{"type":"deleted","item_id":2}`, true)
	require.Equal(t, http.StatusAccepted, rec.Code)

	resp := decode[SearchResponse](t, s.do(http.MethodGet, "/api/v1/search?q=laptop", "", false))
	assert.Equal(t, []int64{1}, resp.IDs)
}

func TestCatalogEventRejectsBadInput(t *testing.T) {
	s := newServer(t, searchCfg)

	tests := []struct {
		name  string
		body  string
		admin bool
		want  int
	}{
		{"unauthenticated", `{"type":"created","item_id":1}`, false, http.StatusUnauthorized},
		{"malformed", `{"type":`, true, http.StatusBadRequest},
		{"unknown field", `{"type":"created","item_id":1,"extra":true}`, true, http.StatusBadRequest},
		{"unknown type", `{"type":"renamed","item_id":1}`, true, http.StatusBadRequest},
		{"missing id", `{"type":"created"}`, true, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.do(http.MethodPost, "/api/v1/catalog/events", tt.body, tt.admin).Code)
		})
	}
}

type failingSink struct{}

func (failingSink) Publish(context.Context, events.Event) error {
	return errors.New("kafka: leader not available")
}

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, string, int) (router.Result, error) {
	return router.Result{}, apperrors.ErrBackendUnavailable
}
func (failingSearcher) Mode() string                                    { return config.ModeHosted }
func (failingSearcher) IndexStats(context.Context) lite.IndexStats      { return lite.IndexStats{} }
func (failingSearcher) ForceRebuild(context.Context) lite.RebuildResult { return lite.RebuildResult{} }

func TestUpstreamFailures(t *testing.T) {
	mux := http.NewServeMux()
	New(failingSearcher{}, failingSink{}, searchCfg).Register(mux, token)
	s := &server{mux: mux}

	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/api/v1/search?q=sofa", "", false).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodPost, "/api/v1/catalog/events", `{"type":"updated","item_id":4}`, true).Code)
}

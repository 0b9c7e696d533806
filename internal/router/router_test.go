package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/resilience"
)

type stubEngine struct {
	ids      []int64
	searches atomic.Int32
}

func (s *stubEngine) Search(context.Context, string, int) []int64 {
	s.searches.Add(1)
	return s.ids
}

func (s *stubEngine) Stats(context.Context) lite.IndexStats {
	return lite.IndexStats{IndexedCount: 3, Cached: true}
}

func (s *stubEngine) ForceRebuild(context.Context) lite.RebuildResult {
	return lite.RebuildResult{Success: true, Stats: lite.RebuildStats{IndexedCount: 3}}
}

func backend(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "sofa", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestLiteMode(t *testing.T) {
	engine := &stubEngine{ids: []int64{4, 2}}
	r, err := New(config.RouterConfig{Mode: config.ModeLite}, engine)
	require.NoError(t, err)

	res, err := r.Search(context.Background(), "sofa", 5)
	require.NoError(t, err)
	assert.Equal(t, Result{IDs: []int64{4, 2}, Backend: "lite"}, res)
	assert.Equal(t, config.ModeLite, r.Mode())
}

func TestHostedMode(t *testing.T) {
	srv, _ := backend(t, http.StatusOK, `{"ids":[9,8,7]}`)
	engine := &stubEngine{}
	r, err := New(config.RouterConfig{Mode: config.ModeHosted, HostedURL: srv.URL + "/", Timeout: time.Second}, engine)
	require.NoError(t, err)

	res, err := r.Search(context.Background(), "sofa", 5)
	require.NoError(t, err)
	assert.Equal(t, Result{IDs: []int64{9, 8, 7}, Backend: config.ModeHosted}, res)
	assert.Zero(t, engine.searches.Load())
}

func TestFallbackToLite(t *testing.T) {
	srv, _ := backend(t, http.StatusBadGateway, "upstream exploded")
	engine := &stubEngine{ids: []int64{1}}
	m := metrics.New(prometheus.NewRegistry())
	r, err := New(config.RouterConfig{Mode: config.ModeManaged, ManagedURL: srv.URL, Timeout: time.Second, FallbackToLite: true}, engine, WithMetrics(m))
	require.NoError(t, err)

	res, err := r.Search(context.Background(), "sofa", 5)
	require.NoError(t, err)
	assert.Equal(t, Result{IDs: []int64{1}, Backend: "lite", Fallback: true}, res)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RouterFallbacksTotal.WithLabelValues(config.ModeManaged)))
}

func TestNoFallback(t *testing.T) {
	srv, _ := backend(t, http.StatusInternalServerError, "")
	r, err := New(config.RouterConfig{Mode: config.ModeHosted, HostedURL: srv.URL, Timeout: time.Second}, &stubEngine{})
	require.NoError(t, err)

	_, err = r.Search(context.Background(), "sofa", 5)
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
}

func TestBackendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	p := NewHTTPProvider("hosted", srv.URL, 20*time.Millisecond, nil)

	_, err := p.Search(context.Background(), "sofa", 5)
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv, calls := backend(t, http.StatusServiceUnavailable, "")
	m := metrics.New(prometheus.NewRegistry())
	engine := &stubEngine{ids: []int64{1}}
	r, err := New(config.RouterConfig{Mode: config.ModeHosted, HostedURL: srv.URL, Timeout: time.Second, FallbackToLite: true}, engine, WithMetrics(m))
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		res, err := r.Search(context.Background(), "sofa", 5)
		require.NoError(t, err)
		assert.True(t, res.Fallback)
	}
	assert.Equal(t, int32(5), calls.Load(), "open circuit stops calling the backend")
	assert.Equal(t, float64(resilience.StateOpen), testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues(config.ModeHosted)))
}

func TestUnknownMode(t *testing.T) {
	_, err := New(config.RouterConfig{Mode: "quantum"}, &stubEngine{})
	assert.ErrorIs(t, err, apperrors.ErrUnknownMode)
}

func TestIndexMaintenanceGoesToLite(t *testing.T) {
	r, err := New(config.RouterConfig{Mode: config.ModeLite}, &stubEngine{})
	require.NoError(t, err)
	assert.Equal(t, 3, r.IndexStats(context.Background()).IndexedCount)
	assert.True(t, r.ForceRebuild(context.Background()).Success)
}

type downProvider struct{}

func (downProvider) Name() string { return "managed" }

func (downProvider) Search(context.Context, string, int) ([]int64, error) {
	return nil, apperrors.ErrBackendUnavailable
}

func TestWithProviderOverridesMode(t *testing.T) {
	engine := &stubEngine{ids: []int64{3}}
	r, err := New(config.RouterConfig{Mode: config.ModeManaged, FallbackToLite: true}, engine, WithProvider(downProvider{}))
	require.NoError(t, err)

	res, err := r.Search(context.Background(), "sofa", 5)
	require.NoError(t, err)
	assert.Equal(t, Result{IDs: []int64{3}, Backend: "lite", Fallback: true}, res)
	assert.Equal(t, int32(1), engine.searches.Load())
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IndexCacheHits.Inc()
	m.IndexRebuildsTotal.WithLabelValues("forced", "success").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexCacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexRebuildsTotal.WithLabelValues("forced", "success")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// A second registry accepts a fresh set of collectors.
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.IndexedDocuments.Set(42)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lite_index_documents 42")
}

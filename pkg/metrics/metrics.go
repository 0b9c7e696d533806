// Package metrics defines the Prometheus metric collectors used by the search
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   prometheus.Histogram
	IndexCacheHits       prometheus.Counter
	IndexCacheMisses     prometheus.Counter
	IndexRebuildsTotal   *prometheus.CounterVec
	IndexBuildDuration   prometheus.Histogram
	IndexedDocuments     prometheus.Gauge
	IndexTerms           prometheus.Gauge
	SkippedItemsTotal    prometheus.Counter
	CatalogEventsTotal   *prometheus.CounterVec
	RouterFallbacksTotal *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg. Passing nil
// registers with the Prometheus default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by backend and result type (hit, zero_result, rejected).",
			},
			[]string{"backend", "result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search latency in seconds by backend.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"backend"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		IndexCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lite_index_cache_hits_total",
				Help: "Total lite index cache hits.",
			},
		),
		IndexCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lite_index_cache_misses_total",
				Help: "Total lite index cache misses (including read failures).",
			},
		),
		IndexRebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lite_index_builds_total",
				Help: "Total lite index builds by trigger (miss, forced, scheduled) and status.",
			},
			[]string{"trigger", "status"},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lite_index_build_duration_seconds",
				Help:    "Wall-clock duration of lite index builds.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		IndexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lite_index_documents",
				Help: "Documents in the most recently built lite index.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lite_index_terms",
				Help: "Distinct terms in the most recently built lite index.",
			},
		),
		SkippedItemsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lite_index_skipped_items_total",
				Help: "Catalog items skipped during builds because extraction failed.",
			},
		),
		CatalogEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_events_total",
				Help: "Catalog mutation events applied, by type.",
			},
			[]string{"type"},
		),
		RouterFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "router_fallbacks_total",
				Help: "Searches answered by the lite engine after a hosted backend failed.",
			},
			[]string{"backend"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.IndexCacheHits,
		m.IndexCacheMisses,
		m.IndexRebuildsTotal,
		m.IndexBuildDuration,
		m.IndexedDocuments,
		m.IndexTerms,
		m.SkippedItemsTotal,
		m.CatalogEventsTotal,
		m.RouterFallbacksTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler serves the collectors of g in the Prometheus exposition format.
// A nil g serves the default registry.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}

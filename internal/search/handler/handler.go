// Package handler exposes product search and lite index maintenance over
// HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/events"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/router"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/middleware"
)

const maxEventBody = 64 << 10

// Searcher is satisfied by *router.Router.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) (router.Result, error)
	Mode() string
	IndexStats(ctx context.Context) lite.IndexStats
	ForceRebuild(ctx context.Context) lite.RebuildResult
}

// EventSink is satisfied by *events.Publisher and *events.Local.
type EventSink interface {
	Publish(ctx context.Context, ev events.Event) error
}

type SearchResponse struct {
	Query    string  `json:"query"`
	Mode     string  `json:"mode"`
	Backend  string  `json:"backend"`
	Fallback bool    `json:"fallback"`
	IDs      []int64 `json:"ids"`
	Count    int     `json:"count"`
}

type Handler struct {
	searcher     Searcher
	sink         EventSink
	defaultLimit int
	maxResults   int
	rebuildLimit *rate.Limiter
	logger       *slog.Logger
}

func New(searcher Searcher, sink EventSink, cfg config.SearchConfig) *Handler {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	cfg.MaxResults = max(cfg.MaxResults, cfg.DefaultLimit)
	return &Handler{
		searcher:     searcher,
		sink:         sink,
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		rebuildLimit: rate.NewLimiter(rate.Every(time.Minute), 1),
		logger:       logger.WithComponent("search-handler"),
	}
}

// Register mounts the API on mux. Maintenance endpoints require adminToken;
// rebuilds are additionally limited to one per minute.
func (h *Handler) Register(mux *http.ServeMux, adminToken string) {
	admin := middleware.AdminToken(adminToken)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.Handle("POST /api/v1/index/rebuild", admin(middleware.RateLimit(h.rebuildLimit)(http.HandlerFunc(h.Rebuild))))
	mux.Handle("POST /api/v1/catalog/events", admin(http.HandlerFunc(h.CatalogEvent)))
}

// Search answers GET /api/v1/search?q=&limit=. An empty or too-short query
// is not an error: it yields an empty id list.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.fail(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(parsed, h.maxResults)
	}

	result, err := h.searcher.Search(ctx, query, limit)
	if err != nil {
		log.Error("search failed", "query", query, "mode", h.searcher.Mode(), "error", err)
		h.fail(w, err)
		return
	}
	if result.IDs == nil {
		result.IDs = []int64{}
	}

	log.Info("search completed",
		"query", query,
		"backend", result.Backend,
		"fallback", result.Fallback,
		"returned", len(result.IDs),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:    query,
		Mode:     h.searcher.Mode(),
		Backend:  result.Backend,
		Fallback: result.Fallback,
		IDs:      result.IDs,
		Count:    len(result.IDs),
	})
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.searcher.IndexStats(r.Context()))
}

// Rebuild forces a lite index rebuild. A failed rebuild is reported with
// 422 and the result body.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	result := h.searcher.ForceRebuild(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	logger.FromContext(r.Context()).Info("manual index rebuild",
		"success", result.Success,
		"indexed_count", result.Stats.IndexedCount,
		"term_count", result.Stats.TermCount,
	)
	h.writeJSON(w, status, result)
}

// CatalogEvent accepts a catalog mutation webhook and forwards it to the
// event sink.
func (h *Handler) CatalogEvent(w http.ResponseWriter, r *http.Request) {
	var ev events.Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		h.fail(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid event body"))
		return
	}
	if err := ev.Validate(); err != nil {
		h.fail(w, apperrors.New(err, http.StatusBadRequest, err.Error()))
		return
	}
	if err := h.sink.Publish(r.Context(), ev); err != nil {
		logger.FromContext(r.Context()).Error("catalog event not delivered", "type", ev.Type, "item_id", ev.ItemID, "error", err)
		h.fail(w, apperrors.New(err, http.StatusServiceUnavailable, "event not delivered"))
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "type": ev.Type, "item_id": ev.ItemID})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": apperrors.PublicMessage(err)})
}

package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite"
	apperrors "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/resilience"
)

// Provider is one search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, term string, limit int) ([]int64, error)
}

// LiteEngine is the part of *lite.Engine the router uses.
type LiteEngine interface {
	Search(ctx context.Context, term string, limit int) []int64
	Stats(ctx context.Context) lite.IndexStats
	ForceRebuild(ctx context.Context) lite.RebuildResult
}

// LiteProvider answers searches from the local engine. It never fails.
type LiteProvider struct {
	engine LiteEngine
}

func NewLiteProvider(engine LiteEngine) *LiteProvider {
	return &LiteProvider{engine: engine}
}

func (p *LiteProvider) Name() string { return "lite" }

func (p *LiteProvider) Search(ctx context.Context, term string, limit int) ([]int64, error) {
	return p.engine.Search(ctx, term, limit), nil
}

// HTTPProvider queries a remote search backend:
//
//	GET {base}/search?q=<term>&limit=<n>  ->  {"ids": [...]}
//
// Calls go through a circuit breaker and a per-call timeout.
type HTTPProvider struct {
	name    string
	baseURL string
	client  *http.Client
	timeout time.Duration
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

type searchResponse struct {
	IDs []int64 `json:"ids"`
}

func NewHTTPProvider(name, baseURL string, timeout time.Duration, breaker *resilience.CircuitBreaker) *HTTPProvider {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(name, resilience.CircuitBreakerConfig{})
	}
	return &HTTPProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: timeout,
		breaker: breaker,
		logger:  slog.Default().With("component", "search-backend", "backend", name),
	}
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) Search(ctx context.Context, term string, limit int) ([]int64, error) {
	var ids []int64
	err := p.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, p.timeout, p.name+" search", func(ctx context.Context) error {
			var err error
			ids, err = p.do(ctx, term, limit)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrBackendUnavailable, p.name, err)
	}
	return ids, nil
}

func (p *HTTPProvider) do(ctx context.Context, term string, limit int) ([]int64, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("limit", strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling backend: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding backend response: %w", err)
	}
	p.logger.Debug("backend search", "query", term, "results", len(out.IDs))
	if out.IDs == nil {
		out.IDs = []int64{}
	}
	return out.IDs, nil
}

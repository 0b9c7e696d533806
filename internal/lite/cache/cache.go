// Package cache stores built lite indexes between requests. Two backends
// are provided: a process-local ristretto cache and a redis cache shared by
// every replica.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/index"
)

const keyPrefix = "lite:index:"

// ErrMiss is returned by Get when no entry exists for the key.
var ErrMiss = errors.New("cache miss")

// Store holds index snapshots keyed by Key(limit).
type Store interface {
	Get(ctx context.Context, key string) (*index.Index, error)
	Set(ctx context.Context, key string, idx *index.Index, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Key returns the cache key of the index built for limit.
func Key(limit int) string {
	return fmt.Sprintf("%slimit=%d", keyPrefix, limit)
}

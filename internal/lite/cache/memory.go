package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/index"
)

// maxEntries bounds the local cache; one entry exists per size preset.
const maxEntries = 16

// MemoryStore keeps indexes in process memory. Entries are shared by
// pointer, which is safe because indexes are immutable.
type MemoryStore struct {
	cache *ristretto.Cache[string, *index.Index]
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() (*MemoryStore, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, *index.Index]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating memory index cache: %w", err)
	}
	return &MemoryStore{cache: c}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*index.Index, error) {
	idx, ok := s.cache.Get(key)
	if !ok || idx == nil {
		return nil, ErrMiss
	}
	return idx, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, idx *index.Index, ttl time.Duration) error {
	if !s.cache.SetWithTTL(key, idx, 1, ttl) {
		return fmt.Errorf("memory index cache rejected %s", key)
	}
	s.cache.Wait()
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	s.cache.Del(key)
	return nil
}

// Close stops the cache's background goroutines.
func (s *MemoryStore) Close() {
	s.cache.Close()
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/index"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/redis"
)

// KV is the subset of the redis client the store needs.
type KV interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// RedisStore keeps zstd-compressed JSON indexes in redis so every replica
// serves the same snapshot.
type RedisStore struct {
	client KV
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client KV) *RedisStore {
	return &RedisStore{
		client: client,
		logger: slog.Default().With("component", "index-cache-redis"),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*index.Index, error) {
	data, err := s.client.GetBytes(ctx, key)
	if err != nil {
		if pkgredis.IsMiss(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	idx, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return idx, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, idx *index.Index, ttl time.Duration) error {
	data, err := encode(idx)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.client.SetBytes(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	s.logger.Debug("index stored", "key", key, "bytes", len(data), "ttl", ttl)
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func encode(idx *index.Index) ([]byte, error) {
	raw, err := json.Marshal(idx)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

func decode(data []byte) (*index.Index, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	var idx index.Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, err
	}
	return idx.Seal(), nil
}

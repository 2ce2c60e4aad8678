// Package cache provides the Redis-backed store for aggregated item price
// summaries. Values are JSON-encoded under a single fixed key with a TTL;
// Redis handles expiry eviction.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cached value could not be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// ItemsKey is the fixed key holding the aggregated item price summaries.
const ItemsKey = "items:min-prices"

// Store handles caching operations with a Redis backend.
type Store struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewStore creates a new cache store for the given key and TTL.
func NewStore(redisClient *redis.Client, key string, ttl time.Duration) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		panic("cache key cannot be empty")
	}
	return &Store{
		redis: redisClient,
		key:   key,
		ttl:   ttl,
	}
}

// Get retrieves the cached value and decodes it into v.
// Returns ErrCacheMiss if the key doesn't exist and ErrInvalidEntry if the
// stored value fails to decode.
func (s *Store) Get(ctx context.Context, v any) error {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return fmt.Errorf("redis get: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.Inc()
	return nil
}

// Set stores the JSON encoding of v under the store's key with its TTL.
func (s *Store) Set(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := s.redis.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes the cached value.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

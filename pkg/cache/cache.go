// Package cache is a small JSON-over-Redis cache. A nil or unconnected Store
// is valid: every read misses and every write is a no-op, so callers never
// need to check whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/gpucatalog/pkg/metrics"
)

// Store wraps a Redis client.
type Store struct {
	rdb *redis.Client
}

// Connect dials Redis and verifies the connection with a ping.
// Returns an error so the caller can react (log warning, fall back, or abort).
func Connect(ctx context.Context, addr, password string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// New wraps an existing client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Enabled reports whether the store is backed by Redis.
func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}

	val, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheMisses.Inc()
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheMisses.Inc()
		return false
	}

	metrics.CacheHits.Inc()
	return true
}

// Set stores value in Redis under key for the given TTL.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, key, data, ttl).Err()
}

// Incr bumps an integer counter and returns its new value.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	return s.rdb.Incr(ctx, key).Result()
}

// Int reads an integer counter. A missing key reads as zero.
func (s *Store) Int(ctx context.Context, key string) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	n, err := s.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// Ping checks the connection. A disabled store is always healthy.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Close()
}

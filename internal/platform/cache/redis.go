// Copyright (c) 2026 Readstack. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatchSize is the COUNT hint passed to SCAN during pattern deletes.
const scanBatchSize = 100

// RedisBackend implements [Backend] on a shared Redis instance.
//
// Every key is namespaced under a keyspace prefix so the service can share
// the instance with other tenants, and honor exact per-entry TTLs.
type RedisBackend struct {
	client   *redis.Client
	keyspace string
}

// NewRedisBackend wraps an existing Redis client. All keys are stored under
// the given keyspace prefix.
func NewRedisBackend(client *redis.Client, keyspace string) *RedisBackend {
	return &RedisBackend{client: client, keyspace: keyspace}
}

// Get returns the payload for key.
func (backend *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := backend.client.Get(ctx, backend.keyspace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get: %w", err)
	}
	return value, true, nil
}

// Set stores the payload under key with the exact TTL.
func (backend *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := backend.client.Set(ctx, backend.keyspace+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Delete removes a single key.
func (backend *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := backend.client.Del(ctx, backend.keyspace+key).Err(); err != nil {
		return fmt.Errorf("cache: redis delete: %w", err)
	}
	return nil
}

// DeletePattern removes every key matching the glob pattern.
//
// It walks the keyspace with SCAN instead of KEYS so a large delete cannot
// stall the Redis event loop.
func (backend *RedisBackend) DeletePattern(ctx context.Context, pattern string) (int, error) {
	removed := 0

	iterator := backend.client.Scan(ctx, 0, backend.keyspace+pattern, scanBatchSize).Iterator()
	for iterator.Next(ctx) {
		if err := backend.client.Del(ctx, iterator.Val()).Err(); err != nil {
			return removed, fmt.Errorf("cache: redis pattern delete: %w", err)
		}
		removed++
	}
	if err := iterator.Err(); err != nil {
		return removed, fmt.Errorf("cache: redis scan: %w", err)
	}

	return removed, nil
}

// Close releases the underlying Redis connection pool.
func (backend *RedisBackend) Close() error {
	return backend.client.Close()
}

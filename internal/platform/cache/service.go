// Copyright (c) 2026 Readstack. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"time"
)

// Service is the policy layer over a [Backend].
//
// It owns JSON serialization, the default TTL, and the failure contract:
// a backend error is logged and absorbed, never returned to the caller.
type Service struct {
	backend    Backend
	defaultTTL time.Duration
	logger     *slog.Logger
}

// NewService creates a Service storing entries in backend for defaultTTL
// unless a call overrides it.
func NewService(backend Backend, defaultTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		backend:    backend,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// DefaultTTL returns the TTL applied when a call passes none.
func (service *Service) DefaultTTL() time.Duration { return service.defaultTTL }

// Get loads the payload for key into target. It reports a hit; backend
// failures and undecodable payloads count as misses.
func (service *Service) Get(ctx context.Context, key string, target any) bool {
	payload, found, err := service.backend.Get(ctx, key)
	if err != nil {
		service.logger.Warn("cache_get_failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if !found {
		return false
	}

	if err := json.Unmarshal(payload, target); err != nil {
		// A corrupt entry is dropped so it cannot poison future reads.
		service.logger.Warn("cache_entry_corrupt", slog.String("key", key), slog.Any("error", err))
		_ = service.backend.Delete(ctx, key)
		return false
	}
	return true
}

// Set stores value under key. A non-positive ttl selects the default TTL.
func (service *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = service.defaultTTL
	}

	payload, err := json.Marshal(value)
	if err != nil {
		service.logger.Warn("cache_encode_failed", slog.String("key", key), slog.Any("error", err))
		return
	}

	if err := service.backend.Set(ctx, key, payload, ttl); err != nil {
		service.logger.Warn("cache_set_failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Invalidate removes a single key.
func (service *Service) Invalidate(ctx context.Context, key string) {
	if err := service.backend.Delete(ctx, key); err != nil {
		service.logger.Warn("cache_invalidate_failed", slog.String("key", key), slog.Any("error", err))
	}
}

// InvalidatePattern removes every key matching the glob pattern and returns
// the number of keys removed.
func (service *Service) InvalidatePattern(ctx context.Context, pattern string) int {
	removed, err := service.backend.DeletePattern(ctx, pattern)
	if err != nil {
		service.logger.Warn("cache_invalidate_pattern_failed",
			slog.String("pattern", pattern), slog.Any("error", err))
	}
	return removed
}

// Close releases the underlying backend.
func (service *Service) Close() error { return service.backend.Close() }

// GetOrSet is the read-through primitive: return the cached value for key,
// or compute it with fetch, store it, and return it.
//
// Contract:
//   - fetch runs at most once per call, and only on a miss.
//   - a fetch error is returned as-is and nothing is stored.
//   - a nil fetched value is returned but never stored, so "no result"
//     stays re-checkable.
//   - backend failures degrade to computing fresh values every call.
func GetOrSet[T any](ctx context.Context, service *Service, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	if service.Get(ctx, key, &cached) {
		return cached, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if !isNil(value) {
		service.Set(ctx, key, value, ttl)
	}
	return value, nil
}

// isNil reports whether value is an untyped or typed nil.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return reflected.IsNil()
	default:
		return false
	}
}

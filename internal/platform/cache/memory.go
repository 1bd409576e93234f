// Copyright (c) 2026 Readstack. All rights reserved.

package cache

import (
	"context"
	"path"
	"time"

	"github.com/viccon/sturdyc"
)

// Sizing for the in-process store. Generous for a catalog workload while
// keeping the worst-case memory footprint bounded.
const (
	memoryCapacity           = 10_000
	memoryShards             = 16
	memoryEvictionPercentage = 10
)

// MemoryBackend implements [Backend] on an in-process sturdyc store.
//
// # Trade-off
//
// sturdyc applies one client-wide TTL, so the per-call TTL passed to Set is
// a ceiling, not an exact expiry: entries may expire sooner when the client
// TTL is shorter. This is acceptable for a cache and keeps the backend free
// of per-entry timer bookkeeping.
type MemoryBackend struct {
	client *sturdyc.Client[[]byte]
}

// NewMemoryBackend creates an in-process backend whose entries live at most ttl.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		client: sturdyc.New[[]byte](memoryCapacity, memoryShards, ttl, memoryEvictionPercentage),
	}
}

// Get returns the payload for key.
func (backend *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := backend.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores the payload under key. The per-entry ttl is capped by the
// client-wide TTL configured at construction.
func (backend *MemoryBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	backend.client.Set(key, value)
	return nil
}

// Delete removes a single key.
func (backend *MemoryBackend) Delete(_ context.Context, key string) error {
	backend.client.Delete(key)
	return nil
}

// DeletePattern removes every key matching the glob pattern.
func (backend *MemoryBackend) DeletePattern(_ context.Context, pattern string) (int, error) {
	removed := 0
	for _, key := range backend.client.ScanKeys() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return removed, err
		}
		if matched {
			backend.client.Delete(key)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the in-process store.
func (backend *MemoryBackend) Close() error { return nil }

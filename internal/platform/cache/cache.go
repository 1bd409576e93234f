// Copyright (c) 2026 Readstack. All rights reserved.

/*
Package cache provides the application-wide caching layer.

It separates the caching POLICY (read-through population, key taxonomy,
failure tolerance) from the caching MECHANISM (where the bytes live).

Architecture:

  - Backend: A minimal byte-oriented storage interface with two
    implementations, an in-process sturdyc store and a Redis store.
  - Service: The policy layer used by the rest of the application. It owns
    serialization and degrades to a pass-through when the backend fails.
  - GetOrSet: The read-through primitive. Compute on miss, store, return.

A broken cache must never break a request: every backend error is logged
and treated as a miss (reads) or a no-op (writes).
*/
package cache

import (
	"context"
	"time"
)

// Backend is the minimal storage contract a cache store must satisfy.
//
// Implementations store opaque byte payloads. Serialization happens one
// level up, in [Service], so backends stay interchangeable.
type Backend interface {
	// Get returns the payload for key. The boolean reports a hit; a miss
	// is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the payload under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern (e.g. "ol:isbn:*")
	// and returns the number of keys removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)

	// Close releases backend resources.
	Close() error
}

// Copyright (c) 2026 Readstack. All rights reserved.

package openlibrary

import (
	stdctx "context"
	"time"

	"github.com/readstack/readstack/internal/platform/cache"
	"github.com/readstack/readstack/internal/platform/constants"
)

// Searcher is the lookup surface shared by [Client] and [CachedClient].
type Searcher interface {
	SearchByISBN(ctx stdctx.Context, isbn string) (*Metadata, error)
	SearchByTitleAuthor(ctx stdctx.Context, title, author string) (*Metadata, error)
	Enrich(ctx stdctx.Context, title, author, isbn string) (*Metadata, error)
}

// CachedClient decorates a [Searcher] with read-through caching.
//
// Keys live in dedicated namespaces per lookup kind, so an invalidation can
// target one kind without touching the others. Empty lookups are never
// cached; the miss stays re-checkable on the next request.
type CachedClient struct {
	client Searcher
	cache  *cache.Service
	ttl    time.Duration
}

// NewCachedClient wraps client with caching. A non-positive ttl falls back
// to one hour.
func NewCachedClient(client Searcher, cacheService *cache.Service, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedClient{client: client, cache: cacheService, ttl: ttl}
}

// SearchByISBN caches ISBN lookups under the normalized ISBN.
func (cached *CachedClient) SearchByISBN(context stdctx.Context, isbn string) (*Metadata, error) {
	key := constants.CachePrefixISBN + NormalizeISBN(isbn)

	return cache.GetOrSet(context, cached.cache, key, cached.ttl, func(ctx stdctx.Context) (*Metadata, error) {
		return cached.client.SearchByISBN(ctx, isbn)
	})
}

// SearchByTitleAuthor caches title/author lookups under a digest of the pair.
func (cached *CachedClient) SearchByTitleAuthor(context stdctx.Context, title, author string) (*Metadata, error) {
	key := cache.MakeKey(constants.CachePrefixTitleAuthor, title, author)

	return cache.GetOrSet(context, cached.cache, key, cached.ttl, func(ctx stdctx.Context) (*Metadata, error) {
		return cached.client.SearchByTitleAuthor(ctx, title, author)
	})
}

// Enrich caches the combined lookup under a digest of all three inputs.
func (cached *CachedClient) Enrich(context stdctx.Context, title, author, isbn string) (*Metadata, error) {
	key := cache.MakeKey(constants.CachePrefixEnrich, title, author, isbn)

	return cache.GetOrSet(context, cached.cache, key, cached.ttl, func(ctx stdctx.Context) (*Metadata, error) {
		return cached.client.Enrich(ctx, title, author, isbn)
	})
}

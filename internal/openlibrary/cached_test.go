// Copyright (c) 2026 Readstack. All rights reserved.

package openlibrary_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readstack/readstack/internal/openlibrary"
	"github.com/readstack/readstack/internal/platform/cache"
	"github.com/readstack/readstack/pkg/pointer"
)

// countingSearcher records call counts per lookup path.
type countingSearcher struct {
	isbnCalls        int
	titleAuthorCalls int
	enrichCalls      int
	result           *openlibrary.Metadata
	err              error
}

func (searcher *countingSearcher) SearchByISBN(context.Context, string) (*openlibrary.Metadata, error) {
	searcher.isbnCalls++
	return searcher.result, searcher.err
}

func (searcher *countingSearcher) SearchByTitleAuthor(context.Context, string, string) (*openlibrary.Metadata, error) {
	searcher.titleAuthorCalls++
	return searcher.result, searcher.err
}

func (searcher *countingSearcher) Enrich(context.Context, string, string, string) (*openlibrary.Metadata, error) {
	searcher.enrichCalls++
	return searcher.result, searcher.err
}

func newCachedClient(t *testing.T, searcher *countingSearcher) *openlibrary.CachedClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cacheService := cache.NewService(cache.NewMemoryBackend(time.Minute), time.Minute, logger)
	return openlibrary.NewCachedClient(searcher, cacheService, time.Minute)
}

/*
TestCachedClient_EnrichHitsCacheOnRepeat verifies that identical enrichment
lookups reach the upstream client only once.
*/
func TestCachedClient_EnrichHitsCacheOnRepeat(t *testing.T) {
	ctx := context.Background()
	searcher := &countingSearcher{result: &openlibrary.Metadata{Publisher: pointer.To("Acme")}}
	cached := newCachedClient(t, searcher)

	// 1. First lookup goes upstream
	first, err := cached.Enrich(ctx, "Dune", "Frank Herbert", "9780441013593")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, searcher.enrichCalls)

	// 2. Second identical lookup is served from cache
	second, err := cached.Enrich(ctx, "Dune", "Frank Herbert", "9780441013593")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "Acme", *second.Publisher)
	assert.Equal(t, 1, searcher.enrichCalls)

	// 3. A different book is a separate cache entry
	_, err = cached.Enrich(ctx, "Hyperion", "Dan Simmons", "")
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.enrichCalls)
}

/*
TestCachedClient_ISBNKeyNormalized verifies that formatting variants of the
same ISBN share one cache entry.
*/
func TestCachedClient_ISBNKeyNormalized(t *testing.T) {
	ctx := context.Background()
	searcher := &countingSearcher{result: &openlibrary.Metadata{Language: pointer.To("eng")}}
	cached := newCachedClient(t, searcher)

	_, err := cached.SearchByISBN(ctx, "978-0441013593")
	require.NoError(t, err)

	_, err = cached.SearchByISBN(ctx, "9780441013593")
	require.NoError(t, err)
	assert.Equal(t, 1, searcher.isbnCalls)
}

/*
TestCachedClient_MissesNotCached verifies that a nil upstream result is
passed through without being stored, so later lookups retry upstream.
*/
func TestCachedClient_MissesNotCached(t *testing.T) {
	ctx := context.Background()
	searcher := &countingSearcher{result: nil}
	cached := newCachedClient(t, searcher)

	metadata, err := cached.SearchByTitleAuthor(ctx, "Unknown", "Nobody")
	require.NoError(t, err)
	assert.Nil(t, metadata)

	_, err = cached.SearchByTitleAuthor(ctx, "Unknown", "Nobody")
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.titleAuthorCalls)
}

/*
TestCachedClient_SeparateNamespaces verifies that ISBN and title/author
lookups never collide in the cache.
*/
func TestCachedClient_SeparateNamespaces(t *testing.T) {
	ctx := context.Background()
	searcher := &countingSearcher{result: &openlibrary.Metadata{}}
	cached := newCachedClient(t, searcher)

	_, err := cached.SearchByISBN(ctx, "9780441013593")
	require.NoError(t, err)

	_, err = cached.SearchByTitleAuthor(ctx, "9780441013593", "")
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.isbnCalls)
	assert.Equal(t, 1, searcher.titleAuthorCalls)
}

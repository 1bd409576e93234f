// Copyright (c) 2026 Readstack. All rights reserved.

/*
Package clients manages the application's external API clients.

It constructs clients lazily on first use, shares one instance per process,
and offers a single Close for graceful shutdown.

Core Responsibilities:

  - Lifecycle: One construction point, one teardown point.
  - Composition: Wraps raw clients in their caching decorators so callers
    always get the cached variant.
*/
package clients

import (
	"log/slog"
	"sync"
	"time"

	"github.com/readstack/readstack/internal/openlibrary"
	"github.com/readstack/readstack/internal/platform/cache"
)

// Manager owns the process-wide external clients.
type Manager struct {
	config openlibrary.Config
	cache  *cache.Service
	ttl    time.Duration
	logger *slog.Logger

	once        sync.Once
	base        *openlibrary.Client
	openLibrary *openlibrary.CachedClient
}

// NewManager prepares a Manager. No client is built until first use.
func NewManager(config openlibrary.Config, cacheService *cache.Service, enrichmentTTL time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		config: config,
		cache:  cacheService,
		ttl:    enrichmentTTL,
		logger: logger,
	}
}

// OpenLibrary returns the shared cached Open Library client, building it on
// the first call.
func (manager *Manager) OpenLibrary() *openlibrary.CachedClient {
	manager.once.Do(func() {
		manager.base = openlibrary.NewClient(manager.config, manager.logger)
		manager.openLibrary = openlibrary.NewCachedClient(manager.base, manager.cache, manager.ttl)
	})
	return manager.openLibrary
}

// Close tears down every client that was actually built.
func (manager *Manager) Close() {
	if manager.base != nil {
		manager.base.Close()
	}
}

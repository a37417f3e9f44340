package cache

import (
	"sync"
	"time"

	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/infrastructure/dataset"
)

// CachedTable pairs a loaded listings table with its source identity
type CachedTable struct {
	Fingerprint string
	Table       *listing.Table
	Report      *dataset.Report
	LoadedAt    time.Time
}

// TableCache holds loaded tables keyed by source URI. A lookup hits only
// when the stored fingerprint matches the caller's, so a changed source
// always reads as a miss. Entries never expire on their own; staleness
// is handled through fingerprints and explicit invalidation.
type TableCache struct {
	mu      sync.RWMutex
	entries map[string]*CachedTable
}

// NewTableCache creates an empty table cache
func NewTableCache() *TableCache {
	return &TableCache{
		entries: make(map[string]*CachedTable),
	}
}

// Get returns the cached table for uri when its fingerprint matches
func (c *TableCache) Get(uri, fingerprint string) (*CachedTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[uri]
	if !ok || entry.Fingerprint != fingerprint {
		return nil, false
	}
	return entry, true
}

// Peek returns the cached table for uri regardless of fingerprint
func (c *TableCache) Peek(uri string) (*CachedTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[uri]
	return entry, ok
}

// Put stores a loaded table under uri, replacing any previous entry
func (c *TableCache) Put(uri, fingerprint string, table *listing.Table, report *dataset.Report) *CachedTable {
	entry := &CachedTable{
		Fingerprint: fingerprint,
		Table:       table,
		Report:      report,
		LoadedAt:    time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[uri] = entry
	return entry
}

// Invalidate removes the entry for uri. The next lookup misses and the
// caller reloads from the source.
func (c *TableCache) Invalidate(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
}

// Len returns the number of cached tables
func (c *TableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

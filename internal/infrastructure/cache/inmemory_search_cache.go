package cache

import (
	"context"
	"sync"
	"time"

	"github.com/homefinder/backend/internal/domain/shared"
)

// searchEntry is a cached result payload with expiration
type searchEntry struct {
	payload   []byte
	expiresAt time.Time
}

// expired reports whether the entry is past its TTL. A zero expiresAt
// means the entry never expires.
func (e searchEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemorySearchCache implements SearchResultCache with a plain map.
// Suitable for single-instance deployments and as the fallback when
// Redis is unavailable.
type InMemorySearchCache struct {
	mu        sync.RWMutex
	entries   map[string]searchEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySearchCache creates an in-memory result cache and starts
// its cleanup goroutine.
func NewInMemorySearchCache() *InMemorySearchCache {
	c := &InMemorySearchCache{
		entries:  make(map[string]searchEntry),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the payload stored under key, if present and unexpired
func (c *InMemorySearchCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, false, nil
	}
	return e.payload, true, nil
}

// Set stores a copy of payload under key. A zero TTL keeps the entry
// until the cache is closed.
func (c *InMemorySearchCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = searchEntry{payload: stored, expiresAt: expiresAt}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemorySearchCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemorySearchCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemorySearchCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemorySearchCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemorySearchCache implements SearchResultCache
var _ shared.SearchResultCache = (*InMemorySearchCache)(nil)

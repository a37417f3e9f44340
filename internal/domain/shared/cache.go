package shared

import (
	"context"
	"time"
)

// SearchResultCache stores serialized recommendation results keyed by
// dataset fingerprint plus canonical criteria. Implementations live in
// infrastructure (Redis, in-memory).
type SearchResultCache interface {
	// Get returns the cached payload for key. The second return value
	// reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores payload under key with the given TTL. A zero TTL means
	// the entry does not expire.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Close releases resources held by the cache
	Close() error
}

// SearchCacheConfig holds result-cache behavior settings
type SearchCacheConfig struct {
	// TTL is how long a cached result stays valid
	TTL time.Duration
	// Enabled toggles result caching
	Enabled bool
}

// DefaultSearchCacheConfig returns the default cache settings
func DefaultSearchCacheConfig() SearchCacheConfig {
	return SearchCacheConfig{
		TTL:     5 * time.Minute,
		Enabled: true,
	}
}

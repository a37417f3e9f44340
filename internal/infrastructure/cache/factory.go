package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/homefinder/backend/internal/domain/shared"
)

// SearchCacheFactory creates search-result caches based on configuration
type SearchCacheFactory struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SearchCacheFactoryOption is a functional option for configuring the factory
type SearchCacheFactoryOption func(*SearchCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SearchCacheFactoryOption {
	return func(f *SearchCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) SearchCacheFactoryOption {
	return func(f *SearchCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSearchCacheFactory creates a new factory
func NewSearchCacheFactory(opts ...SearchCacheFactoryOption) *SearchCacheFactory {
	f := &SearchCacheFactory{
		logger:                zap.NewNop(),
		allowInMemoryFallback: true, // Default to allowing fallback
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed search result cache
func (f *SearchCacheFactory) CreateRedisCache(cfg RedisConfig) (shared.SearchResultCache, error) {
	store, err := NewRedisSearchCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis search cache: %w", err)
	}

	return store, nil
}

// CreateInMemoryCache creates an in-memory search result cache
// This is suitable for single-instance deployments and testing
// WARNING: In-memory caches do not share state across process instances,
// so each instance recomputes results independently in distributed deployments
func (f *SearchCacheFactory) CreateInMemoryCache() shared.SearchResultCache {
	return NewInMemorySearchCache()
}

// CreateCache creates a search result cache based on whether Redis is available
// It tries to create a Redis cache first, and falls back to in-memory if Redis is not available
// and AllowInMemoryFallback is true. A nil cfg skips Redis entirely.
func (f *SearchCacheFactory) CreateCache(cfg *RedisConfig) (shared.SearchResultCache, error) {
	if cfg == nil {
		f.logger.Info("using in-memory search result cache")
		return f.CreateInMemoryCache(), nil
	}

	// Try Redis first
	store, err := f.CreateRedisCache(*cfg)
	if err == nil {
		f.logger.Info("using Redis search result cache",
			zap.String("addr", cfg.Addr()),
			zap.Int("db", cfg.DB),
		)
		return store, nil
	}

	// Check if fallback is allowed
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for search cache but unavailable: %w", err)
	}

	// Fall back to in-memory with warning
	f.logger.Warn("Redis unavailable, falling back to in-memory search result cache. "+
		"Cached results will not be shared across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/homefinder/backend/internal/domain/shared"
)

// defaultSearchKeyPrefix namespaces result keys in a shared Redis
const defaultSearchKeyPrefix = "search:results:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address for the Redis client
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisSearchCache implements SearchResultCache on Redis. Suitable for
// deployments where multiple instances should share cached results.
type RedisSearchCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSearchCache creates a Redis-backed result cache and verifies
// the connection with a short ping.
func NewRedisSearchCache(cfg RedisConfig) (*RedisSearchCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSearchCache{
		client:    client,
		keyPrefix: defaultSearchKeyPrefix,
	}, nil
}

// NewRedisSearchCacheWithClient creates a cache over an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisSearchCacheWithClient(client *redis.Client, keyPrefix string) *RedisSearchCache {
	if keyPrefix == "" {
		keyPrefix = defaultSearchKeyPrefix
	}
	return &RedisSearchCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the payload stored under key
func (c *RedisSearchCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached result: %w", err)
	}
	return payload, true, nil
}

// Set stores payload under key with the given TTL. A zero TTL stores
// the entry without expiration.
func (c *RedisSearchCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisSearchCache) Close() error {
	return c.client.Close()
}

// Ensure RedisSearchCache implements SearchResultCache
var _ shared.SearchResultCache = (*RedisSearchCache)(nil)

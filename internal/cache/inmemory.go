package cache

import (
	"context"
	"strings"
	"time"

	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/ispbilling/ispbilling/internal/logger"
	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache.
// When caching is disabled every read misses and every write is dropped.
type InMemoryCache struct {
	cache   *goCache.Cache
	enabled bool
	ttl     time.Duration
}

// NewInMemoryCache creates a cache sized by the cache section of cfg
func NewInMemoryCache(cfg *config.Configuration, log *logger.Logger) Cache {
	expiration := cfg.Cache.Expiration
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	cleanup := cfg.Cache.Cleanup
	if cleanup <= 0 {
		cleanup = DefaultCleanupInterval
	}

	log.Infow("initializing in-memory cache",
		"enabled", cfg.Cache.Enabled,
		"expiration", expiration.String(),
	)

	return &InMemoryCache{
		cache:   goCache.New(expiration, cleanup),
		enabled: cfg.Cache.Enabled,
		ttl:     expiration,
	}
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	if !c.enabled {
		return nil, false
	}
	span := startSpan(ctx, "get", key)
	value, found := c.cache.Get(key)
	finishLookup(span, found)
	return value, found
}

// Set adds a value to the cache with the specified expiration.
// A zero expiration uses the configured default.
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if !c.enabled {
		return
	}
	if expiration == 0 {
		expiration = c.ttl
	}
	span := startSpan(ctx, "put", key)
	c.cache.Set(key, value, expiration)
	finishSpan(span)
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(ctx context.Context, key string) {
	if !c.enabled {
		return
	}
	span := startSpan(ctx, "remove", key)
	c.cache.Delete(key)
	finishSpan(span)
}

// DeleteByPrefix removes all keys with the given prefix
func (c *InMemoryCache) DeleteByPrefix(ctx context.Context, prefix string) {
	if !c.enabled {
		return
	}
	span := startSpan(ctx, "remove", prefix+"*")
	defer finishSpan(span)
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

// Flush removes all items from the cache
func (c *InMemoryCache) Flush(_ context.Context) {
	c.cache.Flush()
}

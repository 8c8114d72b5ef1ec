package cache

import (
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-process caching without expiry
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value unless the key is already present
func (c *MemoryCache) Set(key string, value []byte) error {
	// Add fails on existing keys, which is the write-once contract.
	_ = c.cache.Add(key, value, gocache.NoExpiration)
	return nil
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

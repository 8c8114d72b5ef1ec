package cache

// LayeredCache implements a multi-layer cache (memory + disk)
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a new layered cache over diskDir
func NewLayeredCache(diskDir string) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(),
		disk:   NewDiskCache(diskDir),
	}
}

// Get retrieves a value from the cache (checks memory first, then disk)
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		// Promote to memory cache
		_ = c.memory.Set(key, val)
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers, disk first so memory never holds
// an entry that failed to persist.
func (c *LayeredCache) Set(key string, value []byte) error {
	if err := c.disk.Set(key, value); err != nil {
		return err
	}
	return c.memory.Set(key, value)
}

package assets

import "sync"

// Cache keeps loaded file contents in memory up to a byte budget. Once the
// budget is reached new entries are not stored; existing ones stay.
type Cache struct {
	data     map[string][]byte
	size     int64
	maxBytes int64 // 0 means unbounded
	mu       sync.Mutex

	hits   int
	misses int
}

// NewCache creates an unbounded cache.
func NewCache() *Cache {
	return NewCacheWithLimit(0)
}

// NewCacheWithLimit creates a cache holding at most maxBytes of data.
func NewCacheWithLimit(maxBytes int64) *Cache {
	return &Cache{
		data:     make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item unless it would exceed the budget.
func (c *Cache) Set(key string, data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := c.size - int64(len(c.data[key])) + int64(len(data))
	if c.maxBytes > 0 && size > c.maxBytes {
		return false
	}
	c.data[key] = data
	c.size = size
	return true
}

// Size returns the number of cached bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Clear drops all entries and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.size = 0
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

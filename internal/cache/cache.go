package cache

import (
	"sync"
	"time"
)

// Entry holds a cached value with expiration
type Entry struct {
	Value      string
	Expiration time.Time
}

// TTLCache is a thread-safe in-memory cache with TTL. It backs the CSRF state
// store and the connections cache when Redis is not configured.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]Entry
}

// NewTTLCache creates a new cache instance
func NewTTLCache() *TTLCache {
	return &TTLCache{
		items: make(map[string]Entry),
	}
}

// Get retrieves a value from cache if it exists and hasn't expired
func (c *TTLCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.items[key]
	if !exists {
		return "", false
	}

	if time.Now().After(entry.Expiration) {
		return "", false
	}

	return entry.Value, true
}

// GetDel retrieves a value and removes it in one step, so a key can only be
// consumed once.
func (c *TTLCache) GetDel(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		return "", false
	}
	delete(c.items, key)

	if time.Now().After(entry.Expiration) {
		return "", false
	}

	return entry.Value, true
}

// Set stores a value in cache with the given TTL
func (c *TTLCache) Set(key string, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Entry{
		Value:      value,
		Expiration: time.Now().Add(ttl),
	}
}

// Delete removes a key from cache
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all entries from cache
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]Entry)
}

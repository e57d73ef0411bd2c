package cache

import (
	"sync"
	"time"
)

// sweepEvery bounds how often Set scans for expired entries
const sweepEvery = time.Minute

// entry represents a cached value with expiration
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a small in-memory cache with per-entry TTL
type Cache[V any] struct {
	mu        sync.RWMutex
	items     map[string]entry[V]
	now       func() time.Time
	nextSweep time.Time
}

// New creates a new cache
func New[V any]() *Cache[V] {
	return &Cache[V]{items: map[string]entry[V]{}, now: time.Now}
}

// Set stores a value in the cache with a given TTL and evicts expired entries
// at most once per sweepEvery
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if !now.Before(c.nextSweep) {
		for k, e := range c.items {
			if now.After(e.expiresAt) {
				delete(c.items, k)
			}
		}
		c.nextSweep = now.Add(sweepEvery)
	}
	c.items[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
}

// Get retrieves a value from the cache if it hasn't expired
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero V
	e, exists := c.items[key]
	if !exists || c.now().After(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Errors are not cached.
func (c *Cache[V]) GetOrLoad(key string, ttl time.Duration, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

// Delete removes a key from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

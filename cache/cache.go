// Package cache provides a small in-memory TTL cache used to avoid
// re-probing recently validated URLs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// entry holds a cached value with its creation timestamp.
type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is a simple in-memory cache. It is safe for concurrent use.
type Cache[V any] struct {
	mu         sync.RWMutex
	store      map[string]*entry[V]
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache holding at most maxEntries values, each valid for ttl.
// A background goroutine runs every 5 minutes to evict expired entries.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		store:      make(map[string]*entry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
	}

	go c.cleanupLoop()
	return c
}

// Key hashes the parts into a stable cache key.
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("|"))
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached value if it exists and has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if time.Since(e.createdAt) > c.ttl {
		return zero, false
	}
	return e.value, true
}

// Set stores a value. If the cache is at capacity, a random entry is evicted
// to make room (map iteration is random in Go).
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry[V]{
		value:     value,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Cache[V]) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}

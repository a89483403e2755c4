// Package cache provides the small TTL caches shared across requests: the
// rendered robots.txt text, rendered sitemap documents and the attachment
// URL map used by image extraction.
package cache

import (
	"sync"
	"time"
)

// Cache is a read-through, whole-value cache with per-entry expiry.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Flush()
}

type item[V any] struct {
	value   V
	expires time.Time
}

func (it item[V]) valid(now time.Time) bool {
	return it.expires.IsZero() || now.Before(it.expires)
}

// Memory is an in-memory Cache guarded by a RWMutex. Writes replace the
// whole value for a key; expired entries are dropped lazily on read.
type Memory[V any] struct {
	mu    sync.RWMutex
	items map[string]item[V]
	now   func() time.Time
}

// NewMemory creates an empty Memory cache.
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{items: make(map[string]item[V]), now: time.Now}
}

// Get returns the value stored under key if it has not expired.
// It tries a read lock first and only takes the write lock to evict.
func (c *Memory[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	now := c.now()
	c.mu.RUnlock()
	if ok && it.valid(now) {
		return it.value, true
	}

	var zero V
	if !ok {
		return zero, false
	}
	c.mu.Lock()
	if cur, still := c.items[key]; still && !cur.valid(c.now()) {
		delete(c.items, key)
	}
	c.mu.Unlock()
	return zero, false
}

// Set stores value under key. A ttl <= 0 never expires.
func (c *Memory[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := item[V]{value: value}
	if ttl > 0 {
		it.expires = c.now().Add(ttl)
	}
	c.items[key] = it
}

// Delete removes key.
func (c *Memory[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Flush clears the cache so the next read triggers a fresh load.
func (c *Memory[V]) Flush() {
	c.mu.Lock()
	c.items = make(map[string]item[V])
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Memory[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Package cache holds the process-local rewrite cache
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// InMemoryCache is a TTL cache safe for concurrent use. With a positive
// maxEntries the least recently used entry is evicted on overflow.
type InMemoryCache struct {
	lru      *expirable.LRU[string, cacheItem]
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache(maxEntries int) *InMemoryCache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	cache := &InMemoryCache{
		// ttl is per entry, so the LRU itself never expires anything
		lru:  expirable.NewLRU[string, cacheItem](maxEntries, nil, 0),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	// Start cleanup goroutine
	go cache.cleanupExpired(time.Minute)

	return cache
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	item, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(item.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return item.value, true
}

// Set stores a value in cache with TTL in seconds
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	c.lru.Add(key, cacheItem{
		value:     value,
		expiresAt: c.now().Add(time.Duration(ttl) * time.Second),
	})
	return nil
}

// Delete removes a value from cache
func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Clear removes all values from cache
func (c *InMemoryCache) Clear(ctx context.Context) error {
	c.lru.Purge()
	return nil
}

// Len counts stored entries, expired ones included until cleanup
func (c *InMemoryCache) Len() int {
	return c.lru.Len()
}

// Close stops the cleanup goroutine
func (c *InMemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanupExpired periodically removes expired items
func (c *InMemoryCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *InMemoryCache) removeExpired() {
	now := c.now()
	for _, key := range c.lru.Keys() {
		if item, ok := c.lru.Peek(key); ok && now.After(item.expiresAt) {
			c.lru.Remove(key)
		}
	}
}

package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache stores resolved tenants keyed by lookup identifier. Implementations
// must be safe for concurrent use. Population races are tolerated: two
// concurrent misses may both fill the cache and the last write wins, which
// is acceptable because entries are idempotent to recompute. Eviction is
// the caller's obligation: every tenant mutation must delete the tenant's
// keys as part of the same operation.
type Cache interface {
	// Get returns the cached tenant for key, or false on miss or expiry.
	Get(ctx context.Context, key string) (*Tenant, bool)

	// Set stores a tenant under key for the given TTL.
	Set(ctx context.Context, key string, t *Tenant, ttl time.Duration)

	// Delete removes the entry for key, if present.
	Delete(ctx context.Context, key string)

	// Close releases resources held by the cache.
	Close() error
}

// DefaultCacheSize bounds the in-memory cache.
const DefaultCacheSize = 1000

type memoryEntry struct {
	tenant    *Tenant
	expiresAt time.Time
}

// memoryCache is the default in-process cache: TTL expiry with LRU
// eviction once the size bound is reached, plus a background sweep for
// entries that expire without being read again.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	order   []string // least recently used first
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

// NewMemoryCache creates an in-memory cache with the default size bound.
func NewMemoryCache() Cache {
	return NewMemoryCacheWithSize(DefaultCacheSize)
}

// NewMemoryCacheWithSize creates an in-memory cache bounded to maxSize
// entries. Non-positive sizes fall back to DefaultCacheSize.
func NewMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	c := &memoryCache{
		entries: make(map[string]memoryEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *memoryCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.unlink(key)
		return nil, false
	}
	c.touch(key)
	return e.tenant, true
}

func (c *memoryCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		if len(c.order) > 0 {
			evict := c.order[0]
			delete(c.entries, evict)
			c.order = c.order[1:]
		}
	}
	c.entries[key] = memoryEntry{tenant: t, expiresAt: time.Now().Add(ttl)}
	c.touch(key)
}

func (c *memoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.unlink(key)
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

func (c *memoryCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *memoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			c.unlink(key)
		}
	}
}

// touch marks the key as most recently used.
func (c *memoryCache) touch(key string) {
	c.unlink(key)
	c.order = append(c.order, key)
}

func (c *memoryCache) unlink(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// noopCache disables caching. Useful in tests and when staleness is
// unacceptable at any window.
type noopCache struct{}

// NewNoopCache creates a cache that never stores anything.
func NewNoopCache() Cache {
	return &noopCache{}
}

func (noopCache) Get(ctx context.Context, key string) (*Tenant, bool)             { return nil, false }
func (noopCache) Set(ctx context.Context, key string, t *Tenant, _ time.Duration) {}
func (noopCache) Delete(ctx context.Context, key string)                          {}
func (noopCache) Close() error                                                    { return nil }

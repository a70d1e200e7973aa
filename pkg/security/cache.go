package security

import (
	"sync"
	"time"
)

// cacheKey identifies one rule evaluation.
type cacheKey struct {
	current string
	target  string
}

// cacheEntry stores the result of a rule evaluation.
// Both grants and denials are cached, including errors.
type cacheEntry struct {
	allowed   bool
	err       error
	expiresAt time.Time // zero means no expiry
}

// Cache stores rule results.
// It is safe for concurrent use from multiple goroutines.
type Cache interface {
	// Get returns (allowed, err, found). If found is false, the entry
	// doesn't exist or is expired.
	Get(current, target string) (allowed bool, err error, ok bool)

	// Set stores a rule result.
	Set(current, target string, allowed bool, err error)
}

// CacheImpl is the default in-memory cache implementation with optional TTL.
// It uses a sync.RWMutex for goroutine safety.
//
// The cache grows unbounded within its TTL window.
type CacheImpl struct {
	mu    sync.RWMutex
	items map[cacheKey]cacheEntry
	ttl   time.Duration // 0 means no expiry
}

// CacheOption configures a Cache.
type CacheOption func(*CacheImpl)

// WithTTL sets the time-to-live for cache entries.
// A TTL of 0 (default) means entries never expire.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CacheImpl) {
		c.ttl = ttl
	}
}

// NewCache creates a new rule cache.
func NewCache(opts ...CacheOption) *CacheImpl {
	c := &CacheImpl{
		items: make(map[cacheKey]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached rule result.
func (c *CacheImpl) Get(current, target string) (bool, error, bool) {
	key := cacheKey{current: current, target: target}

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return false, nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return false, nil, false
	}

	return entry.allowed, entry.err, true
}

// Set stores a rule result in the cache.
func (c *CacheImpl) Set(current, target string, allowed bool, err error) {
	entry := cacheEntry{
		allowed: allowed,
		err:     err,
	}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[cacheKey{current: current, target: target}] = entry
	c.mu.Unlock()
}

// Size returns the number of entries in the cache.
func (c *CacheImpl) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries, e.g. after grants changed.
func (c *CacheImpl) Clear() {
	c.mu.Lock()
	c.items = make(map[cacheKey]cacheEntry)
	c.mu.Unlock()
}

// Ensure CacheImpl implements Cache.
var _ Cache = (*CacheImpl)(nil)

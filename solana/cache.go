package solana

import (
	"sync"
	"time"
)

// accountCache is a small in-memory cache for account lookups with TTL
// support. The chain moves slowly relative to chat traffic, so a short TTL
// keeps replies fresh enough while sparing the RPC node.
type accountCache struct {
	mu         sync.RWMutex
	entries    map[string]*cachedAccountEntry
	maxEntries int
	ttl        time.Duration
}

// cachedAccountEntry is a cached account lookup with expiry
type cachedAccountEntry struct {
	info      *AccountInfo
	expiresAt time.Time
	cachedAt  time.Time
}

// newAccountCache creates an account cache
func newAccountCache(ttl time.Duration, maxEntries int) *accountCache {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &accountCache{
		entries:    make(map[string]*cachedAccountEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get retrieves a lookup from cache if present and not expired
func (c *accountCache) Get(address string) (*AccountInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[address]
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		return nil, false
	}

	return entry.info, true
}

// Set stores a lookup in cache with the configured TTL
func (c *accountCache) Set(address string, info *AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	now := time.Now()
	c.entries[address] = &cachedAccountEntry{
		info:      info,
		expiresAt: now.Add(c.ttl),
		cachedAt:  now,
	}
}

// evictOldest removes the oldest cached entry (by cachedAt time).
// Caller must hold the write lock.
//
// Note: this is O(n) eviction. The cache tracks a handful of addresses, so a
// scan is simpler than maintaining an LRU list.
func (c *accountCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// CleanupExpired removes all expired entries and returns how many were dropped
func (c *accountCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

package engine

import (
	"sync"
	"time"

	"github.com/zombar/aidetect/internal/models"
)

const (
	// DefaultCacheTTL is how long a verdict stays valid.
	DefaultCacheTTL = 30 * time.Minute

	// DefaultCacheSize bounds the number of stored verdicts.
	DefaultCacheSize = 100
)

type cacheEntry struct {
	result   models.AnalysisResult
	storedAt time.Time
}

// resultCache is a content-addressable, bounded, time-expiring store of
// past verdicts keyed by text fingerprint. Eviction is oldest-inserted
// (FIFO, not LRU); expired entries are removed lazily on access. The
// cache is a performance optimization: fingerprint collisions are
// tolerated and never re-verified against the text.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	order   []string
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

func newResultCache(ttl time.Duration, maxSize int) *resultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// get returns a stored verdict if it has not expired. Expired entries
// are deleted on the way out.
func (c *resultCache) get(fingerprint string) (models.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		return models.AnalysisResult{}, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.remove(fingerprint)
		return models.AnalysisResult{}, false
	}
	return entry.result, true
}

// put stores a verdict, evicting the oldest-inserted entry when the
// bound is exceeded.
func (c *resultCache) put(fingerprint string, result models.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[fingerprint]; exists {
		c.remove(fingerprint)
	}
	c.entries[fingerprint] = cacheEntry{result: result, storedAt: c.now()}
	c.order = append(c.order, fingerprint)

	for len(c.entries) > c.maxSize {
		c.remove(c.order[0])
	}
}

// remove deletes an entry and its insertion-order slot. Caller holds the lock.
func (c *resultCache) remove(fingerprint string) {
	delete(c.entries, fingerprint)
	for i, fp := range c.order {
		if fp == fingerprint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// size reports the current entry count.
func (c *resultCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

package finance

import (
	"sync"
	"time"
)

type chartCacheEntry struct {
	createdAt time.Time
	embed     Embed
}

// chartCache keeps recently rendered embeds so repeated submissions of the
// same symbols skip rendering.
type chartCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]chartCacheEntry
	now     func() time.Time
}

func newChartCache(ttl time.Duration) *chartCache {
	return &chartCache{ttl: ttl, entries: map[string]chartCacheEntry{}, now: time.Now}
}

func (c *chartCache) get(key string) (Embed, bool) {
	if c == nil || c.ttl <= 0 {
		return Embed{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return Embed{}, false
	}
	if c.now().After(entry.createdAt.Add(c.ttl)) {
		delete(c.entries, key)
		return Embed{}, false
	}
	return entry.embed, true
}

func (c *chartCache) set(key string, e Embed) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = chartCacheEntry{createdAt: c.now(), embed: e}
	c.mu.Unlock()
}

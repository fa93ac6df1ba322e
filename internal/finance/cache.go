package finance

import (
	"strings"
	"sync"
)

// Cache holds fetched series for the life of the process. There is no
// eviction and no refresh: a cached symbol is a snapshot from its first fetch.
type Cache struct {
	mu     sync.RWMutex
	series map[string]*SymbolSeries
}

func NewCache() *Cache {
	return &Cache{series: map[string]*SymbolSeries{}}
}

func cacheKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (c *Cache) Has(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.series[cacheKey(symbol)]
	return ok
}

// Get returns the cached series or a *NotFoundError.
func (c *Cache) Get(symbol string) (*SymbolSeries, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.series[cacheKey(symbol)]
	if !ok {
		return nil, &NotFoundError{Symbol: cacheKey(symbol)}
	}
	return s, nil
}

// Put stores s under symbol. Empty series are ignored.
func (c *Cache) Put(symbol string, s *SymbolSeries) {
	if s == nil || len(s.Rows) == 0 {
		return
	}
	c.mu.Lock()
	c.series[cacheKey(symbol)] = s
	c.mu.Unlock()
}

// Len is the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.series)
}

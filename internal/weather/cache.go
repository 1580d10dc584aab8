package weather

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/viaseguro/roadrisk/internal/domain"
)

// conditionCache is a thread-safe TTL cache of resolved weather conditions,
// keyed by rounded coordinate. Size is bounded by evicting the oldest entry
// by insertion order; strict LRU ordering is not needed at this scale.
type conditionCache struct {
	ttl        time.Duration
	maxEntries int
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]cacheEntry
	order   []string // insertion order, oldest first
}

type cacheEntry struct {
	condition  domain.WeatherCategory
	station    string
	insertedAt time.Time
}

func newConditionCache(ttl time.Duration, maxEntries int, clock clockwork.Clock) *conditionCache {
	return &conditionCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
		entries:    make(map[string]cacheEntry),
	}
}

func (c *conditionCache) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	if c.clock.Since(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		c.dropFromOrder(key)
		return cacheEntry{}, false
	}
	return e, true
}

// dropFromOrder removes a key's slot from the insertion queue. Entries and
// order must stay in lockstep or capacity eviction picks the wrong victim.
func (c *conditionCache) dropFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *conditionCache) put(key string, condition domain.WeatherCategory, station string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{condition: condition, station: station, insertedAt: c.clock.Now()}

	for len(c.entries) > c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *conditionCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Package cache keeps recent scenario outcomes so the MCP server can answer
// "what did the last run say" without driving the browser again.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/3000Studios/vite-react/internal/scenario"
)

// entry wraps a cached outcome with expiry and insertion order tracking.
type entry struct {
	outcome   *scenario.Outcome
	expiry    time.Time
	insertIdx int64
}

// OutcomeCache holds outcomes keyed by "scenario@baseURL".
// Thread-safe with sync.RWMutex.
type OutcomeCache struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
}

// New creates a new OutcomeCache with the given TTL and max entry count.
func New(ttl time.Duration, maxEntries int) *OutcomeCache {
	return &OutcomeCache{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// MakeKey builds a cache key from a scenario name and base URL.
func MakeKey(scenarioName, baseURL string) string {
	return scenarioName + "@" + strings.TrimRight(baseURL, "/")
}

// Get returns a cached outcome if found and not expired.
func (c *OutcomeCache) Get(key string) (*scenario.Outcome, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiry) {
		// Expired: remove lazily
		c.mu.Lock()
		if e2, ok2 := c.items[key]; ok2 && time.Now().After(e2.expiry) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.outcome, true
}

// Put stores the outcome under its own scenario and base URL.
func (c *OutcomeCache) Put(o *scenario.Outcome) {
	if o == nil {
		return
	}
	c.Set(MakeKey(o.Scenario, o.BaseURL), o)
}

// Set stores an outcome in the cache. Evicts the oldest entry if at capacity.
func (c *OutcomeCache) Set(key string, o *scenario.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{
		outcome:   o,
		expiry:    time.Now().Add(c.ttl),
		insertIdx: c.nextIdx,
	}
	c.nextIdx++

	// If key already exists, update in place (no capacity change)
	if _, exists := c.items[key]; exists {
		c.items[key] = e
		return
	}

	if len(c.items) >= c.maxEntries {
		c.evictOldest()
	}

	c.items[key] = e
}

// Latest returns the most recently stored, unexpired outcome for a scenario
// across all base URLs.
func (c *OutcomeCache) Latest(scenarioName string) (*scenario.Outcome, bool) {
	prefix := scenarioName + "@"
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var best entry
	found := false
	for key, e := range c.items {
		if !strings.HasPrefix(key, prefix) || now.After(e.expiry) {
			continue
		}
		if !found || e.insertIdx > best.insertIdx {
			best = e
			found = true
		}
	}
	return best.outcome, found
}

// InvalidateScenario removes every entry for the named scenario.
func (c *OutcomeCache) InvalidateScenario(scenarioName string) {
	prefix := scenarioName + "@"

	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (c *OutcomeCache) evictOldest() {
	var oldestKey string
	var oldestIdx int64 = -1

	for key, e := range c.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

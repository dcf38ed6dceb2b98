package engine

import (
	"sync"

	"github.com/roach88/craftgraph/internal/craft"
)

// DedupCache answers "what does a + b make" for every pair already in the
// edge log. It is keyed by the canonical unordered pair and never evicts.
type DedupCache struct {
	mu      sync.RWMutex
	results map[craft.Pair]string
}

// NewDedupCache builds the cache by replaying edges in log order. If a pair
// was recorded twice, the first answer wins.
func NewDedupCache(edges []craft.Edge) *DedupCache {
	c := &DedupCache{results: make(map[craft.Pair]string, len(edges))}
	for _, e := range edges {
		c.Insert(craft.NewPair(e.A, e.B), e.Result)
	}
	return c
}

// Lookup returns the recorded result of a + b in either order.
func (c *DedupCache) Lookup(a, b string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[craft.NewPair(a, b)]
	return r, ok
}

// Insert records p = result. Returns false and keeps the old entry when p
// is already known.
func (c *DedupCache) Insert(p craft.Pair, result string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.results[p]; ok {
		return false
	}
	c.results[p] = result
	return true
}

// Len returns the number of cached pairs.
func (c *DedupCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

package genetic

import "sync"

// scoreCache memoizes fitness values by candidate. A candidate, once scored,
// is never re-evaluated for the lifetime of the run. Keys remember their
// insertion order so that ranking over the whole cache is reproducible.
//
// Safe for concurrent use; the parallel executor inserts distinct keys from
// multiple workers during the scoring phase.
type scoreCache[X comparable] struct {
	mu     sync.RWMutex
	values map[X]float64
	order  []X
}

func newScoreCache[X comparable](capacity int) *scoreCache[X] {
	return &scoreCache[X]{
		values: make(map[X]float64, capacity),
		order:  make([]X, 0, capacity),
	}
}

func (c *scoreCache[X]) set(x X, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[x]; !ok {
		c.order = append(c.order, x)
	}
	c.values[x] = score
}

func (c *scoreCache[X]) get(x X) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	score, ok := c.values[x]
	return score, ok
}

func (c *scoreCache[X]) has(x X) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.values[x]
	return ok
}

func (c *scoreCache[X]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// keys returns every cached candidate in insertion order.
func (c *scoreCache[X]) keys() []X {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]X, len(c.order))
	copy(out, c.order)
	return out
}

// snapshot returns a copy of the cache contents.
func (c *scoreCache[X]) snapshot() map[X]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[X]float64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

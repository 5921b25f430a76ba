package proxy

import "sync"

// routeCounter tracks a per-upstream request count for the admin stats
// endpoint (§12.1). A plain mutex-guarded map: the lock is taken once per
// matched request to increment and once per stats request to snapshot.
type routeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newRouteCounter() routeCounter {
	return routeCounter{counts: make(map[string]int64)}
}

func (c *routeCounter) increment(upstream string) {
	if upstream == "" {
		return
	}
	c.mu.Lock()
	c.counts[upstream]++
	c.mu.Unlock()
}

func (c *routeCounter) snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

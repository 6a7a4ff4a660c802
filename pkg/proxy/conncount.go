package proxy

import "sync"

// connCounter is the proxy's one contested structure: a target-URL ->
// live-connection-count map. Pick and Release share a single mutex so
// the min-find-and-increment step is atomic with respect to every
// decrement, matching the "single mutex around read+select+increment"
// design note.
type connCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newConnCounter() *connCounter {
	return &connCounter{counts: map[string]int{}}
}

// Pick selects the candidate target URL with the smallest live count,
// increments it, and returns it. candidates must be non-empty.
func (c *connCounter) Pick(candidates []string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	best := candidates[0]
	bestCount := c.counts[best]
	for _, target := range candidates[1:] {
		if n := c.counts[target]; n < bestCount {
			best, bestCount = target, n
		}
	}
	c.counts[best]++
	return best
}

// Release decrements target's live count. It is the caller's
// responsibility to call this exactly once per successful Pick,
// regardless of how the request terminates (success, transport error,
// or client disconnect).
func (c *connCounter) Release(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[target] > 0 {
		c.counts[target]--
	}
}

// Snapshot returns a point-in-time copy, used only by tests.
func (c *connCounter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

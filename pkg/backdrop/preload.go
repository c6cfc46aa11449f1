package backdrop

import "sync"

// PreloadCache holds at most one ready-to-display backdrop so a swap can
// start without waiting on the network. Every Take invalidates refills that
// were already in flight: a refill must present the generation it started
// under, and results from a superseded generation are dropped rather than
// adopted.
type PreloadCache struct {
	mu   sync.Mutex
	slot *LoadResult
	gen  uint64
}

// NewPreloadCache creates an empty cache.
func NewPreloadCache() *PreloadCache {
	return &PreloadCache{}
}

// Take removes and returns the cached backdrop, if any. The slot is cleared
// before Take returns, and the generation advances so earlier refills cannot
// repopulate it.
func (c *PreloadCache) Take() (*LoadResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	res := c.slot
	c.slot = nil
	return res, res != nil
}

// Generation returns the token a refill must present to Put.
func (c *PreloadCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Put stores res if gen is still current and the slot is empty. It reports
// whether the result was adopted.
func (c *PreloadCache) Put(gen uint64, res *LoadResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.slot != nil {
		return false
	}
	c.slot = res
	return true
}

// Cached reports whether a backdrop is waiting in the slot.
func (c *PreloadCache) Cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot != nil
}

package backdrop

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func preloadResult(src string) *LoadResult {
	return NewLoadResult(uniformImage(4, 4, color.White), nil, "image/png", src, "")
}

func TestPreloadCacheTakeClearsSlot(t *testing.T) {
	c := NewPreloadCache()

	res, ok := c.Take()
	assert.False(t, ok)
	assert.Nil(t, res)

	assert.True(t, c.Put(c.Generation(), preloadResult("one")))
	assert.True(t, c.Cached())

	res, ok = c.Take()
	assert.True(t, ok)
	assert.Equal(t, "one", res.SourceURL)
	assert.False(t, c.Cached(), "the slot must be empty the moment Take returns")

	_, ok = c.Take()
	assert.False(t, ok, "a preloaded result is consumed exactly once")
}

func TestPreloadCacheStaleRefillDropped(t *testing.T) {
	c := NewPreloadCache()

	// A refill starts, then a swap takes the slot before it lands.
	gen := c.Generation()
	c.Take()

	assert.False(t, c.Put(gen, preloadResult("stale")), "a superseded refill must not be adopted")
	assert.False(t, c.Cached())

	// The refill started after the take is adopted.
	assert.True(t, c.Put(c.Generation(), preloadResult("fresh")))
	res, ok := c.Take()
	assert.True(t, ok)
	assert.Equal(t, "fresh", res.SourceURL)
}

func TestPreloadCacheOccupiedSlotWins(t *testing.T) {
	c := NewPreloadCache()
	gen := c.Generation()

	assert.True(t, c.Put(gen, preloadResult("first")))
	assert.False(t, c.Put(gen, preloadResult("second")), "an occupied slot is never overwritten")

	res, _ := c.Take()
	assert.Equal(t, "first", res.SourceURL)
}

package backdrop

import "context"

// Surface is one of the two render layers a backdrop can occupy. The api
// package implements it over connected browser clients; tests implement it
// in memory.
type Surface interface {
	// SetImage stages a backdrop on the surface without changing its
	// visibility.
	SetImage(ctx context.Context, res *LoadResult) error

	// SetVisible starts the surface's fade toward the requested state and
	// returns a channel that closes once the client reports the transition
	// finished. The channel may never close (no client connected,
	// backgrounded tab), so callers race it against a timeout.
	SetVisible(visible bool) <-chan struct{}
}

// ThemeSink receives theme updates derived from the displayed backdrop.
type ThemeSink interface {
	ApplyTone(tone ToneClass)
	ApplyBlur(pixels int)
}

// BufferSlot pairs a surface with its rotation bookkeeping.
type BufferSlot struct {
	Surface    Surface
	CurrentURL string
	Visible    bool
}

// doubleBuffer owns the two render slots. Keeping the primary as an index
// makes "exactly one primary" structural rather than a convention.
type doubleBuffer struct {
	slots   [2]*BufferSlot
	primary int
}

func newDoubleBuffer(front, back Surface) *doubleBuffer {
	db := &doubleBuffer{}
	db.slots[0] = &BufferSlot{Surface: front, Visible: true}
	db.slots[1] = &BufferSlot{Surface: back}
	return db
}

// Primary returns the currently visible slot.
func (b *doubleBuffer) Primary() *BufferSlot {
	return b.slots[b.primary]
}

// Hidden returns the off screen slot the next backdrop is staged on.
func (b *doubleBuffer) Hidden() *BufferSlot {
	return b.slots[1-b.primary]
}

// Swap flips the primary role after a completed crossfade.
func (b *doubleBuffer) Swap() {
	b.slots[b.primary].Visible = false
	b.primary = 1 - b.primary
	b.slots[b.primary].Visible = true
}

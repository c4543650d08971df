package systems

import (
	"math"
	"sync/atomic"
)

// PointerSentinel is the off-surface coordinate stored when the pointer leaves.
const PointerSentinel float32 = -1e4

// PointerBridge hands host pointer coordinates to the frame loop. Host input
// handlers may call Move and Leave from any goroutine; the frame reads the
// latest value once at frame start.
type PointerBridge struct {
	pos       atomic.Uint64 // two packed float32 bit patterns, x high
	transform atomic.Pointer[pointerTransform]
}

type pointerTransform struct {
	offsetX, offsetY float32
	scale            float32
}

// NewPointerBridge creates a bridge with the identity transform and the
// pointer off-surface.
func NewPointerBridge() *PointerBridge {
	b := &PointerBridge{}
	b.transform.Store(&pointerTransform{scale: 1})
	b.Leave()
	return b
}

// SetTransform records the surface's on-screen offset and the factor that
// converts host units into surface pixels.
func (b *PointerBridge) SetTransform(offsetX, offsetY, scale float32) {
	if scale <= 0 || !finite(scale) {
		scale = 1
	}
	b.transform.Store(&pointerTransform{offsetX: offsetX, offsetY: offsetY, scale: scale})
}

// Move records a pointer position in host window coordinates.
func (b *PointerBridge) Move(hostX, hostY float32) {
	t := b.transform.Load()
	x := (hostX - t.offsetX) * t.scale
	y := (hostY - t.offsetY) * t.scale
	if !finite(x) || !finite(y) {
		b.Leave()
		return
	}
	b.store(x, y)
}

// MoveLocal records a position already in surface coordinates.
func (b *PointerBridge) MoveLocal(x, y float32) {
	b.store(x, y)
}

// Leave marks the pointer as off-surface.
func (b *PointerBridge) Leave() {
	b.store(PointerSentinel, PointerSentinel)
}

// Load returns the latest surface-local position and whether it is on-surface.
func (b *PointerBridge) Load() (x, y float32, active bool) {
	v := b.pos.Load()
	x = math.Float32frombits(uint32(v >> 32))
	y = math.Float32frombits(uint32(v))
	return x, y, x > PointerSentinel/2 && y > PointerSentinel/2
}

func (b *PointerBridge) store(x, y float32) {
	b.pos.Store(uint64(math.Float32bits(x))<<32 | uint64(math.Float32bits(y)))
}

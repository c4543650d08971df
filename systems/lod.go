package systems

import (
	"cmp"
	"slices"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
)

// Buckets holds the visible particle indices of one frame split by depth.
// Slices are reused across frames.
type Buckets struct {
	Near    []int32
	Mid     []int32
	Far     []int32
	Visible []bool // indexed by particle, drives edge culling
}

// NewBuckets creates empty buckets.
func NewBuckets() *Buckets {
	return &Buckets{}
}

// Reserve grows the buckets to hold n particles so Classify never allocates.
func (b *Buckets) Reserve(n int) {
	if cap(b.Near) < n {
		b.Near = make([]int32, 0, n)
		b.Mid = make([]int32, 0, n)
		b.Far = make([]int32, 0, n)
	}
	if cap(b.Visible) < n {
		b.Visible = make([]bool, n)
	}
	b.Visible = b.Visible[:n]
	b.Reset()
}

// Reset empties all buckets.
func (b *Buckets) Reset() {
	b.Near = b.Near[:0]
	b.Mid = b.Mid[:0]
	b.Far = b.Far[:0]
	clear(b.Visible)
}

// Count returns the number of visible particles.
func (b *Buckets) Count() int {
	return len(b.Near) + len(b.Mid) + len(b.Far)
}

// Classify culls particles outside the surface plus cull margin, skips
// non-finite particles, and buckets the rest by depth. Near and mid buckets are
// ordered by colour so the renderer can batch draws.
func (b *Buckets) Classify(store *Store, lc config.LODConfig) {
	n := store.Len()
	if len(b.Visible) != n {
		b.Reserve(n)
	} else {
		b.Reset()
	}
	if n == 0 {
		return
	}

	width, height := store.Size()
	margin := float32(lc.CullMargin)
	near := float32(lc.NearDepth)
	far := float32(lc.FarDepth)

	particles := store.Particles
	for i := range particles {
		p := &particles[i]
		if !finite(p.X) || !finite(p.Y) || !finite(p.DrawRadius) || !finite(p.Opacity) {
			continue
		}
		if p.X < -margin || p.X > width+margin || p.Y < -margin || p.Y > height+margin {
			continue
		}
		b.Visible[i] = true
		switch {
		case p.Depth >= near:
			b.Near = append(b.Near, int32(i))
		case p.Depth < far:
			b.Far = append(b.Far, int32(i))
		default:
			b.Mid = append(b.Mid, int32(i))
		}
	}

	byColor := func(x, y int32) int {
		if c := cmp.Compare(components.ColorKey(particles[x].Color), components.ColorKey(particles[y].Color)); c != 0 {
			return c
		}
		return cmp.Compare(x, y)
	}
	slices.SortFunc(b.Near, byColor)
	slices.SortFunc(b.Mid, byColor)
}

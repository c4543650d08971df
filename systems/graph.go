package systems

import (
	"cmp"
	"slices"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
)

// GraphBuilder derives the sparse proximity graph of a store. It runs on
// seed and resize only; edges are not refreshed as particles drift.
type GraphBuilder struct {
	grid *SpatialGrid
}

// NewGraphBuilder creates a builder with an empty grid.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{grid: NewSpatialGrid(0, 0, 1)}
}

// Grid exposes the grid used by the last build.
func (b *GraphBuilder) Grid() *SpatialGrid {
	return b.grid
}

// Build links each source particle to its nearest neighbour within
// MaxDistance and appends the edges to dst[:0]. The result depends only on
// particle positions and cc, so identical snapshots give identical graphs.
func (b *GraphBuilder) Build(store *Store, cc config.ConnectionConfig, dst []components.Connection) []components.Connection {
	dst = dst[:0]
	n := store.Len()
	maxD := float32(cc.MaxDistance)
	if !cc.Enabled || maxD <= 0 || n < 2 {
		return dst
	}
	maxD2 := maxD * maxD
	minW := float32(cc.MinWeight)

	width, height := store.Size()
	b.grid.Resize(width, height, maxD)
	particles := store.Particles
	for i := range particles {
		p := &particles[i]
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		b.grid.Insert(int32(i), p.X, p.Y)
	}

	reach := 0
	if cc.NeighborCells {
		reach = 1
	}
	stride := sourceStride(n, cc.MaxSources)

	for i := 0; i < n; i += stride {
		p := &particles[i]
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		col, row := b.grid.CellOf(p.X, p.Y)

		best := int32(-1)
		bestD2 := maxD2
		for dr := -reach; dr <= reach; dr++ {
			for dc := -reach; dc <= reach; dc++ {
				for _, j := range b.grid.Cell(col+dc, row+dr) {
					if int(j) == i {
						continue
					}
					q := &particles[j]
					dx := q.X - p.X
					dy := q.Y - p.Y
					d2 := dx*dx + dy*dy
					if d2 < bestD2 {
						best = j
						bestD2 = d2
					}
				}
			}
		}
		if best < 0 {
			continue
		}

		w := 1 - bestD2/maxD2
		if w < minW {
			continue
		}
		a, c := int32(i), best
		if c < a {
			a, c = c, a
		}
		dst = append(dst, components.Connection{A: a, B: c, Alpha: w})
	}

	// Mutual nearest pairs appear twice; canonical order makes them adjacent.
	slices.SortFunc(dst, func(x, y components.Connection) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return slices.CompactFunc(dst, func(x, y components.Connection) bool {
		return x.A == y.A && x.B == y.B
	})
}

// sourceStride picks every k-th particle as a source so at most maxSources
// particles are examined. maxSources <= 0 means every particle.
func sourceStride(n, maxSources int) int {
	if maxSources <= 0 || n <= maxSources {
		return 1
	}
	return (n + maxSources - 1) / maxSources
}

// Package systems provides the particle field systems: generation, proximity
// graph, motion, LOD bucketing and frame governing.
package systems

// SpatialGrid buckets particle indices into uniform cells so proximity
// checks only visit nearby particles.
type SpatialGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]int32 // flat grid of index lists
}

// NewSpatialGrid creates a spatial grid covering the given surface size.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	g := &SpatialGrid{}
	g.Resize(width, height, cellSize)
	return g
}

// Resize re-derives the grid dimensions, reusing cell storage where possible.
func (g *SpatialGrid) Resize(width, height, cellSize float32) {
	if cellSize < 1 {
		cellSize = 1
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g.cellSize = cellSize
	g.cols = int(width/cellSize) + 1
	g.rows = int(height/cellSize) + 1

	n := g.cols * g.rows
	if cap(g.cells) >= n {
		g.cells = g.cells[:n]
	} else {
		cells := make([][]int32, n)
		copy(cells, g.cells)
		g.cells = cells
	}
	for i := range g.cells {
		if g.cells[i] == nil {
			g.cells[i] = make([]int32, 0, 8) // pre-allocate small capacity
		}
	}
	g.Clear()
}

// Clear removes all indices from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds a particle index at the given position.
func (g *SpatialGrid) Insert(i int32, x, y float32) {
	col, row := g.CellOf(x, y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], i)
}

// CellOf returns the clamped cell coordinates for a position.
func (g *SpatialGrid) CellOf(x, y float32) (col, row int) {
	col = int(x / g.cellSize)
	row = int(y / g.cellSize)

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// Cell returns the indices stored at (col, row), or nil when out of range.
// The slice is owned by the grid and valid until the next Clear or Insert.
func (g *SpatialGrid) Cell(col, row int) []int32 {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return nil
	}
	return g.cells[row*g.cols+col]
}

// Dims returns the grid size in cells.
func (g *SpatialGrid) Dims() (cols, rows int) {
	return g.cols, g.rows
}

// CellSize returns the cell edge length.
func (g *SpatialGrid) CellSize() float32 {
	return g.cellSize
}

// Occupancy returns the largest number of indices in a single cell.
func (g *SpatialGrid) Occupancy() int {
	m := 0
	for _, c := range g.cells {
		if len(c) > m {
			m = len(c)
		}
	}
	return m
}

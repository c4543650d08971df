// Package termcanvas draws fields into a terminal through tcell, one glyph
// per cell.
package termcanvas

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"
)

// Canvas maps a surface onto the cells of a tcell screen. Translucent colours
// are blended over the last Clear colour since cells have no alpha.
type Canvas struct {
	screen tcell.Screen
	width  float32 // surface size in pixels
	height float32
	cols   int
	rows   int
	cellW  float32
	cellH  float32
	bg     color.RGBA
	bgCol  tcell.Color
}

// New creates a canvas over screen for a width x height surface.
func New(screen tcell.Screen, width, height float32) *Canvas {
	c := &Canvas{screen: screen}
	c.SetSurface(width, height)
	return c
}

// SetSurface updates the surface size and re-reads the screen size.
func (c *Canvas) SetSurface(width, height float32) {
	c.width, c.height = width, height
	c.cols, c.rows = c.screen.Size()
	c.cellW, c.cellH = 1, 1
	if c.cols > 0 && width > 0 {
		c.cellW = width / float32(c.cols)
	}
	if c.rows > 0 && height > 0 {
		c.cellH = height / float32(c.rows)
	}
}

// Cell converts a surface point to a cell. ok is false outside the screen.
func (c *Canvas) Cell(x, y float32) (col, row int, ok bool) {
	if !(x >= 0 && y >= 0) {
		return 0, 0, false
	}
	col = int(x / c.cellW)
	row = int(y / c.cellH)
	return col, row, col < c.cols && row < c.rows
}

func (c *Canvas) Clear(col color.RGBA) {
	c.bg = col
	c.bgCol = tcell.NewRGBColor(int32(col.R), int32(col.G), int32(col.B))
	c.screen.Fill(' ', tcell.StyleDefault.Background(c.bgCol))
}

func (c *Canvas) FillCircle(x, y, r float32, col color.RGBA) {
	cx, cy, ok := c.Cell(x, y)
	if !ok || col.A == 0 {
		return
	}
	var glyph rune
	switch size := r / c.cellW; {
	case size < 0.35:
		glyph = '·'
	case size < 0.7:
		glyph = '•'
	default:
		glyph = '●'
	}
	c.set(cx, cy, glyph, col)
}

func (c *Canvas) FillRect(x, y, w, h float32, col color.RGBA) {
	cx, cy, ok := c.Cell(x+w/2, y+h/2)
	if !ok || col.A == 0 {
		return
	}
	c.set(cx, cy, '.', col)
}

func (c *Canvas) StrokeLine(x0, y0, x1, y1, _ float32, col color.RGBA) {
	if col.A == 0 {
		return
	}
	// Step once per cell along the longer axis.
	dx := (x1 - x0) / c.cellW
	dy := (y1 - y0) / c.cellH
	steps := int(math.Ceil(math.Max(math.Abs(float64(dx)), math.Abs(float64(dy)))))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		cx, cy, ok := c.Cell(x0+(x1-x0)*t, y0+(y1-y0)*t)
		if !ok {
			continue
		}
		c.set(cx, cy, '·', col)
	}
}

// Show flushes the frame to the terminal.
func (c *Canvas) Show() {
	c.screen.Show()
}

func (c *Canvas) set(col, row int, glyph rune, fg color.RGBA) {
	a := uint32(fg.A)
	mix := func(f, b uint8) int32 {
		return int32((uint32(f)*a + uint32(b)*(255-a)) / 255)
	}
	fgCol := tcell.NewRGBColor(mix(fg.R, c.bg.R), mix(fg.G, c.bg.G), mix(fg.B, c.bg.B))
	c.screen.SetContent(col, row, glyph, nil, tcell.StyleDefault.Foreground(fgCol).Background(c.bgCol))
}

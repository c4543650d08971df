// Package ebitencanvas draws fields onto an ebiten image.
package ebitencanvas

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Canvas draws into an ebiten image. Set the target with Use before each
// frame's Draw call.
type Canvas struct {
	dst       *ebiten.Image
	scale     float32
	antialias bool
}

// New creates a canvas that multiplies surface coordinates by scale.
func New(scale float32, antialias bool) *Canvas {
	if scale <= 0 {
		scale = 1
	}
	return &Canvas{scale: scale, antialias: antialias}
}

// Use sets the image the next draw calls target.
func (c *Canvas) Use(dst *ebiten.Image) {
	c.dst = dst
}

// ebiten reads color.RGBA as premultiplied; field colours are straight alpha.
func nrgba(col color.RGBA) color.NRGBA {
	return color.NRGBA{R: col.R, G: col.G, B: col.B, A: col.A}
}

func (c *Canvas) Clear(col color.RGBA) {
	if c.dst == nil {
		return
	}
	c.dst.Fill(nrgba(col))
}

func (c *Canvas) FillCircle(x, y, r float32, col color.RGBA) {
	if c.dst == nil || col.A == 0 {
		return
	}
	s := c.scale
	vector.DrawFilledCircle(c.dst, x*s, y*s, r*s, nrgba(col), c.antialias)
}

func (c *Canvas) FillRect(x, y, w, h float32, col color.RGBA) {
	if c.dst == nil || col.A == 0 {
		return
	}
	s := c.scale
	vector.DrawFilledRect(c.dst, x*s, y*s, w*s, h*s, nrgba(col), c.antialias)
}

func (c *Canvas) StrokeLine(x0, y0, x1, y1, width float32, col color.RGBA) {
	if c.dst == nil || col.A == 0 {
		return
	}
	s := c.scale
	vector.StrokeLine(c.dst, x0*s, y0*s, x1*s, y1*s, width*s, nrgba(col), c.antialias)
}

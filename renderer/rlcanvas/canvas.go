// Package rlcanvas draws fields with raylib. Calls must happen between
// rl.BeginDrawing and rl.EndDrawing on the window thread.
package rlcanvas

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Canvas draws into the current raylib render target.
type Canvas struct {
	scale float32
}

// New creates a canvas that multiplies surface coordinates by scale.
func New(scale float32) *Canvas {
	if scale <= 0 {
		scale = 1
	}
	return &Canvas{scale: scale}
}

// SetScale updates the surface to screen scale factor.
func (c *Canvas) SetScale(scale float32) {
	if scale > 0 {
		c.scale = scale
	}
}

func (c *Canvas) Clear(col color.RGBA) {
	rl.ClearBackground(col)
}

func (c *Canvas) FillCircle(x, y, r float32, col color.RGBA) {
	if col.A == 0 {
		return
	}
	s := c.scale
	rl.DrawCircleV(rl.Vector2{X: x * s, Y: y * s}, r*s, col)
}

func (c *Canvas) FillRect(x, y, w, h float32, col color.RGBA) {
	if col.A == 0 {
		return
	}
	s := c.scale
	rl.DrawRectangleV(rl.Vector2{X: x * s, Y: y * s}, rl.Vector2{X: w * s, Y: h * s}, col)
}

func (c *Canvas) StrokeLine(x0, y0, x1, y1, width float32, col color.RGBA) {
	if col.A == 0 {
		return
	}
	s := c.scale
	rl.DrawLineEx(rl.Vector2{X: x0 * s, Y: y0 * s}, rl.Vector2{X: x1 * s, Y: y1 * s}, width*s, col)
}

func (c *Canvas) BeginAdditive() {
	rl.BeginBlendMode(rl.BlendAdditive)
}

func (c *Canvas) EndAdditive() {
	rl.EndBlendMode()
}

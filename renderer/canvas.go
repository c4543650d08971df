// Package renderer draws particle fields onto a Canvas. Backends for raylib,
// ebiten and terminals live in sub-packages so this package stays free of cgo.
package renderer

import "image/color"

// Canvas is a 2D drawing surface in surface pixels. Colours use straight
// (non-premultiplied) alpha, the same convention as raylib's Color.
type Canvas interface {
	Clear(c color.RGBA)
	FillCircle(x, y, r float32, c color.RGBA)
	FillRect(x, y, w, h float32, c color.RGBA)
	StrokeLine(x0, y0, x1, y1, width float32, c color.RGBA)
}

// Blender is implemented by canvases that support additive blending. Halos
// and streaks are drawn additively when available.
type Blender interface {
	BeginAdditive()
	EndAdditive()
}

// withAlpha scales the colour's alpha by a in [0, 1].
func withAlpha(c color.RGBA, a float32) color.RGBA {
	if a <= 0 {
		c.A = 0
		return c
	}
	if a < 1 {
		c.A = uint8(float32(c.A) * a)
	}
	return c
}

// OpKind identifies a recorded canvas call.
type OpKind uint8

const (
	OpClear OpKind = iota
	OpCircle
	OpRect
	OpLine
	OpBeginAdditive
	OpEndAdditive
)

// Op is one recorded canvas call. Unused coordinates are zero.
type Op struct {
	Kind           OpKind
	X0, Y0, X1, Y1 float32
	Size           float32 // radius, rect width or line width
	Color          color.RGBA
}

// Recorder is an in-memory Canvas. Headless runs draw into it so the render
// path is exercised without a window; tests inspect the recorded calls.
type Recorder struct {
	Ops []Op
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{Ops: make([]Op, 0, 1024)}
}

// Reset drops recorded calls, keeping capacity.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}

func (r *Recorder) Clear(c color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpClear, Color: c})
}

func (r *Recorder) FillCircle(x, y, radius float32, c color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpCircle, X0: x, Y0: y, Size: radius, Color: c})
}

func (r *Recorder) FillRect(x, y, w, h float32, c color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpRect, X0: x, Y0: y, X1: x + w, Y1: y + h, Size: w, Color: c})
}

func (r *Recorder) StrokeLine(x0, y0, x1, y1, width float32, c color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, X0: x0, Y0: y0, X1: x1, Y1: y1, Size: width, Color: c})
}

func (r *Recorder) BeginAdditive() {
	r.Ops = append(r.Ops, Op{Kind: OpBeginAdditive})
}

func (r *Recorder) EndAdditive() {
	r.Ops = append(r.Ops, Op{Kind: OpEndAdditive})
}

// Count returns the number of recorded calls of the given kind.
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for i := range r.Ops {
		if r.Ops[i].Kind == kind {
			n++
		}
	}
	return n
}

// ColorSwitches counts how often consecutive circle fills change RGB. Alpha
// is ignored since it varies per particle.
func (r *Recorder) ColorSwitches() int {
	switches := 0
	var last color.RGBA
	seen := false
	for i := range r.Ops {
		op := &r.Ops[i]
		if op.Kind != OpCircle {
			continue
		}
		c := op.Color
		if !seen || c.R != last.R || c.G != last.G || c.B != last.B {
			switches++
			seen = true
			last = c
		}
	}
	return switches
}

package renderer

import (
	"image/color"
	"math"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
	"github.com/pthm-cable/backdrop/systems"
)

// Frame is the state one Draw call reads. Nothing in it is mutated.
type Frame struct {
	Store   *systems.Store
	Edges   []components.Connection
	Buckets *systems.Buckets
	Streaks *systems.StreakSystem
	Time    float64 // seconds since mount, drives twinkle
}

// DrawStats counts what a Draw call emitted.
type DrawStats struct {
	Edges     int
	Particles int
	Streaks   int
}

// FieldRenderer draws one field: edges, then far, mid and near particles,
// then streaks.
type FieldRenderer struct {
	cfg *config.FieldConfig

	// streakRamp fades from the streak colour at the head into the background.
	streakRamp []color.RGBA
}

// NewFieldRenderer creates a renderer for the given field configuration.
func NewFieldRenderer(cfg *config.FieldConfig) *FieldRenderer {
	r := &FieldRenderer{cfg: cfg}
	segments := cfg.Streaks.Segments
	if segments < 1 {
		segments = 6
	}
	r.streakRamp = make([]color.RGBA, segments)
	for i := range r.streakRamp {
		t := float64(i) / float64(segments)
		c := config.Blend(cfg.Derived.StreakColor, cfg.Derived.Background, t)
		c.A = uint8(float64(cfg.Derived.StreakColor.A) * (1 - t))
		r.streakRamp[i] = c
	}
	return r
}

// Draw renders the frame onto c. A nil canvas draws nothing.
func (r *FieldRenderer) Draw(c Canvas, f Frame) DrawStats {
	var stats DrawStats
	if c == nil {
		return stats
	}
	c.Clear(r.cfg.Derived.Background)
	if f.Store == nil || f.Buckets == nil {
		return stats
	}

	stats.Edges = r.drawEdges(c, f)
	stats.Particles += r.drawFar(c, f)
	stats.Particles += r.drawBucket(c, f, f.Buckets.Mid)

	blender, additive := c.(Blender)
	if r.cfg.LOD.HaloScale > 0 && r.cfg.LOD.HaloAlpha > 0 && len(f.Buckets.Near) > 0 {
		if additive {
			blender.BeginAdditive()
		}
		r.drawHalos(c, f)
		if additive {
			blender.EndAdditive()
		}
	}
	stats.Particles += r.drawBucket(c, f, f.Buckets.Near)

	if f.Streaks != nil && f.Streaks.Count() > 0 {
		if additive {
			blender.BeginAdditive()
		}
		stats.Streaks = r.drawStreaks(c, f.Streaks)
		if additive {
			blender.EndAdditive()
		}
	}
	return stats
}

// staleEdgeFactor scales max_distance into the longest edge still drawn.
// Edges are rebuilt only on resize or reseed, so endpoints that drift or wrap
// apart are dropped per frame instead of stroked across the surface.
const staleEdgeFactor = 2

// drawEdges strokes connections whose endpoints are both visible and still
// close together.
func (r *FieldRenderer) drawEdges(c Canvas, f Frame) int {
	cc := r.cfg.Connections
	if !cc.Enabled || len(f.Edges) == 0 {
		return 0
	}
	particles := f.Store.Particles
	visible := f.Buckets.Visible
	width := float32(cc.Width)
	if width <= 0 {
		width = 1
	}
	base := r.cfg.Derived.EdgeColor
	alpha := float32(cc.Alpha)
	maxLen := float32(cc.MaxDistance) * staleEdgeFactor
	maxLen2 := maxLen * maxLen

	drawn := 0
	for _, e := range f.Edges {
		if !f.Store.Valid(e.A) || !f.Store.Valid(e.B) {
			continue
		}
		if int(e.A) >= len(visible) || int(e.B) >= len(visible) || !visible[e.A] || !visible[e.B] {
			continue
		}
		a := e.Alpha * alpha
		if a <= 0 {
			continue
		}
		pa, pb := &particles[e.A], &particles[e.B]
		dx, dy := pb.X-pa.X, pb.Y-pa.Y
		if dx*dx+dy*dy > maxLen2 {
			continue
		}
		c.StrokeLine(pa.X, pa.Y, pb.X, pb.Y, width, withAlpha(base, a))
		drawn++
	}
	return drawn
}

// drawFar draws the far bucket as flat squares of a single colour.
func (r *FieldRenderer) drawFar(c Canvas, f Frame) int {
	particles := f.Store.Particles
	farColor := r.cfg.Derived.FarColor
	farAlpha := float32(r.cfg.LOD.FarAlpha)
	for _, i := range f.Buckets.Far {
		p := &particles[i]
		size := p.DrawRadius * 1.5
		if size < 1 {
			size = 1
		}
		half := size / 2
		c.FillRect(p.X-half, p.Y-half, size, size, withAlpha(farColor, farAlpha*p.Opacity))
	}
	return len(f.Buckets.Far)
}

// drawBucket draws a colour-sorted bucket as twinkling circles.
func (r *FieldRenderer) drawBucket(c Canvas, f Frame, bucket []int32) int {
	particles := f.Store.Particles
	for _, i := range bucket {
		p := &particles[i]
		a := p.Opacity * r.twinkle(p, f.Time)
		c.FillCircle(p.X, p.Y, p.DrawRadius, withAlpha(p.Color, a))
	}
	return len(bucket)
}

// drawHalos draws a soft glow behind each near particle.
func (r *FieldRenderer) drawHalos(c Canvas, f Frame) {
	particles := f.Store.Particles
	scale := float32(r.cfg.LOD.HaloScale)
	haloAlpha := float32(r.cfg.LOD.HaloAlpha)
	for _, i := range f.Buckets.Near {
		p := &particles[i]
		a := haloAlpha * p.Opacity * (1 + p.Boost)
		c.FillCircle(p.X, p.Y, p.DrawRadius*scale, withAlpha(p.Color, a))
	}
}

// drawStreaks draws each streak as a chain of segments fading toward the tail.
func (r *FieldRenderer) drawStreaks(c Canvas, streaks *systems.StreakSystem) int {
	n := 0
	segments := float32(len(r.streakRamp))
	width := float32(1.5)
	streaks.Each(func(st *components.Streak, lt *components.Lifetime) {
		// Fade in over the first fifth of the life, out over the rest.
		t := lt.Progress()
		env := t * 5
		if env > 1 {
			env = (1 - t) / 0.8
		}
		step := st.Length / segments
		x0, y0 := st.X, st.Y
		for k, col := range r.streakRamp {
			x1 := st.X - st.DX*step*float32(k+1)
			y1 := st.Y - st.DY*step*float32(k+1)
			c.StrokeLine(x0, y0, x1, y1, width, withAlpha(col, env))
			x0, y0 = x1, y1
		}
		n++
	})
	return n
}

// twinkle returns the brightness multiplier for a particle at time t.
func (r *FieldRenderer) twinkle(p *components.Particle, t float64) float32 {
	amount := r.cfg.LOD.TwinkleAmount
	if amount <= 0 {
		return 1
	}
	s := math.Sin(t*r.cfg.LOD.TwinkleSpeed + float64(p.Phase))
	return float32(1 + amount*float64(p.SizeVar)*s)
}

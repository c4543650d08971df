package systems

import (
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
)

// frameSeconds is the reference frame length all per-frame rates are tuned for.
const frameSeconds = 1.0 / 60.0

// Noise coordinates for orbit centre drift.
const (
	centerNoiseSpacing = 0.37
	centerNoiseTime    = 0.05
	centerNoiseOffsetY = 100
)

// Pointer is the surface-local pointer state read at frame start.
type Pointer struct {
	X, Y   float32
	Active bool
}

// Integrator advances particles one frame at a time.
type Integrator struct {
	cfg   *config.FieldConfig
	rng   *rand.Rand
	gen   *Generator
	noise opensimplex.Noise

	elapsed float64 // simulated seconds since seed
}

// NewIntegrator creates an integrator. gen is used to rebirth particles in
// place; noiseSeed seeds the orbit centre drift field.
func NewIntegrator(cfg *config.FieldConfig, rng *rand.Rand, gen *Generator, noiseSeed int64) *Integrator {
	return &Integrator{
		cfg:   cfg,
		rng:   rng,
		gen:   gen,
		noise: opensimplex.New(noiseSeed),
	}
}

// Elapsed returns simulated seconds since the last Reset.
func (in *Integrator) Elapsed() float64 {
	return in.elapsed
}

// Reset restarts the simulation clock.
func (in *Integrator) Reset() {
	in.elapsed = 0
}

// ClampDT limits a frame delta to [0, max_dt] so a resumed tab does not
// produce one huge step.
func (in *Integrator) ClampDT(dt float64) float64 {
	if dt < 0 || dt != dt {
		return 0
	}
	if dt > in.cfg.Motion.MaxDT {
		return in.cfg.Motion.MaxDT
	}
	return dt
}

// Step advances every particle by dt seconds.
func (in *Integrator) Step(store *Store, dt float64, ptr Pointer) {
	dt = in.ClampDT(dt)
	in.elapsed += dt
	if store.Len() == 0 || dt == 0 {
		return
	}

	mc := &in.cfg.Motion
	pc := &in.cfg.Pointer
	width, height := store.Size()
	scale := float32(dt / frameSeconds)

	margin := float32(mc.WrapMargin)
	damp := powf(float32(mc.Damping), scale)
	relax := 1 - powf(1-float32(mc.OpacityRelax), scale)
	boostDecay := powf(float32(mc.BoostDecay), scale)
	maxSpeed := float32(mc.MaxSpeed)
	maxSpeed2 := maxSpeed * maxSpeed
	wrapDamp := float32(mc.WrapDamping)
	minRadius := float32(in.cfg.Particle.MinRadius)

	pointerOn := ptr.Active && pc.Enabled && pc.Radius > 0
	radius := float32(pc.Radius)
	radius2 := radius * radius
	force := float32(pc.Force) * in.cfg.Derived.PointerSign
	glow := float32(pc.Glow)
	grow := float32(pc.Grow)

	particles := store.Particles
	for i := range particles {
		p := &particles[i]

		if !finite(p.X) || !finite(p.Y) || !finite(p.VX) || !finite(p.VY) || !finite(p.Opacity) {
			in.rebirth(p, width, height)
			continue
		}

		if p.Mortal() {
			p.Life -= float32(dt)
			if p.Life <= 0 {
				in.rebirth(p, width, height)
			}
		}

		// Pulse particles relax toward an oscillating target.
		target := p.BaseOpacity
		var pulse float32
		if p.Motion.Kind == components.MotionPulse {
			m := &p.Motion.Pulse
			m.Angle = normalizeAngle(m.Angle + m.Rate*float32(dt))
			pulse = fastSin(m.Angle)
			target = clampf(p.BaseOpacity*(1+m.Amount*pulse), 0, 1)
		}

		// Relax first so a pointer boost is visible in the same frame.
		p.Opacity += (target - p.Opacity) * relax
		p.Boost *= boostDecay

		if pointerOn {
			dx := p.X - ptr.X
			dy := p.Y - ptr.Y
			d2 := dx*dx + dy*dy
			if d2 < radius2 {
				d := sqrtf(d2)
				strength := 1 - d/radius
				if d > 0.5 {
					f := force * strength * scale / d
					p.VX += dx * f
					p.VY += dy * f
				}
				p.Opacity += glow * strength
				if p.Opacity > 1 {
					p.Opacity = 1
				}
				if strength > p.Boost {
					p.Boost = strength
				}
			}
		}

		// Drag and speed clamp on the impulse velocity
		p.VX *= damp
		p.VY *= damp
		if v2 := p.VX*p.VX + p.VY*p.VY; v2 > maxSpeed2 {
			s := maxSpeed / sqrtf(v2)
			p.VX *= s
			p.VY *= s
		}

		drawRadius := p.Radius
		switch p.Motion.Kind {
		case components.MotionDrift:
			in.drift(p, scale)
		case components.MotionOrbit:
			in.orbit(p, i, scale)
		case components.MotionPulse:
			p.X += p.VX * scale
			p.Y += p.VY * scale
			drawRadius *= 1 + p.Motion.Pulse.Amount*pulse
		default:
			panic("systems: unhandled motion kind " + p.Motion.Kind.String())
		}

		drawRadius *= 1 + grow*p.Boost
		if drawRadius < minRadius || !finite(drawRadius) {
			drawRadius = minRadius
		}
		p.DrawRadius = drawRadius

		// Periodic wrap
		wx := wrapCoord(p.X, width, margin)
		wy := wrapCoord(p.Y, height, margin)
		if wx != p.X || wy != p.Y {
			if p.Motion.Kind == components.MotionOrbit {
				p.Motion.Orbit.CX += wx - p.X
				p.Motion.Orbit.CY += wy - p.Y
			}
			p.VX *= wrapDamp
			p.VY *= wrapDamp
			p.X, p.Y = wx, wy
		}
	}
}

func (in *Integrator) drift(p *components.Particle, scale float32) {
	mc := &in.cfg.Motion
	m := &p.Motion.Drift

	if mc.JitterChance > 0 && in.rng.Float64() < mc.JitterChance*float64(scale) {
		amt := float32(mc.JitterAmount)
		m.VX += (in.rng.Float32()*2 - 1) * amt
		m.VY += (in.rng.Float32()*2 - 1) * amt
		// Keep jitter from accumulating into a fast drift.
		limit := float32(mc.DriftSpeed) * 1.5
		if v2 := m.VX*m.VX + m.VY*m.VY; limit > 0 && v2 > limit*limit {
			s := limit / sqrtf(v2)
			m.VX *= s
			m.VY *= s
		}
	}

	p.X += (m.VX*p.Depth + p.VX) * scale
	p.Y += (m.VY*p.Depth + p.VY) * scale
}

func (in *Integrator) orbit(p *components.Particle, i int, scale float32) {
	o := &p.Motion.Orbit
	o.Angle = normalizeAngle(o.Angle + o.AngVel*scale)

	drift := float32(in.cfg.Motion.CenterDrift)
	if drift > 0 {
		nx := in.noise.Eval2(float64(i)*centerNoiseSpacing, in.elapsed*centerNoiseTime)
		ny := in.noise.Eval2(float64(i)*centerNoiseSpacing+centerNoiseOffsetY, in.elapsed*centerNoiseTime)
		o.CX += float32(nx) * drift * scale
		o.CY += float32(ny) * drift * scale
	}
	o.CX += p.VX * scale
	o.CY += p.VY * scale

	p.X = o.CX + o.Radius*fastCos(o.Angle)
	p.Y = o.CY + o.Radius*fastSin(o.Angle)
}

// rebirth resets a particle in place with a full life span.
func (in *Integrator) rebirth(p *components.Particle, width, height float32) {
	in.gen.Respawn(p, width, height)
	if p.Mortal() {
		p.Life = p.MaxLife
	}
}

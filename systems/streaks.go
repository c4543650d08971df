package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
)

// StreakSystem spawns and ages shooting stars. Streaks are cosmetic ECS
// entities in a world owned by one field; they never enter the particle store.
type StreakSystem struct {
	cfg config.StreakConfig
	rng *rand.Rand

	world  *ecs.World
	mapper *ecs.Map2[components.Streak, components.Lifetime]
	filter *ecs.Filter2[components.Streak, components.Lifetime]

	timer   float32
	active  int
	expired []ecs.Entity
}

// NewStreakSystem creates a streak system with its own ECS world.
func NewStreakSystem(cfg config.StreakConfig, rng *rand.Rand) *StreakSystem {
	world := ecs.NewWorld()
	return &StreakSystem{
		cfg:     cfg,
		rng:     rng,
		world:   world,
		mapper:  ecs.NewMap2[components.Streak, components.Lifetime](world),
		filter:  ecs.NewFilter2[components.Streak, components.Lifetime](world),
		expired: make([]ecs.Entity, 0, 4),
	}
}

// Update ages live streaks, removes finished ones and rolls for a new one
// every interval.
func (s *StreakSystem) Update(dt float64, width, height float32) {
	if s.world == nil {
		return
	}
	step := float32(dt)

	s.expired = s.expired[:0]
	query := s.filter.Query()
	for query.Next() {
		st, lt := query.Get()
		lt.Age += step
		st.X += st.DX * st.Speed * step
		st.Y += st.DY * st.Speed * step
		if lt.Age >= lt.Duration {
			s.expired = append(s.expired, query.Entity())
		}
	}
	// Removal must wait until the query has finished iterating.
	for _, e := range s.expired {
		s.mapper.Remove(e)
		s.active--
	}

	if !s.cfg.Enabled || width <= 0 || height <= 0 || s.cfg.Interval <= 0 {
		return
	}
	s.timer += step
	if s.timer < float32(s.cfg.Interval) {
		return
	}
	s.timer = 0
	if s.active >= s.cfg.MaxActive || s.rng.Float64() >= s.cfg.Chance {
		return
	}
	s.spawn(width, height)
}

func (s *StreakSystem) spawn(width, height float32) {
	// Heading down and to the right, 15 to 40 degrees below horizontal.
	angle := (15 + s.rng.Float64()*25) * math.Pi / 180
	st := components.Streak{
		X:      s.rng.Float32() * width * 0.7,
		Y:      s.rng.Float32() * height * 0.4,
		DX:     float32(math.Cos(angle)),
		DY:     float32(math.Sin(angle)),
		Speed:  float32(s.cfg.Speed),
		Length: float32(s.cfg.Length),
	}
	lt := components.Lifetime{Duration: float32(s.cfg.Duration)}
	if lt.Duration <= 0 {
		lt.Duration = 0.5
	}
	s.mapper.NewEntity(&st, &lt)
	s.active++
}

// Each calls fn for every live streak.
func (s *StreakSystem) Each(fn func(st *components.Streak, lt *components.Lifetime)) {
	if s.world == nil {
		return
	}
	query := s.filter.Query()
	for query.Next() {
		st, lt := query.Get()
		fn(st, lt)
	}
}

// Count returns the number of live streaks.
func (s *StreakSystem) Count() int {
	return s.active
}

// Clear removes every streak and restarts the spawn timer.
func (s *StreakSystem) Clear() {
	if s.world == nil {
		return
	}
	s.expired = s.expired[:0]
	query := s.filter.Query()
	for query.Next() {
		s.expired = append(s.expired, query.Entity())
	}
	for _, e := range s.expired {
		s.mapper.Remove(e)
	}
	s.active = 0
	s.timer = 0
}

// Release drops the ECS world.
func (s *StreakSystem) Release() {
	s.world = nil
	s.mapper = nil
	s.filter = nil
	s.expired = nil
	s.active = 0
}

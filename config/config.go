// Package config provides configuration loading and access for particle fields.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrUnknownPreset is returned when a field preset name is not configured.
var ErrUnknownPreset = errors.New("unknown field preset")

// Config holds all host and field configuration.
type Config struct {
	Screen    ScreenConfig            `yaml:"screen"`
	Preset    string                  `yaml:"preset"`
	Presets   map[string]*FieldConfig `yaml:"presets"`
	Telemetry TelemetryConfig         `yaml:"telemetry"`
}

// ScreenConfig holds display settings for the bundled hosts.
type ScreenConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	TargetFPS int     `yaml:"target_fps"`
	Scale     float64 `yaml:"scale"` // display scale factor (device pixels per surface pixel)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow  int     `yaml:"perf_window"`  // frames per rolling perf window
	LogInterval float64 `yaml:"log_interval"` // seconds between perf log lines
}

// FieldConfig parameterises one particle field. The constellation, cursor and
// drift backgrounds are presets of this record.
type FieldConfig struct {
	Name        string           `yaml:"-"`
	Seed        int64            `yaml:"seed"` // 0 = time-based
	Background  string           `yaml:"background"`
	Density     DensityConfig    `yaml:"density"`
	Palette     []PaletteEntry   `yaml:"palette"`
	Bias        BiasConfig       `yaml:"bias"`
	Behaviors   BehaviorWeights  `yaml:"behaviors"`
	Particle    ParticleConfig   `yaml:"particle"`
	Motion      MotionConfig     `yaml:"motion"`
	Pointer     PointerConfig    `yaml:"pointer"`
	Connections ConnectionConfig `yaml:"connections"`
	LOD         LODConfig        `yaml:"lod"`
	Streaks     StreakConfig     `yaml:"streaks"`
	Governor    GovernorConfig   `yaml:"governor"`

	// Derived values computed after loading
	Derived FieldDerived `yaml:"-"`
}

// DensityConfig maps surface area to particle count.
type DensityConfig struct {
	PerPixel float64 `yaml:"per_pixel"` // particles per square surface pixel
	Min      int     `yaml:"min"`
	Max      int     `yaml:"max"`
}

// PaletteEntry is one colour a particle can be assigned at creation.
type PaletteEntry struct {
	Hex    string  `yaml:"hex"`
	Alpha  float64 `yaml:"alpha"`  // 0..1, 0 = opaque
	Weight float64 `yaml:"weight"` // relative pick weight, 0 = 1
}

// BiasConfig concentrates a fraction of particles inside a horizontal band.
type BiasConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Top      float64 `yaml:"top"`      // band top as a fraction of height
	Bottom   float64 `yaml:"bottom"`   // band bottom as a fraction of height
	Fraction float64 `yaml:"fraction"` // share of particles placed in the band
	Anchors  int     `yaml:"anchors"`  // cluster anchor points inside the band
	Spread   float64 `yaml:"spread"`   // cluster standard deviation in pixels
}

// BehaviorWeights sets the relative mix of motion variants.
type BehaviorWeights struct {
	Drift float64 `yaml:"drift"`
	Orbit float64 `yaml:"orbit"`
	Pulse float64 `yaml:"pulse"`
}

// ParticleConfig holds per-particle draw ranges.
type ParticleConfig struct {
	DepthMin      float64 `yaml:"depth_min"`
	DepthMax      float64 `yaml:"depth_max"`
	RadiusMin     float64 `yaml:"radius_min"`
	RadiusMax     float64 `yaml:"radius_max"`
	MinRadius     float64 `yaml:"min_radius"`     // hard floor applied before drawing
	SizeVariation float64 `yaml:"size_variation"` // max twinkle/pulse amplitude, < 1
	OpacityMin    float64 `yaml:"opacity_min"`
	OpacityMax    float64 `yaml:"opacity_max"`
	LifeMin       float64 `yaml:"life_min"` // seconds, 0 = immortal
	LifeMax       float64 `yaml:"life_max"`
}

// MotionConfig holds integrator parameters. Rates are per 60 Hz frame.
type MotionConfig struct {
	MaxDT          float64 `yaml:"max_dt"` // seconds
	DriftSpeed     float64 `yaml:"drift_speed"`
	OrbitRadiusMin float64 `yaml:"orbit_radius_min"`
	OrbitRadiusMax float64 `yaml:"orbit_radius_max"`
	AngularSpeed   float64 `yaml:"angular_speed"` // radians per frame
	CenterDrift    float64 `yaml:"center_drift"`  // orbit centre noise drift, px per frame
	PulseRate      float64 `yaml:"pulse_rate"`    // radians per second
	JitterChance   float64 `yaml:"jitter_chance"`
	JitterAmount   float64 `yaml:"jitter_amount"`
	Damping        float64 `yaml:"damping"`
	MaxSpeed       float64 `yaml:"max_speed"`
	WrapMargin     float64 `yaml:"wrap_margin"`
	WrapDamping    float64 `yaml:"wrap_damping"`  // impulse multiplier on wrap, 1 = none
	OpacityRelax   float64 `yaml:"opacity_relax"` // fraction of gap to base closed per frame
	BoostDecay     float64 `yaml:"boost_decay"`   // pointer highlight multiplier per frame
}

// PointerConfig controls pointer interaction.
type PointerConfig struct {
	Enabled bool    `yaml:"enabled"`
	Radius  float64 `yaml:"radius"`
	Force   float64 `yaml:"force"`
	Mode    string  `yaml:"mode"` // "repel" or "attract"
	Glow    float64 `yaml:"glow"` // opacity added at zero distance
	Grow    float64 `yaml:"grow"` // radius multiplier added at full boost
}

// ConnectionConfig controls the proximity graph.
type ConnectionConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MaxDistance   float64 `yaml:"max_distance"`
	MinWeight     float64 `yaml:"min_weight"`
	NeighborCells bool    `yaml:"neighbor_cells"`
	MaxSources    int     `yaml:"max_sources"` // 0 = every particle is a source
	Width         float64 `yaml:"width"`
	Alpha         float64 `yaml:"alpha"`
	Color         string  `yaml:"color"`
}

// LODConfig holds level-of-detail thresholds.
type LODConfig struct {
	NearDepth     float64 `yaml:"near_depth"`
	FarDepth      float64 `yaml:"far_depth"`
	CullMargin    float64 `yaml:"cull_margin"`
	FarAlpha      float64 `yaml:"far_alpha"`
	FarColor      string  `yaml:"far_color"`
	TwinkleSpeed  float64 `yaml:"twinkle_speed"`
	TwinkleAmount float64 `yaml:"twinkle_amount"`
	HaloScale     float64 `yaml:"halo_scale"`
	HaloAlpha     float64 `yaml:"halo_alpha"`
}

// StreakConfig controls the occasional shooting star.
type StreakConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Interval  float64 `yaml:"interval"` // seconds between spawn rolls
	Chance    float64 `yaml:"chance"`
	Length    float64 `yaml:"length"`
	Speed     float64 `yaml:"speed"` // px per second
	Duration  float64 `yaml:"duration"`
	MaxActive int     `yaml:"max_active"`
	Segments  int     `yaml:"segments"`
	Color     string  `yaml:"color"`
}

// GovernorConfig controls adaptive render skipping.
type GovernorConfig struct {
	TargetFPS           float64 `yaml:"target_fps"`
	Window              int     `yaml:"window"`
	MaxSkipFraction     float64 `yaml:"max_skip_fraction"`
	MaxConsecutiveSkips int     `yaml:"max_consecutive_skips"`
}

// FieldDerived holds hot-path values computed from a FieldConfig.
type FieldDerived struct {
	Colors          []color.RGBA // parsed palette
	ColorCumWeights []float64    // cumulative palette weights, last = total
	MotionCumWeight [3]float64   // cumulative drift, orbit, pulse weights
	Background      color.RGBA
	EdgeColor       color.RGBA
	FarColor        color.RGBA
	StreakColor     color.RGBA
	PointerSign     float32 // +1 repel, -1 attract
	Budget          time.Duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.merge(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse builds a configuration from YAML bytes layered over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := cfg.merge(data); err != nil {
		return nil, err
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig mirrors Config for overlay decoding. Screen and telemetry decode
// in place; presets are kept as raw nodes so each one can be layered over the
// matching default preset field by field.
type fileConfig struct {
	Screen    *ScreenConfig        `yaml:"screen"`
	Preset    string               `yaml:"preset"`
	Presets   map[string]yaml.Node `yaml:"presets"`
	Telemetry *TelemetryConfig     `yaml:"telemetry"`
}

// merge overlays user YAML; only fields present in data are overwritten.
func (c *Config) merge(data []byte) error {
	overlay := fileConfig{Screen: &c.Screen, Telemetry: &c.Telemetry}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if overlay.Preset != "" {
		c.Preset = overlay.Preset
	}
	if c.Presets == nil {
		c.Presets = make(map[string]*FieldConfig)
	}
	for name, node := range overlay.Presets {
		fc, ok := c.Presets[name]
		if !ok {
			fc = &FieldConfig{}
			c.Presets[name] = fc
		}
		if err := node.Decode(fc); err != nil {
			return fmt.Errorf("parsing preset %q: %w", name, err)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	if c.Screen.Scale <= 0 {
		c.Screen.Scale = 1
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 60
	}
	for name, fc := range c.Presets {
		if fc == nil {
			return fmt.Errorf("preset %q: empty definition", name)
		}
		fc.Name = name
		if err := fc.computeDerived(); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
	}
	if c.Preset != "" {
		if _, ok := c.Presets[c.Preset]; !ok {
			return fmt.Errorf("selecting preset %q: %w", c.Preset, ErrUnknownPreset)
		}
	}
	return nil
}

// Field returns a copy of the named preset, or the default preset when name is empty.
func (c *Config) Field(name string) (FieldConfig, error) {
	if name == "" {
		name = c.Preset
	}
	fc, ok := c.Presets[name]
	if !ok {
		return FieldConfig{}, fmt.Errorf("%q: %w", name, ErrUnknownPreset)
	}
	return fc.Clone(), nil
}

// PresetNames returns the configured preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns the named preset from the global configuration.
func Preset(name string) (FieldConfig, error) {
	return Cfg().Field(name)
}

// Clone returns a deep copy so callers can tweak a preset without touching the
// shared configuration.
func (fc *FieldConfig) Clone() FieldConfig {
	out := *fc
	out.Palette = append([]PaletteEntry(nil), fc.Palette...)
	out.Derived.Colors = append([]color.RGBA(nil), fc.Derived.Colors...)
	out.Derived.ColorCumWeights = append([]float64(nil), fc.Derived.ColorCumWeights...)
	return out
}

// Recompute refreshes derived values after a caller modified the record.
func (fc *FieldConfig) Recompute() error {
	return fc.computeDerived()
}

func (fc *FieldConfig) computeDerived() error {
	if len(fc.Palette) == 0 {
		fc.Palette = []PaletteEntry{{Hex: "#ffffff"}}
	}

	d := &fc.Derived
	d.Colors = d.Colors[:0]
	d.ColorCumWeights = d.ColorCumWeights[:0]
	var cum float64
	for i, entry := range fc.Palette {
		c, err := ParseColor(entry.Hex, entry.Alpha)
		if err != nil {
			return fmt.Errorf("palette[%d]: %w", i, err)
		}
		w := entry.Weight
		if w <= 0 {
			w = 1
		}
		cum += w
		d.Colors = append(d.Colors, c)
		d.ColorCumWeights = append(d.ColorCumWeights, cum)
	}

	var err error
	if d.Background, err = parseOptional(fc.Background, 1, color.RGBA{A: 255}); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if d.EdgeColor, err = parseOptional(fc.Connections.Color, 1, d.Colors[0]); err != nil {
		return fmt.Errorf("connections.color: %w", err)
	}
	if d.FarColor, err = parseOptional(fc.LOD.FarColor, 1, color.RGBA{R: 200, G: 210, B: 230, A: 255}); err != nil {
		return fmt.Errorf("lod.far_color: %w", err)
	}
	if d.StreakColor, err = parseOptional(fc.Streaks.Color, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255}); err != nil {
		return fmt.Errorf("streaks.color: %w", err)
	}

	b := fc.Behaviors
	if b.Drift <= 0 && b.Orbit <= 0 && b.Pulse <= 0 {
		b.Drift = 1
	}
	d.MotionCumWeight[0] = math.Max(b.Drift, 0)
	d.MotionCumWeight[1] = d.MotionCumWeight[0] + math.Max(b.Orbit, 0)
	d.MotionCumWeight[2] = d.MotionCumWeight[1] + math.Max(b.Pulse, 0)

	switch fc.Pointer.Mode {
	case "", "repel":
		d.PointerSign = 1
	case "attract":
		d.PointerSign = -1
	default:
		return fmt.Errorf("pointer.mode %q: want repel or attract", fc.Pointer.Mode)
	}

	if fc.Particle.SizeVariation >= 1 {
		return fmt.Errorf("particle.size_variation %.2f: must be below 1", fc.Particle.SizeVariation)
	}
	if fc.Particle.MinRadius <= 0 {
		fc.Particle.MinRadius = 0.25
	}
	if fc.Density.Max > 0 && fc.Density.Min > fc.Density.Max {
		return fmt.Errorf("density.min %d exceeds density.max %d", fc.Density.Min, fc.Density.Max)
	}
	if fc.Motion.MaxDT <= 0 {
		fc.Motion.MaxDT = 0.033
	}
	if fc.Motion.Damping <= 0 || fc.Motion.Damping >= 1 {
		fc.Motion.Damping = 0.95
	}
	if fc.Motion.MaxSpeed <= 0 {
		fc.Motion.MaxSpeed = 3
	}
	if fc.Motion.OpacityRelax <= 0 || fc.Motion.OpacityRelax > 1 {
		fc.Motion.OpacityRelax = 0.06
	}
	if fc.Motion.WrapDamping <= 0 {
		fc.Motion.WrapDamping = 1
	}
	if fc.Motion.BoostDecay <= 0 || fc.Motion.BoostDecay >= 1 {
		fc.Motion.BoostDecay = 0.92
	}
	if fc.Governor.TargetFPS <= 0 {
		fc.Governor.TargetFPS = 50
	}
	if fc.Governor.Window < 1 {
		fc.Governor.Window = 30
	}
	if fc.Governor.MaxConsecutiveSkips < 1 {
		fc.Governor.MaxConsecutiveSkips = 1
	}
	d.Budget = time.Duration(float64(time.Second) / fc.Governor.TargetFPS)
	return nil
}

// ParseColor parses a hex colour ("#rrggbb") and applies alpha in [0, 1]
// (0 means fully opaque).
func ParseColor(hex string, alpha float64) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parsing colour %q: %w", hex, err)
	}
	r, g, b := c.Clamped().RGB255()
	a := uint8(255)
	if alpha > 0 && alpha < 1 {
		a = uint8(math.Round(alpha * 255))
	}
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

func parseOptional(hex string, alpha float64, fallback color.RGBA) (color.RGBA, error) {
	if hex == "" {
		return fallback, nil
	}
	return ParseColor(hex, alpha)
}

// Blend mixes two colours in Lab space; t = 0 returns a, t = 1 returns b.
func Blend(a, b color.RGBA, t float64) color.RGBA {
	ca, _ := colorful.MakeColor(color.RGBA{R: a.R, G: a.G, B: a.B, A: 255})
	cb, _ := colorful.MakeColor(color.RGBA{R: b.R, G: b.G, B: b.B, A: 255})
	r, g, bl := ca.BlendLab(cb, t).Clamped().RGB255()
	alpha := float64(a.A) + (float64(b.A)-float64(a.A))*t
	return color.RGBA{R: r, G: g, B: bl, A: uint8(math.Round(alpha))}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

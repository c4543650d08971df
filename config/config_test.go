package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Preset != "constellation" {
		t.Errorf("default preset = %q", cfg.Preset)
	}
	want := []string{"constellation", "cursor", "drift"}
	if got := cfg.PresetNames(); !slices.Equal(got, want) {
		t.Errorf("PresetNames = %v, want %v", got, want)
	}
	for _, name := range want {
		fc, err := cfg.Field(name)
		if err != nil {
			t.Fatalf("Field(%q): %v", name, err)
		}
		if fc.Name != name {
			t.Errorf("preset name = %q, want %q", fc.Name, name)
		}
		if len(fc.Derived.Colors) != len(fc.Palette) {
			t.Errorf("%s: %d colours for %d palette entries", name, len(fc.Derived.Colors), len(fc.Palette))
		}
		if fc.Derived.Budget <= 0 {
			t.Errorf("%s: budget %v", name, fc.Derived.Budget)
		}
	}

	fc, _ := cfg.Field("")
	if fc.Name != "constellation" {
		t.Errorf("empty name should select the default preset, got %q", fc.Name)
	}
	if fc.Derived.Budget != 20*time.Millisecond {
		t.Errorf("constellation budget = %v, want 20ms", fc.Derived.Budget)
	}
}

func TestField_UnknownPreset(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.Field("nebula"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
	if _, err := Parse([]byte("preset: nebula\n")); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("selecting a missing preset should fail with ErrUnknownPreset, got %v", err)
	}
}

func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
preset: cursor
screen:
  width: 640
presets:
  cursor:
    density:
      max: 50
  aurora:
    background: "#000010"
    palette:
      - { hex: "#00ff88" }
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Screen.Width != 640 || cfg.Screen.Height != 800 {
		t.Errorf("screen = %dx%d, want 640x800", cfg.Screen.Width, cfg.Screen.Height)
	}
	fc, err := cfg.Field("")
	if err != nil {
		t.Fatal(err)
	}
	if fc.Name != "cursor" || fc.Density.Max != 50 {
		t.Errorf("overlay not applied: preset %q max %d", fc.Name, fc.Density.Max)
	}
	if fc.Density.Min != 60 {
		t.Errorf("untouched field lost its default: min = %d", fc.Density.Min)
	}

	aurora, err := cfg.Field("aurora")
	if err != nil {
		t.Fatalf("new preset: %v", err)
	}
	if aurora.Derived.Colors[0] != (color.RGBA{G: 255, B: 136, A: 255}) {
		t.Errorf("aurora colour = %v", aurora.Derived.Colors[0])
	}
	if aurora.Motion.MaxDT <= 0 || aurora.Governor.Window < 1 {
		t.Error("new preset should receive fallback values")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad hex", "presets:\n  drift:\n    background: \"#zzzzzz\"\n"},
		{"bad palette", "presets:\n  drift:\n    palette:\n      - { hex: \"blue\" }\n"},
		{"pointer mode", "presets:\n  cursor:\n    pointer:\n      mode: orbit\n"},
		{"size variation", "presets:\n  drift:\n    particle:\n      size_variation: 1.2\n"},
		{"density range", "presets:\n  drift:\n    density:\n      min: 500\n      max: 10\n"},
		{"malformed", "presets: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestClone_Independent(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := cfg.Field("constellation")
	a.Palette[0].Hex = "#000000"
	a.Derived.Colors[0] = color.RGBA{}
	a.Density.Max = 1

	b, _ := cfg.Field("constellation")
	if b.Palette[0].Hex == "#000000" || b.Derived.Colors[0] == (color.RGBA{}) || b.Density.Max == 1 {
		t.Error("mutating a returned preset leaked into the shared configuration")
	}
}

func TestRecompute(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	fc, _ := cfg.Field("cursor")
	fc.Pointer.Mode = "attract"
	fc.Governor.TargetFPS = 25
	if err := fc.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if fc.Derived.PointerSign != -1 {
		t.Errorf("PointerSign = %v, want -1", fc.Derived.PointerSign)
	}
	if fc.Derived.Budget != 40*time.Millisecond {
		t.Errorf("Budget = %v, want 40ms", fc.Derived.Budget)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		hex   string
		alpha float64
		want  color.RGBA
		err   bool
	}{
		{"#ff0000", 0, color.RGBA{R: 255, A: 255}, false},
		{"#00ff00", 0.5, color.RGBA{G: 255, A: 128}, false},
		{"#0000ff", 1, color.RGBA{B: 255, A: 255}, false},
		{"#fff", 0, color.RGBA{R: 255, G: 255, B: 255, A: 255}, false},
		{"nope", 0, color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.hex, tt.alpha)
		if (err != nil) != tt.err {
			t.Errorf("ParseColor(%q) error = %v", tt.hex, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParseColor(%q, %v) = %v, want %v", tt.hex, tt.alpha, got, tt.want)
		}
	}
}

func TestBlend(t *testing.T) {
	a := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	b := color.RGBA{A: 0}
	if got := Blend(a, b, 0); got != a {
		t.Errorf("Blend(t=0) = %v, want %v", got, a)
	}
	if got := Blend(a, b, 1); got != (color.RGBA{}) {
		t.Errorf("Blend(t=1) = %v, want transparent black", got)
	}
	mid := Blend(a, b, 0.5)
	if mid.A != 128 || mid.R == 0 || mid.R == 255 {
		t.Errorf("Blend(t=0.5) = %v, want a grey at half alpha", mid)
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if !slices.Equal(back.PresetNames(), cfg.PresetNames()) || back.Preset != cfg.Preset {
		t.Error("written config did not reload to the same presets")
	}
}

func TestInitAndCfg(t *testing.T) {
	defer func() { global = nil }()
	global = nil
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Cfg before Init should panic")
			}
		}()
		Cfg()
	}()
	MustInit("")
	if Cfg().Preset != "constellation" {
		t.Errorf("global preset = %q", Cfg().Preset)
	}
	if _, err := Preset("drift"); err != nil {
		t.Errorf("Preset(drift): %v", err)
	}
}

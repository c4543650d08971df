// Field preview tool - live field with sliders for tuning presets.
//
// Usage: go run ./cmd/fieldpreview [-config path] [-preset name]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/backdrop/config"
	"github.com/pthm-cable/backdrop/engine"
	"github.com/pthm-cable/backdrop/renderer/rlcanvas"
)

const (
	windowWidth   = 1180
	windowHeight  = 720
	previewWidth  = 760
	previewHeight = 640
	previewX      = 10
	previewY      = 10
	panelWidth    = windowWidth - previewWidth - 30
)

// tunable is one slider bound to a field parameter.
type tunable struct {
	label  string
	format string
	min    float32
	max    float32
	get    func(fc *config.FieldConfig) float64
	set    func(fc *config.FieldConfig, v float64)
}

var tunables = []tunable{
	{
		label: "Density (particles per 10k px)", format: "%.2f", min: 0.1, max: 6,
		get: func(fc *config.FieldConfig) float64 { return fc.Density.PerPixel * 1e4 },
		set: func(fc *config.FieldConfig, v float64) { fc.Density.PerPixel = v / 1e4 },
	},
	{
		label: "Connection distance", format: "%.0f", min: 0, max: 240,
		get: func(fc *config.FieldConfig) float64 { return fc.Connections.MaxDistance },
		set: func(fc *config.FieldConfig, v float64) { fc.Connections.MaxDistance = v },
	},
	{
		label: "Pointer radius", format: "%.0f", min: 20, max: 300,
		get: func(fc *config.FieldConfig) float64 { return fc.Pointer.Radius },
		set: func(fc *config.FieldConfig, v float64) { fc.Pointer.Radius = v },
	},
	{
		label: "Pointer force", format: "%.2f", min: 0, max: 2,
		get: func(fc *config.FieldConfig) float64 { return fc.Pointer.Force },
		set: func(fc *config.FieldConfig, v float64) { fc.Pointer.Force = v },
	},
	{
		label: "Drift speed", format: "%.3f", min: 0, max: 1,
		get: func(fc *config.FieldConfig) float64 { return fc.Motion.DriftSpeed },
		set: func(fc *config.FieldConfig, v float64) { fc.Motion.DriftSpeed = v },
	},
	{
		label: "Twinkle amount", format: "%.2f", min: 0, max: 1,
		get: func(fc *config.FieldConfig) float64 { return fc.LOD.TwinkleAmount },
		set: func(fc *config.FieldConfig, v float64) { fc.LOD.TwinkleAmount = v },
	},
	{
		label: "Governor target fps", format: "%.0f", min: 10, max: 120,
		get: func(fc *config.FieldConfig) float64 { return fc.Governor.TargetFPS },
		set: func(fc *config.FieldConfig, v float64) { fc.Governor.TargetFPS = v },
	},
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	preset := flag.String("preset", "", "Initial preset (empty = config default)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	presets := cfg.PresetNames()

	fc, err := cfg.Field(*preset)
	if err != nil {
		slog.Error("failed to select preset", "error", err)
		os.Exit(1)
	}

	rl.InitWindow(windowWidth, windowHeight, "Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	target := rl.LoadRenderTexture(previewWidth, previewHeight)
	defer rl.UnloadRenderTexture(target)
	canvas := rlcanvas.New(1)

	var e *engine.Engine
	rebuild := func(seed int64) {
		if err := fc.Recompute(); err != nil {
			slog.Error("invalid field", "error", err)
			return
		}
		next, err := engine.New(fc, engine.Options{Seed: seed})
		if err != nil {
			slog.Error("failed to create engine", "error", err)
			return
		}
		if e != nil {
			e.Dispose()
		}
		e = next
		e.Mount(engine.Surface{
			Width: previewWidth, Height: previewHeight, Scale: 1,
			OffsetX: previewX, OffsetY: previewY,
		})
	}
	rebuild(0)
	defer func() { e.Dispose() }()

	status := ""
	for !rl.WindowShouldClose() {
		m := rl.GetMousePosition()
		if m.X >= previewX && m.X < previewX+previewWidth && m.Y >= previewY && m.Y < previewY+previewHeight {
			e.Pointer().Move(m.X, m.Y)
		} else {
			e.Pointer().Leave()
		}

		rl.BeginTextureMode(target)
		e.Frame(float64(rl.GetFrameTime()), canvas)
		rl.EndTextureMode()

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		rl.DrawTextureRec(
			target.Texture,
			rl.Rectangle{Width: previewWidth, Height: -previewHeight},
			rl.Vector2{X: previewX, Y: previewY},
			rl.White,
		)
		rl.DrawRectangleLines(previewX, previewY, previewWidth, previewHeight, rl.DarkGray)

		// Draw stats
		s := e.Stats()
		statsY := int32(previewY + previewHeight + 15)
		rl.DrawText(fmt.Sprintf("Particles: %d  Edges: %d  Visible: %d  Streaks: %d",
			s.Particles, s.Edges, s.Visible, s.Streaks), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Frames: %d  Skipped: %d  Avg cost: %dus  FPS: %d",
			s.Frames, s.Skipped, s.AvgCost.Microseconds(), rl.GetFPS()), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewWidth + 20)
		panelY := float32(10)

		rl.DrawText(fmt.Sprintf("Preset: %s", fc.Name), int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		changed := false
		for _, t := range tunables {
			rl.DrawText(t.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			cur := float32(t.get(&fc))
			next := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				fmt.Sprintf(t.format, t.min), fmt.Sprintf(t.format, t.max),
				cur, t.min, t.max,
			)
			rl.DrawText(fmt.Sprintf(t.format, cur), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if next != cur {
				t.set(&fc, float64(next))
				changed = true
			}
			panelY += 35
		}
		if changed {
			rebuild(e.Seed())
		}

		// Separator
		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		connText := toggleText(fc.Connections.Enabled, "Hide edges", "Show edges")
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, connText) {
			fc.Connections.Enabled = !fc.Connections.Enabled
			rebuild(e.Seed())
		}
		streakText := toggleText(fc.Streaks.Enabled, "No streaks", "Streaks")
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, streakText) {
			fc.Streaks.Enabled = !fc.Streaks.Enabled
			rebuild(e.Seed())
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reseed") {
			rebuild(0)
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Next Preset") {
			name := nextPreset(presets, fc.Name)
			if next, err := cfg.Field(name); err == nil {
				fc = next
				rebuild(0)
			}
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset Preset") {
			if orig, err := cfg.Field(fc.Name); err == nil {
				fc = orig
				rebuild(e.Seed())
			}
		}
		panelY += 50

		// Instructions
		rl.DrawText("Press C to copy preset YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		if rl.IsKeyPressed(rl.KeyC) {
			data, err := yaml.Marshal(map[string]map[string]config.FieldConfig{
				"presets": {fc.Name: fc},
			})
			if err != nil {
				status = err.Error()
			} else {
				rl.SetClipboardText(string(data))
				status = "copied " + fc.Name
			}
		}
		if status != "" {
			rl.DrawText(status, int32(panelX), int32(panelY), 14, rl.Gray)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// nextPreset returns the preset after current in name order, wrapping around.
func nextPreset(names []string, current string) string {
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

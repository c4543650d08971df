package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/backdrop/config"
	"github.com/pthm-cable/backdrop/engine"
	"github.com/pthm-cable/backdrop/renderer"
	"github.com/pthm-cable/backdrop/renderer/rlcanvas"
	"github.com/pthm-cable/backdrop/telemetry"
	"github.com/pthm-cable/backdrop/ui"
)

// headlessDT is the fixed step used when no window drives the clock.
const headlessDT = 1.0 / 60.0

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	preset := flag.String("preset", "", "Field preset (empty = config default)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = preset seed, then time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	h := &host{
		cfg:      cfg,
		preset:   *preset,
		seed:     *seed,
		out:      out,
		logStats: *logStats,
	}

	if *headless {
		h.runHeadless(*maxFrames)
	} else {
		h.runWindow(*maxFrames)
	}
}

// host holds the state shared by the headless and windowed runs.
type host struct {
	cfg      *config.Config
	preset   string
	seed     int64
	out      *telemetry.OutputManager
	logStats bool

	engine   *engine.Engine
	reporter *telemetry.Reporter

	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	showHUD   bool
	showPerf  bool
}

// open creates an engine for the current preset and mounts it.
func (h *host) open(surface engine.Surface) bool {
	fc, err := h.cfg.Field(h.preset)
	if err != nil {
		slog.Error("failed to select preset", "error", err)
		return false
	}
	e, err := engine.New(fc, engine.Options{
		Seed:       h.seed,
		PerfWindow: h.cfg.Telemetry.PerfWindow,
	})
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		return false
	}
	if h.engine != nil {
		h.engine.Dispose()
	}
	h.engine = e
	h.reporter = telemetry.NewReporter(e.Perf(), h.out, h.cfg.Telemetry.LogInterval, h.logStats)
	e.Mount(surface)
	return true
}

func (h *host) report(dt float64) {
	s := h.engine.Stats()
	if err := h.reporter.Tick(dt, s.Frames, s.Particles, s.Edges, s.Visible); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
}

func (h *host) runHeadless(maxFrames int) {
	surface := engine.Surface{
		Width:  float32(h.cfg.Screen.Width),
		Height: float32(h.cfg.Screen.Height),
		Scale:  1,
	}
	if !h.open(surface) {
		os.Exit(1)
	}
	defer h.engine.Dispose()

	slog.Info("starting headless run",
		"preset", h.engine.Config().Name,
		"seed", h.engine.Seed(),
		"max_frames", maxFrames,
	)

	canvas := renderer.NewRecorder()
	for frame := 1; maxFrames <= 0 || frame <= maxFrames; frame++ {
		canvas.Reset()
		h.engine.Frame(headlessDT, canvas)
		h.report(headlessDT)
	}
	slog.Info("max frames reached", "stats", h.engine.Stats())
}

func (h *host) runWindow(maxFrames int) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(h.cfg.Screen.Width), int32(h.cfg.Screen.Height), "Backdrop")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(h.cfg.Screen.TargetFPS))

	scale := float32(h.cfg.Screen.Scale)
	surface := func() engine.Surface {
		return engine.Surface{
			Width:  float32(rl.GetScreenWidth()) / scale,
			Height: float32(rl.GetScreenHeight()) / scale,
			Scale:  scale,
		}
	}
	if !h.open(surface()) {
		return
	}
	defer func() { h.engine.Dispose() }()

	canvas := rlcanvas.New(scale)
	target := rl.LoadRenderTexture(int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()))
	defer func() { rl.UnloadRenderTexture(target) }()

	h.hud = ui.NewHUD()
	h.perfPanel = ui.NewPerfPanel(int32(rl.GetScreenWidth())-260, 10)

	presets := h.cfg.PresetNames()
	frames := 0
	for !rl.WindowShouldClose() {
		if rl.IsWindowResized() {
			rl.UnloadRenderTexture(target)
			target = rl.LoadRenderTexture(int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()))
			s := surface()
			h.engine.Resize(s.Width, s.Height)
			h.perfPanel.SetPosition(int32(rl.GetScreenWidth())-260, 10)
		}
		h.handleInput(presets, surface)

		// Skipped frames keep showing the last rendered field.
		rl.BeginTextureMode(target)
		h.engine.Frame(float64(rl.GetFrameTime()), canvas)
		rl.EndTextureMode()

		rl.BeginDrawing()
		src := rl.Rectangle{Width: float32(target.Texture.Width), Height: -float32(target.Texture.Height)}
		rl.DrawTextureRec(target.Texture, src, rl.Vector2{}, rl.White)
		h.drawOverlays()
		rl.EndDrawing()

		h.report(float64(rl.GetFrameTime()))

		frames++
		if maxFrames > 0 && frames >= maxFrames {
			break
		}
	}
}

// handleInput forwards the pointer and handles preset and reseed keys.
func (h *host) handleInput(presets []string, surface func() engine.Surface) {
	e := h.engine
	e.SetVisible(!rl.IsWindowMinimized() && !rl.IsWindowHidden())

	if rl.IsCursorOnScreen() {
		m := rl.GetMousePosition()
		e.Pointer().Move(m.X, m.Y)
	} else {
		e.Pointer().Leave()
	}

	if rl.IsKeyPressed(rl.KeyR) {
		e.Reseed(0)
	}
	if rl.IsKeyPressed(rl.KeyH) {
		h.showHUD = !h.showHUD
	}
	if rl.IsKeyPressed(rl.KeyP) {
		h.showPerf = !h.showPerf
	}
	// Number keys switch presets in name order.
	for i, name := range presets {
		if i > 8 {
			break
		}
		if rl.IsKeyPressed(int32(rl.KeyOne) + int32(i)) {
			h.preset = name
			h.seed = 0
			h.open(surface())
			slog.Info("preset switched", "preset", name)
		}
	}
}

// drawOverlays draws the HUD and perf panel over the field when enabled.
func (h *host) drawOverlays() {
	if h.showHUD {
		s := h.engine.Stats()
		h.hud.Draw(ui.HUDData{
			Preset:    h.engine.Config().Name,
			Seed:      h.engine.Seed(),
			FPS:       rl.GetFPS(),
			Particles: s.Particles,
			Edges:     s.Edges,
			Visible:   s.Visible,
			Streaks:   s.Streaks,
			Frames:    s.Frames,
			Skipped:   s.Skipped,
			AvgCost:   s.AvgCost,
			Budget:    h.engine.Config().Derived.Budget,
		})
		h.hud.DrawControls(int32(rl.GetScreenHeight()), "[R] reseed  [1-9] preset  [H] hud  [P] perf")
	}
	if h.showPerf {
		h.perfPanel.Draw(h.engine.Perf().Stats())
	}
}

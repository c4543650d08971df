// Ebiten host - runs a field in an ebiten window.
//
// Usage: go run ./cmd/ebitenfield [-config path] [-preset name]
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/pthm-cable/backdrop/config"
	"github.com/pthm-cable/backdrop/engine"
	"github.com/pthm-cable/backdrop/renderer/ebitencanvas"
)

type game struct {
	engine *engine.Engine
	canvas *ebitencanvas.Canvas
	scale  float64

	width, height int // logical window size
	last          time.Time
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.engine.Reseed(0)
	}

	// Cursor coordinates are in layout (device) pixels.
	x, y := ebiten.CursorPosition()
	if x >= 0 && y >= 0 && x < int(float64(g.width)*g.scale) && y < int(float64(g.height)*g.scale) {
		g.engine.Pointer().Move(float32(x), float32(y))
	} else {
		g.engine.Pointer().Leave()
	}
	g.engine.SetVisible(!ebiten.IsWindowMinimized())
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	now := time.Now()
	dt := now.Sub(g.last).Seconds()
	g.last = now

	g.canvas.Use(screen)
	g.engine.Frame(dt, g.canvas)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.engine.Resize(float32(outsideWidth), float32(outsideHeight))
	}
	return int(float64(outsideWidth) * g.scale), int(float64(outsideHeight) * g.scale)
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	preset := flag.String("preset", "", "Field preset (empty = config default)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = preset seed, then time-based)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	fc, err := cfg.Field(*preset)
	if err != nil {
		slog.Error("failed to select preset", "error", err)
		os.Exit(1)
	}
	e, err := engine.New(fc, engine.Options{Seed: *seed})
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	defer e.Dispose()

	scale := ebiten.Monitor().DeviceScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	g := &game{
		engine: e,
		canvas: ebitencanvas.New(float32(scale), true),
		scale:  scale,
		width:  cfg.Screen.Width,
		height: cfg.Screen.Height,
		last:   time.Now(),
	}
	e.Mount(engine.Surface{
		Width:  float32(g.width),
		Height: float32(g.height),
		Scale:  float32(scale),
	})

	ebiten.SetWindowSize(cfg.Screen.Width, cfg.Screen.Height)
	ebiten.SetWindowTitle("Backdrop - R: reseed, Esc/Q: quit")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Screen.TargetFPS)
	// Skipped frames keep the previous image on screen.
	ebiten.SetScreenClearedEveryFrame(false)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		slog.Error("game exited", "error", err)
		os.Exit(1)
	}
	slog.Info("exiting", "stats", e.Stats())
}

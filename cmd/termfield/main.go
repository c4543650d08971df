// Terminal host - runs a field in the terminal through tcell.
//
// Usage: go run ./cmd/termfield [-config path] [-preset name]
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/backdrop/config"
	"github.com/pthm-cable/backdrop/engine"
	"github.com/pthm-cable/backdrop/renderer/termcanvas"
)

// Nominal pixel size of one terminal cell; the surface is sized so each cell
// covers this many surface pixels.
const (
	cellPixW = 8
	cellPixH = 16
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	preset := flag.String("preset", "", "Field preset (empty = config default)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = preset seed, then time-based)")
	fps := flag.Int("fps", 30, "Frames per second")
	logPath := flag.String("log", "", "Write JSON logs to this file (terminal output is the field)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	fc, err := config.Preset(*preset)
	if err != nil {
		slog.Error("failed to select preset", "error", err)
		os.Exit(1)
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		slog.Error("failed to create screen", "error", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		slog.Error("failed to init screen", "error", err)
		os.Exit(1)
	}
	defer screen.Fini()

	// Logs would corrupt the screen; keep them only when a file is given.
	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			screen.Fini()
			slog.Error("failed to open log file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	e, err := engine.New(fc, engine.Options{Seed: *seed})
	if err != nil {
		screen.Fini()
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	screen.EnableMouse()
	screen.EnableFocus()
	screen.HideCursor()

	cols, rows := screen.Size()
	width, height := float32(cols*cellPixW), float32(rows*cellPixH)
	e.Mount(engine.Surface{Width: width, Height: height, Scale: 1})
	canvas := termcanvas.New(screen, width, height)

	loop := engine.NewLoop(e, canvas, *fps)
	loop.AfterFrame = func(rendered bool) {
		if s := e.Surface(); s.Width != width || s.Height != height {
			width, height = s.Width, s.Height
			canvas.SetSurface(width, height)
		}
		if rendered {
			canvas.Show()
		}
	}
	loop.Start(context.Background())

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for ev := range eventChan {
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
				loop.Stop()
				e.Dispose()
				return
			case ev.Rune() == 'r':
				loop.Post(func(e *engine.Engine) { e.Reseed(0) })
			}
		case *tcell.EventMouse:
			x, y := ev.Position()
			e.Pointer().MoveLocal(float32(x*cellPixW+cellPixW/2), float32(y*cellPixH+cellPixH/2))
		case *tcell.EventFocus:
			loop.SetVisible(ev.Focused)
			if !ev.Focused {
				e.Pointer().Leave()
			}
		case *tcell.EventResize:
			screen.Sync()
			c, r := ev.Size()
			loop.Resize(float32(c*cellPixW), float32(r*cellPixH))
		}
	}
}

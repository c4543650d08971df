// Package ui draws raylib overlays for the field hosts.
package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/backdrop/telemetry"
)

// Theme holds overlay styling constants.
type Theme struct {
	PanelBg     rl.Color
	PanelBorder rl.Color
	Padding     int32
	LineHeight  int32
	FontSize    int32
}

// DefaultTheme returns the default overlay theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:     rl.Color{R: 10, G: 14, B: 22, A: 200},
		PanelBorder: rl.Color{R: 60, G: 70, B: 90, A: 255},
		Padding:     8,
		LineHeight:  16,
		FontSize:    12,
	}
}

// HUDData holds everything the field HUD shows.
type HUDData struct {
	Preset    string
	Seed      int64
	FPS       int32
	Particles int
	Edges     int
	Visible   int
	Streaks   int
	Frames    uint64
	Skipped   uint64
	AvgCost   time.Duration
	Budget    time.Duration
}

// HUD renders the field status overlay.
type HUD struct {
	Theme Theme
}

// NewHUD creates a HUD with the default theme.
func NewHUD() *HUD {
	return &HUD{Theme: DefaultTheme()}
}

// Draw renders the status block in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	t := h.Theme
	x, y := t.Padding, t.Padding
	h.panel(x-4, y-4, 300, 5*t.LineHeight+8)

	rl.DrawText(fmt.Sprintf("%s  seed %d", data.Preset, data.Seed), x, y, 16, rl.White)
	y += t.LineHeight + 4

	rl.DrawText(
		fmt.Sprintf("Particles: %d | Visible: %d | Edges: %d", data.Particles, data.Visible, data.Edges),
		x, y, t.FontSize, rl.LightGray,
	)
	y += t.LineHeight

	rl.DrawText(
		fmt.Sprintf("FPS: %d | Frames: %d | Streaks: %d", data.FPS, data.Frames, data.Streaks),
		x, y, t.FontSize, rl.LightGray,
	)
	y += t.LineHeight

	// Governor status: cost against budget, red once renders are being skipped.
	costColor := rl.LightGray
	if data.Budget > 0 && data.AvgCost > data.Budget {
		costColor = rl.Red
	}
	rl.DrawText(
		fmt.Sprintf("Cost: %s / %s | Skipped: %d",
			data.AvgCost.Round(time.Microsecond), data.Budget.Round(time.Microsecond), data.Skipped),
		x, y, t.FontSize, costColor,
	)
	y += t.LineHeight
	h.budgetBar(x, y, 280, data.AvgCost, data.Budget)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, h.Theme.Padding, screenHeight-22, 14, rl.Gray)
}

func (h *HUD) budgetBar(x, y, width int32, cost, budget time.Duration) {
	rl.DrawRectangle(x, y+2, width, 6, rl.Color{R: 40, G: 40, B: 40, A: 255})
	if budget <= 0 {
		return
	}
	frac := float32(cost) / float32(budget)
	fill := rl.Color{R: 100, G: 200, B: 100, A: 255}
	switch {
	case frac > 1:
		fill = rl.Color{R: 200, G: 100, B: 100, A: 255}
		frac = 1
	case frac > 0.75:
		fill = rl.Color{R: 200, G: 180, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, int32(float32(width)*frac), 6, fill)
}

func (h *HUD) panel(x, y, w, hgt int32) {
	rl.DrawRectangle(x, y, w, hgt, h.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, w, hgt, h.Theme.PanelBorder)
}

// PerfPanel renders the frame phase breakdown.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a perf panel at the given position.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the phase averages from a perf window.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Frame Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s  skipped %.0f%%",
		stats.AvgFrameDuration.Round(time.Microsecond), stats.SkippedFrac*100), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.PhaseOrder {
		avg := stats.PhaseAvg[name]
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-8s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/backdrop/renderer"
)

// Loop runs an engine on its own goroutine at a fixed tick rate for hosts
// that have no frame callback of their own. While the loop runs, only the
// loop goroutine touches the engine; other goroutines use the Loop methods
// and the engine's PointerBridge.
type Loop struct {
	engine   *Engine
	canvas   renderer.Canvas
	interval time.Duration

	// AfterFrame, when set, runs on the loop goroutine after every frame,
	// e.g. to present a terminal screen.
	AfterFrame func(rendered bool)

	visible    atomic.Bool
	inCallback atomic.Bool // set while AfterFrame or a posted fn runs
	mu         sync.Mutex
	resize  *[2]float32 // latest pending resize
	posted  []func(e *Engine)
	cancel  context.CancelFunc
	done    chan struct{}
	frames  atomic.Uint64
}

// NewLoop creates a stopped loop driving e onto c at fps frames per second.
func NewLoop(e *Engine, c renderer.Canvas, fps int) *Loop {
	if fps < 1 {
		fps = 60
	}
	l := &Loop{
		engine:   e,
		canvas:   c,
		interval: time.Second / time.Duration(fps),
	}
	l.visible.Store(true)
	return l
}

// Start launches the frame goroutine. It stops when ctx is cancelled or Stop
// is called. Starting a running loop does nothing.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

// Stop cancels the loop and waits for the goroutine to exit. No frame runs
// after Stop returns. Called from AfterFrame or a posted function, Stop only
// cancels; the goroutine exits once that callback returns.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if l.inCallback.Load() {
		return
	}
	<-done
}

// SetVisible pauses or resumes frames without stopping the goroutine.
func (l *Loop) SetVisible(visible bool) {
	l.visible.Store(visible)
}

// Resize queues new surface dimensions; the loop applies the latest request
// before its next frame.
func (l *Loop) Resize(width, height float32) {
	l.mu.Lock()
	l.resize = &[2]float32{width, height}
	l.mu.Unlock()
}

// Post queues fn to run on the loop goroutine before the next frame. Use it
// for engine calls other than pointer updates while the loop is running.
func (l *Loop) Post(fn func(e *Engine)) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

// Frames returns the number of ticks processed, including hidden ones.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	last := l.engine.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// A tick and a cancel can be ready together; cancellation wins.
		if ctx.Err() != nil {
			return
		}

		now := l.engine.now()
		dt := now.Sub(last).Seconds()
		last = now

		l.mu.Lock()
		pending := l.resize
		l.resize = nil
		posted := l.posted
		l.posted = nil
		l.mu.Unlock()
		if pending != nil {
			l.engine.Resize(pending[0], pending[1])
		}
		if len(posted) > 0 {
			l.inCallback.Store(true)
			for _, fn := range posted {
				fn(l.engine)
			}
			l.inCallback.Store(false)
		}
		if ctx.Err() != nil {
			return
		}

		l.engine.SetVisible(l.visible.Load())
		rendered := l.engine.Frame(dt, l.canvas)
		l.frames.Add(1)
		if l.AfterFrame != nil {
			l.inCallback.Store(true)
			l.AfterFrame(rendered)
			l.inCallback.Store(false)
		}
	}
}

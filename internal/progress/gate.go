package progress

import (
	"context"
	"sync"
)

// Gate implements cooperative, process-wide pause/resume. Pausing is advisory:
// only operations that call CheckPause at their suspension points are held;
// work already in flight runs to completion. There is no cancellation here;
// Resume releases every waiter in one broadcast.
type Gate struct {
	mu     sync.Mutex
	paused bool
	wait   chan struct{}
}

// NewGate constructs an unpaused gate.
func NewGate() *Gate {
	return &Gate{}
}

// Pause sets the pause flag. Subsequent CheckPause calls block until Resume.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return
	}
	g.paused = true
	g.wait = make(chan struct{})
}

// Resume clears the pause flag and releases all current waiters at once.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return
	}
	g.paused = false
	close(g.wait)
	g.wait = nil
}

// Paused reports the current flag state.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// CheckPause returns immediately when not paused; otherwise it blocks until
// Resume is called or the context is done.
func (g *Gate) CheckPause(ctx context.Context) error {
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	wait := g.wait
	g.mu.Unlock()

	select {
	case <-wait:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

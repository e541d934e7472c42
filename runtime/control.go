package aruntime

import (
	"context"
	"sync"
)

// pauseGate blocks statement execution while paused. Resume closes the
// channel the waiters hold, so nothing polls.
type pauseGate struct {
	mu sync.Mutex
	ch chan struct{}
}

func (g *pauseGate) pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ch == nil {
		g.ch = make(chan struct{})
	}
}

func (g *pauseGate) resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ch != nil {
		close(g.ch)
		g.ch = nil
	}
}

func (g *pauseGate) paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ch != nil
}

func (g *pauseGate) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends the current run at the next statement boundary. Blocked input
// and step callbacks see their context cancelled. It does nothing between runs.
func (in *Interpreter) Stop() {
	in.cancelMu.Lock()
	defer in.cancelMu.Unlock()
	if !in.running.IsSet() {
		return
	}
	in.stopped.Set()
	if in.cancel != nil {
		in.cancel()
	}
}

// Pause suspends the run before its next statement until Resume.
func (in *Interpreter) Pause() {
	in.gate.pause()
}

func (in *Interpreter) Resume() {
	in.gate.resume()
}

func (in *Interpreter) Paused() bool {
	return in.gate.paused()
}

// Running reports whether Execute is in progress.
func (in *Interpreter) Running() bool {
	return in.running.IsSet()
}

func (in *Interpreter) checkStopped(ctx context.Context) error {
	if in.stopped.IsSet() || ctx.Err() != nil {
		return ErrStopped
	}
	return nil
}

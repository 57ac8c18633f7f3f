package sim

import (
	"context"
	"sync"
)

// gate is the engine's pause switch. It holds a channel that is closed
// while the gate is open; waiters then pass straight through. Pause swaps
// in a fresh open channel, parking waiters until Resume closes it. No
// waiter ever polls.
type gate struct {
	mu     sync.Mutex
	ch     chan struct{}
	paused bool
}

func newGate() *gate {
	ch := make(chan struct{})
	close(ch)
	return &gate{ch: ch}
}

// wait blocks while the gate is paused. It returns ctx.Err() if the
// context ends first.
func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return
	}
	g.paused = true
	g.ch = make(chan struct{})
}

func (g *gate) resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return
	}
	g.paused = false
	close(g.ch)
}

func (g *gate) isPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

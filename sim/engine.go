package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// defaultMinInterval floors sampled inter-arrival intervals so a
	// degenerate distribution cannot stall the clock.
	defaultMinInterval = 1e-6

	defaultThroughputWindow = Time(10)

	// paceResolution is the smallest wall delay worth sleeping for.
	// Shorter delays accrue as debt and are paid in one sleep.
	paceResolution = time.Millisecond

	// yieldEvery bounds how many events may execute back to back without
	// a cancellation check when pacing is not sleeping.
	yieldEvery = 1024

	// maxPaceSlice caps a single pacing sleep.
	maxPaceSlice = time.Hour
)

var (
	// ErrNotInitialized is returned by run and control methods called
	// before Initialize.
	ErrNotInitialized = errors.New("engine not initialized")
	// ErrRunning is returned when an operation requires the engine to be
	// stopped but a Run is active.
	ErrRunning = errors.New("engine is running")
)

// Options configures an Engine at construction.
type Options struct {
	// Seed fixes the run's pseudo-random stream. Equal seeds over equal
	// graphs replay identical runs.
	Seed int64
	// Speed is the initial real-time multiplier: simulated delta / Speed
	// seconds of wall time per event. Zero means 1. Non-positive values
	// set via SetSpeed select fast-forward.
	Speed float64
	// MaxClock stops a run once the next event lies beyond it. Zero means
	// unbounded.
	MaxClock Time
	// MinInterval overrides the generator interval floor. Zero keeps the
	// default.
	MinInterval float64
}

// Engine owns one simulation: the node graph, the command queue, the clock,
// and per-counter statistics. All event execution happens on the single
// goroutine inside Run (or the caller's goroutine via Step); control
// methods and snapshot reads are safe from any goroutine.
type Engine struct {
	opts Options

	mu      sync.Mutex
	graph   *Graph
	lookup  ConfigLookup
	state   *State
	sampler *Sampler
	runID   uuid.UUID
	running bool
	cancel  context.CancelFunc
	warned  map[string]struct{}

	obsMu     sync.Mutex
	observers []Observer

	gate      *gate
	speedBits atomic.Uint64
	clockBits atomic.Uint64

	paceDebt   time.Duration
	sinceYield int
}

// New returns an engine with the given options. Initialize must be called
// before Run or Step.
func New(opts Options) *Engine {
	if opts.Speed == 0 {
		opts.Speed = 1
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultMinInterval
	}
	e := &Engine{
		opts:   opts,
		gate:   newGate(),
		warned: make(map[string]struct{}),
	}
	e.speedBits.Store(math.Float64bits(opts.Speed))
	return e
}

// Initialize binds the engine to a graph and role-config lookup and arms
// the first generator ticks. Calling it again discards all prior run state.
// It fails while a Run is active.
func (e *Engine) Initialize(g *Graph, lookup ConfigLookup) error {
	if g == nil || lookup == nil {
		return errors.New("graph and config lookup are required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrRunning
	}
	e.graph = g
	e.lookup = lookup
	return e.rearmLocked()
}

// Reset rebuilds run state from the graph and lookup passed to Initialize:
// fresh clock, queue, statistics, and a pseudo-random stream reseeded from
// the original seed. It fails while a Run is active.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrRunning
	}
	if e.graph == nil {
		return ErrNotInitialized
	}
	return e.rearmLocked()
}

func (e *Engine) rearmLocked() error {
	st := newState()
	for _, id := range e.graph.Nodes() {
		cfg := e.lookup(id)
		switch cfg.Role {
		case RoleGenerator:
			if cfg.Generator == nil {
				return fmt.Errorf("node %s has role %s but no generator config", id, RoleGenerator)
			}
			st.queue.push(scheduledCommand{
				time: cfg.Generator.StartTime,
				seq:  st.nextSequence(),
				cmd:  Command{Kind: CmdGeneratorTick, Node: id},
			})
		case RoleCounter:
			window := defaultThroughputWindow
			if cfg.Counter != nil && cfg.Counter.ThroughputWindow > 0 {
				window = cfg.Counter.ThroughputWindow
			}
			st.counters[id] = newCounterStats(window)
		}
	}
	e.state = st
	e.sampler = NewSampler(e.opts.Seed)
	e.runID = uuid.New()
	e.warned = make(map[string]struct{})
	e.paceDebt = 0
	e.sinceYield = 0
	e.publishClock(0)
	logrus.Debugf("run %s armed: %d nodes, %d initial events", e.runID, len(e.graph.Nodes()), st.queue.Len())
	return nil
}

// Run consumes scheduled commands in (time, sequence) order until the queue
// drains, MaxClock is passed, or ctx ends. Each command executes to
// completion; cancellation and pause are honored only between commands.
// Run returns nil on a drained queue or horizon stop and ctx.Err() on
// cancellation.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.state == nil {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	if e.running {
		e.mu.Unlock()
		return ErrRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.running = true
	e.cancel = cancel
	st := e.state
	id := e.runID
	e.mu.Unlock()

	defer func() {
		cancel()
		e.mu.Lock()
		e.running = false
		e.cancel = nil
		e.mu.Unlock()
	}()

	logrus.Infof("run %s starting: seed=%d speed=%.3g events=%d", id, e.opts.Seed, e.speed(), st.queue.Len())
	for {
		if err := e.gate.wait(runCtx); err != nil {
			return err
		}
		next, ok := st.queue.peek()
		if !ok {
			logrus.Infof("run %s drained at t=%.6g after %d entities", id, float64(st.clock), st.nextEntityID)
			return nil
		}
		if e.opts.MaxClock > 0 && next.time > e.opts.MaxClock {
			logrus.Infof("run %s reached horizon %.6g with %d events pending", id, float64(e.opts.MaxClock), st.queue.Len())
			return nil
		}
		sc, _ := st.queue.pop()
		prev := st.clock
		st.clock = sc.time
		e.publishClock(sc.time)
		e.execute(sc.cmd)
		e.timeUpdated(sc.time)
		if err := e.pace(runCtx, sc.time-prev); err != nil {
			return err
		}
	}
}

// Step executes exactly one scheduled command with no pacing and no pause
// gate, for host-driven stepping. It reports false when nothing is left to
// execute (drained queue or horizon reached). It fails while a Run is
// active.
func (e *Engine) Step() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return false, ErrNotInitialized
	}
	if e.running {
		return false, ErrRunning
	}
	next, ok := e.state.queue.peek()
	if !ok {
		return false, nil
	}
	if e.opts.MaxClock > 0 && next.time > e.opts.MaxClock {
		return false, nil
	}
	sc, _ := e.state.queue.pop()
	e.state.clock = sc.time
	e.publishClock(sc.time)
	e.execute(sc.cmd)
	e.timeUpdated(sc.time)
	return true, nil
}

// execute dispatches one command. It runs on the event goroutine only.
func (e *Engine) execute(cmd Command) {
	switch cmd.Kind {
	case CmdGeneratorTick:
		e.generatorTick(cmd.Node)
	case CmdDeliverEntity:
		if cmd.Entity == nil {
			e.warnOncef("dropping %s command for %s with no entity", cmd.Kind, cmd.Node)
			return
		}
		e.notify(Notification{
			Time:    e.state.clock,
			Kind:    EntityCreated,
			Node:    cmd.Node,
			Entity:  cmd.Entity.Snapshot(),
			Message: fmt.Sprintf("injected %s #%d", cmd.Entity.Type, cmd.Entity.ID),
		})
		e.sendToNode(cmd.Entity, cmd.Node, 0)
	default:
		e.warnOncef("unknown command kind %q for node %s", cmd.Kind, cmd.Node)
	}
}

// Inject schedules an externally supplied entity to enter the graph at
// node when the clock reaches at. The entity id is assigned immediately.
// Inject shares the event thread's state: call it before Run starts, or
// from an observer callback, never from another goroutine mid-run.
func (e *Engine) Inject(at Time, node NodeID, entityType string, attrs map[string]string) error {
	if e.state == nil {
		return ErrNotInitialized
	}
	if !e.graph.Contains(node) {
		return fmt.Errorf("inject target %s is not in the graph", node)
	}
	en := &Entity{
		ID:          e.state.newEntityID(),
		Type:        entityType,
		CreatedAt:   at,
		SourceNode:  node,
		CurrentNode: node,
		Attributes:  copyAttributes(attrs),
	}
	e.schedule(at, Command{Kind: CmdDeliverEntity, Node: node, Entity: en})
	return nil
}

// Pause parks the run loop before the next command. The queue and clock
// are untouched. Safe from any goroutine; a no-op when already paused.
func (e *Engine) Pause() {
	e.gate.pause()
}

// Resume releases a paused run loop. A no-op when not paused.
func (e *Engine) Resume() {
	e.gate.resume()
}

// Paused reports whether the pause gate is closed.
func (e *Engine) Paused() bool {
	return e.gate.isPaused()
}

// Stop cancels the active Run, if any. The run returns context.Canceled.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		// A paused run still has to observe the cancellation.
		cancel()
	}
}

// SetSpeed changes the real-time multiplier. It takes effect at the next
// pacing computation. Non-positive values select fast-forward: no
// proportional delay, only periodic cancellable yields.
func (e *Engine) SetSpeed(speed float64) {
	e.speedBits.Store(math.Float64bits(speed))
}

// Subscribe registers an observer for notifications and clock updates.
// Observers registered mid-run start receiving from the next event.
func (e *Engine) Subscribe(o Observer) {
	if o == nil {
		return
	}
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, o)
}

// CounterStats returns a snapshot for the given counter node. ok is false
// when the node is not a counter in the current graph.
func (e *Engine) CounterStats(id NodeID) (CounterStatsSnapshot, bool) {
	e.mu.Lock()
	st := e.state
	e.mu.Unlock()
	if st == nil {
		return CounterStatsSnapshot{}, false
	}
	c, ok := st.counters[id]
	if !ok {
		return CounterStatsSnapshot{}, false
	}
	return c.Snapshot(), true
}

// Now returns the last published simulated time. Safe mid-run.
func (e *Engine) Now() Time {
	return Time(math.Float64frombits(e.clockBits.Load()))
}

// RunID identifies the current initialized run.
func (e *Engine) RunID() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

// Pending returns how many commands remain scheduled.
func (e *Engine) Pending() int {
	e.mu.Lock()
	st := e.state
	e.mu.Unlock()
	if st == nil {
		return 0
	}
	return st.PendingEvents()
}

func (e *Engine) schedule(at Time, cmd Command) {
	e.state.queue.push(scheduledCommand{time: at, seq: e.state.nextSequence(), cmd: cmd})
}

func (e *Engine) speed() float64 {
	return math.Float64frombits(e.speedBits.Load())
}

func (e *Engine) publishClock(t Time) {
	e.clockBits.Store(math.Float64bits(float64(t)))
}

// pace converts the simulated delta just consumed into wall time. Delays
// under paceResolution accrue as debt so high event rates do not turn into
// thousands of sub-millisecond sleeps; in fast-forward the loop only
// performs a periodic cancellable yield.
func (e *Engine) pace(ctx context.Context, delta Time) error {
	speed := e.speed()
	if speed > 0 {
		w := float64(delta) / speed * float64(time.Second)
		if w > float64(maxPaceSlice) {
			w = float64(maxPaceSlice)
		}
		e.paceDebt += time.Duration(w)
		if e.paceDebt >= paceResolution {
			d := e.paceDebt
			e.paceDebt = 0
			e.sinceYield = 0
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	e.sinceYield++
	if e.sinceYield >= yieldEvery {
		e.sinceYield = 0
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		runtime.Gosched()
	}
	return nil
}

func (e *Engine) notify(n Notification) {
	for _, o := range e.snapshotObservers() {
		o.OnNotification(n)
	}
}

func (e *Engine) timeUpdated(now Time) {
	for _, o := range e.snapshotObservers() {
		o.OnTimeUpdated(now)
	}
}

// snapshotObservers grabs the observer slice header so fan-out runs
// without the lock held. Subscribe only appends, so the elements under an
// old header are never rewritten.
func (e *Engine) snapshotObservers() []Observer {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	return e.observers
}

// warnOncef logs a warning the first time its formatted message occurs in
// a run. Routing and generator diagnostics use it so a hot loop cannot
// flood the log.
func (e *Engine) warnOncef(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if _, seen := e.warned[msg]; seen {
		return
	}
	e.warned[msg] = struct{}{}
	logrus.Warn(msg)
}

package sim

import (
	"sync"
	"testing"
)

// newTestEngine builds and initializes an engine over the given topology.
// Nodes absent from cfgs resolve to the zero RoleConfig, which the engine
// treats as a generic pass-through.
func newTestEngine(t *testing.T, opts Options, nodes []NodeID, edges []Edge, cfgs map[NodeID]RoleConfig) *Engine {
	t.Helper()
	e := New(opts)
	if err := e.Initialize(NewGraph(nodes, edges), func(id NodeID) RoleConfig { return cfgs[id] }); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return e
}

// eventLog is an Observer that records everything an engine emits, in order.
// It locks internally so tests can read while a Run goroutine is emitting.
type eventLog struct {
	mu            sync.Mutex
	notifications []Notification
	times         []Time
}

func (l *eventLog) OnNotification(n Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifications = append(l.notifications, n)
}

func (l *eventLog) OnTimeUpdated(now Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.times = append(l.times, now)
}

func (l *eventLog) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.notifications)
}

func (l *eventLog) clockUpdates() []Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Time(nil), l.times...)
}

func (l *eventLog) ofKind(kind NotificationKind) []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Notification
	for _, n := range l.notifications {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (l *eventLog) countKind(kind NotificationKind) int {
	return len(l.ofKind(kind))
}

// consumedByNode tallies EntityConsumed notifications per sink node.
func (l *eventLog) consumedByNode() map[NodeID]int {
	out := make(map[NodeID]int)
	for _, n := range l.ofKind(EntityConsumed) {
		out[n.Node]++
	}
	return out
}

// eventKey is the comparable digest used for replay-equality assertions.
type eventKey struct {
	Time Time
	Kind NotificationKind
	Node NodeID
	ID   uint64
}

func (l *eventLog) keys() []eventKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]eventKey, len(l.notifications))
	for i, n := range l.notifications {
		out[i] = eventKey{Time: n.Time, Kind: n.Kind, Node: n.Node, ID: n.Entity.ID}
	}
	return out
}

// runToCompletion drains the engine synchronously via Step.
func runToCompletion(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; ; i++ {
		if i > 1_000_000 {
			t.Fatal("run did not drain within 1e6 steps")
		}
		more, err := e.Step()
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if !more {
			return
		}
	}
}

// constantGenerator is the workhorse test config: fixed interval, fixed
// entity count.
func constantGenerator(interval float64, count int) RoleConfig {
	return RoleConfig{Role: RoleGenerator, Generator: &GeneratorConfig{
		EntityType:   "job",
		Distribution: Dist{Kind: DistConstant, Param1: interval},
		Termination:  TerminateCount,
		MaxEntities:  count,
	}}
}

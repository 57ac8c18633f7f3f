// All mutable run state lives in one explicit aggregate owned by the engine
// loop, so multiple engine instances can coexist in a process and tests can
// inspect a run without reaching into package globals.

package sim

// State aggregates everything a single run mutates: the clock, the command
// queue, the id/sequence counters, per-generator emission ledgers, and
// per-counter statistics. It is owned exclusively by the engine's logical
// event thread; external readers only ever see snapshots.
type State struct {
	clock Time
	queue commandQueue

	nextEntityID uint64
	nextSeq      uint64

	// emitted tracks per-generator emission counts for count-based
	// termination. Reset wipes it along with everything else.
	emitted map[NodeID]int

	counters map[NodeID]*CounterStats
}

func newState() *State {
	return &State{
		queue:    make(commandQueue, 0),
		emitted:  make(map[NodeID]int),
		counters: make(map[NodeID]*CounterStats),
	}
}

// Clock returns the current simulated time.
func (s *State) Clock() Time {
	return s.clock
}

// PendingEvents returns the number of commands still scheduled.
func (s *State) PendingEvents() int {
	return s.queue.Len()
}

// Emitted returns how many entities the given generator has emitted so far
// this run.
func (s *State) Emitted(id NodeID) int {
	return s.emitted[id]
}

// newEntityID assigns the next monotonically increasing entity id.
func (s *State) newEntityID() uint64 {
	s.nextEntityID++
	return s.nextEntityID
}

// nextSequence assigns the next enqueue sequence number.
func (s *State) nextSequence() uint64 {
	s.nextSeq++
	return s.nextSeq
}

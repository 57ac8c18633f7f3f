// Defines the Entity struct that models a single unit flowing through the
// simulated node graph, plus the cloning rules used for multi-edge broadcast.

package sim

import "fmt"

// Time is a simulated timestamp or duration, in abstract simulation units.
// It is decoupled from wall-clock time: the engine advances it only when an
// event is consumed, and the pacing layer decides how fast units elapse in
// real time.
type Time float64

// Entity models a discrete unit created by a generator node and routed
// through the graph until it is consumed at a sink or absorbed by a node
// with no outgoing edges.
type Entity struct {
	ID uint64 // Unique, monotonically assigned per run

	Type      string // Entity type name from the originating generator
	ColorHint string // Display hint carried along for observers

	CreatedAt   Time   // Simulation time of creation; shared by clones
	SourceNode  NodeID // Generator that created this entity; shared by clones
	CurrentNode NodeID // Node the entity most recently arrived at

	// Attributes carries free-form metadata. Clones receive their own copy
	// so downstream branches cannot see each other's mutations.
	Attributes map[string]string
}

// Snapshot returns a detached copy safe to hand to observers. The attribute
// map is copied so observers never alias live engine state.
func (en *Entity) Snapshot() Entity {
	snap := *en
	snap.Attributes = copyAttributes(en.Attributes)
	return snap
}

// This method returns a human-readable string representation of an Entity.
func (en Entity) String() string {
	return fmt.Sprintf("Entity: (ID: %d, Type: %s, CreatedAt: %v, At: %s)", en.ID, en.Type, en.CreatedAt, en.CurrentNode)
}

func copyAttributes(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// Scheduled work is expressed as tagged commands rather than captured
// closures, so the queue stays inspectable and a pending run can be examined
// or logged without executing anything.

package sim

import "fmt"

// CommandKind discriminates the payload of a scheduled Command.
type CommandKind string

const (
	// CmdGeneratorTick runs one emission tick of the generator at Node.
	CmdGeneratorTick CommandKind = "GeneratorTick"
	// CmdDeliverEntity hands Entity to Node as if it had just arrived there.
	// Used for externally injected entities; in-run routing cascades
	// synchronously and never round-trips through the queue.
	CmdDeliverEntity CommandKind = "DeliverEntity"
)

// Command is the unit of scheduled work: what to do, where, and with which
// payload. Entity is nil for every kind except CmdDeliverEntity.
type Command struct {
	Kind   CommandKind
	Node   NodeID
	Entity *Entity
}

func (c Command) String() string {
	if c.Entity != nil {
		return fmt.Sprintf("%s(%s, entity %d)", c.Kind, c.Node, c.Entity.ID)
	}
	return fmt.Sprintf("%s(%s)", c.Kind, c.Node)
}

// scheduledCommand wraps a Command with its execution time and the sequence
// number assigned at enqueue, which breaks ties among equal timestamps so
// replay order is a strict total order.
type scheduledCommand struct {
	time Time
	seq  uint64
	cmd  Command
}

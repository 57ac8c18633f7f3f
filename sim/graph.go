// Defines the node/edge topology the engine routes entities through, the
// simulation roles a node can take, and the per-role configuration structs.
// The topology is supplied once at Initialize and treated as read-only for
// the duration of a run.

package sim

import (
	"github.com/sirupsen/logrus"
)

// NodeID identifies a node in the simulated graph.
type NodeID string

// Role determines how a node processes arriving entities.
type Role string

const (
	// RoleGenerator creates entities on a stochastic or fixed schedule.
	RoleGenerator Role = "generator"
	// RoleCounter records arrival statistics, then passes entities on.
	RoleCounter Role = "counter"
	// RoleChance selects one outgoing edge per entity by configured probability.
	RoleChance Role = "chance"
	// RoleSink consumes entities terminally.
	RoleSink Role = "sink"
	// RoleClock is informational; entities pass through unchanged.
	RoleClock Role = "clock"
	// RoleDashboard is informational; entities pass through unchanged.
	RoleDashboard Role = "dashboard"
	// RoleGeneric is the pass-through default for unconfigured nodes.
	RoleGeneric Role = "generic"
)

// TimingMode controls how a generator interprets its distribution samples.
type TimingMode string

const (
	// TimingInterval treats each sample as an inter-arrival interval.
	TimingInterval TimingMode = "interval"
	// TimingRatePerUnit treats each sample as a rate; the interval is its inverse.
	TimingRatePerUnit TimingMode = "rate"
)

// Termination controls when a generator stops emitting.
type Termination string

const (
	TerminateNone        Termination = "none"
	TerminateTime        Termination = "time"
	TerminateCount       Termination = "count"
	TerminateCountOrTime Termination = "count-or-time"
)

// stopsAtTime reports whether the termination rule bounds emission by StopTime.
func (t Termination) stopsAtTime() bool {
	return t == TerminateTime || t == TerminateCountOrTime
}

// stopsAtCount reports whether the termination rule bounds emission by MaxEntities.
func (t Termination) stopsAtCount() bool {
	return t == TerminateCount || t == TerminateCountOrTime
}

// GeneratorConfig parameterizes a generator node.
type GeneratorConfig struct {
	EntityType   string // Type name stamped on emitted entities
	Color        string // Color hint stamped on emitted entities
	BatchSize    int    // Entities emitted per tick (minimum 1)
	StartTime    Time   // Simulation time of the first tick
	StopTime     Time   // Emission ceiling for time-bounded termination
	MaxEntities  int    // Emission ceiling for count-bounded termination
	Distribution Dist   // Inter-arrival distribution
	TimingMode   TimingMode
	Termination  Termination
}

// CounterConfig parameterizes a counter node.
type CounterConfig struct {
	// ThroughputWindow is the trailing window length used for the windowed
	// throughput estimate. Nonpositive windows fall back to the engine
	// default.
	ThroughputWindow Time
}

// ChanceConfig parameterizes a chance node. Branches holds one probability
// per outgoing edge, matched by declaration position. A mismatched branch
// count is not an error: the router falls back to broadcast.
type ChanceConfig struct {
	Branches []float64
}

// SinkConfig parameterizes a sink node.
type SinkConfig struct {
	Name string
}

// RoleConfig resolves a node to its simulation role and the matching
// role-specific configuration. Exactly one of the pointer fields is expected
// to be set for the configured role; the engine treats any inconsistency as
// a generic pass-through.
type RoleConfig struct {
	Role      Role
	Generator *GeneratorConfig
	Counter   *CounterConfig
	Chance    *ChanceConfig
	Sink      *SinkConfig
}

// ConfigLookup resolves a node to its role configuration. The engine treats
// unknown nodes (zero RoleConfig) as generic pass-throughs.
type ConfigLookup func(NodeID) RoleConfig

// Edge is a directed connection between two nodes.
type Edge struct {
	From NodeID
	To   NodeID
}

// Graph is the read-only topology a run executes against. Outgoing edges
// preserve declaration order, which is what maps chance branch probabilities
// to edges by position.
type Graph struct {
	nodes []NodeID
	known map[NodeID]struct{}
	out   map[NodeID][]NodeID
}

// NewGraph builds a Graph from node IDs and directed edges. Duplicate node
// IDs collapse to one. Edges referencing unknown endpoints are dropped with
// a warning rather than failing the build.
func NewGraph(nodes []NodeID, edges []Edge) *Graph {
	g := &Graph{
		known: make(map[NodeID]struct{}, len(nodes)),
		out:   make(map[NodeID][]NodeID),
	}
	for _, id := range nodes {
		if _, dup := g.known[id]; dup {
			continue
		}
		g.known[id] = struct{}{}
		g.nodes = append(g.nodes, id)
	}
	for _, e := range edges {
		if _, ok := g.known[e.From]; !ok {
			logrus.Warnf("graph: dropping edge %s -> %s: unknown source node", e.From, e.To)
			continue
		}
		if _, ok := g.known[e.To]; !ok {
			logrus.Warnf("graph: dropping edge %s -> %s: unknown target node", e.From, e.To)
			continue
		}
		g.out[e.From] = append(g.out[e.From], e.To)
	}
	return g
}

// Nodes returns all node IDs in declaration order. The engine relies on this
// order when seeding generators, so runs stay deterministic.
func (g *Graph) Nodes() []NodeID {
	return g.nodes
}

// Outgoing returns the outgoing neighbor list of a node in edge declaration
// order. Unknown nodes have no outgoing edges.
func (g *Graph) Outgoing(id NodeID) []NodeID {
	return g.out[id]
}

// Contains reports whether the node is part of the graph.
func (g *Graph) Contains(id NodeID) bool {
	_, ok := g.known[id]
	return ok
}

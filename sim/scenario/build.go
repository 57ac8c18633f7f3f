package scenario

import (
	"github.com/flowsim/flowsim/sim"
)

// Build converts a validated scenario into the graph and role lookup the
// engine consumes. Edges with unknown endpoints are dropped by the graph
// constructor with a warning.
func (s *Scenario) Build() (*sim.Graph, sim.ConfigLookup) {
	nodes := make([]sim.NodeID, 0, len(s.Nodes))
	configs := make(map[sim.NodeID]sim.RoleConfig, len(s.Nodes))
	for _, n := range s.Nodes {
		id := sim.NodeID(n.ID)
		nodes = append(nodes, id)
		configs[id] = n.roleConfig()
	}
	edges := make([]sim.Edge, 0, len(s.Edges))
	for _, e := range s.Edges {
		edges = append(edges, sim.Edge{From: sim.NodeID(e.From), To: sim.NodeID(e.To)})
	}
	graph := sim.NewGraph(nodes, edges)
	lookup := func(id sim.NodeID) sim.RoleConfig {
		return configs[id]
	}
	return graph, lookup
}

// Options maps the scenario's run parameters onto engine options.
func (s *Scenario) Options() sim.Options {
	return sim.Options{
		Seed:     s.Seed,
		Speed:    s.Speed,
		MaxClock: sim.Time(s.MaxClock),
	}
}

func (n *NodeSpec) roleConfig() sim.RoleConfig {
	cfg := sim.RoleConfig{Role: roleFor(n.Role)}
	switch cfg.Role {
	case sim.RoleGenerator:
		if n.Generator != nil {
			cfg.Generator = n.Generator.config()
		}
	case sim.RoleCounter:
		if n.Counter != nil {
			cfg.Counter = &sim.CounterConfig{ThroughputWindow: sim.Time(n.Counter.ThroughputWindow)}
		}
	case sim.RoleChance:
		if n.Chance != nil {
			branches := make([]float64, len(n.Chance.Branches))
			copy(branches, n.Chance.Branches)
			cfg.Chance = &sim.ChanceConfig{Branches: branches}
		}
	case sim.RoleSink:
		if n.Sink != nil {
			cfg.Sink = &sim.SinkConfig{Name: n.Sink.Name}
		}
	}
	return cfg
}

func (g *GeneratorSpec) config() *sim.GeneratorConfig {
	batch := g.BatchSize
	if batch == 0 {
		batch = 1
	}
	return &sim.GeneratorConfig{
		EntityType:  g.EntityType,
		Color:       g.Color,
		BatchSize:   batch,
		StartTime:   sim.Time(g.StartTime),
		StopTime:    sim.Time(g.StopTime),
		MaxEntities: g.MaxEntities,
		Distribution: sim.Dist{
			Kind:   sim.DistKind(g.Distribution.Kind),
			Param1: g.Distribution.Param1,
			Param2: g.Distribution.Param2,
			Param3: g.Distribution.Param3,
		},
		TimingMode:  timingFor(g.TimingMode),
		Termination: terminationFor(g.Termination),
	}
}

func roleFor(role string) sim.Role {
	switch role {
	case "generator":
		return sim.RoleGenerator
	case "counter":
		return sim.RoleCounter
	case "chance":
		return sim.RoleChance
	case "sink":
		return sim.RoleSink
	case "clock":
		return sim.RoleClock
	case "dashboard":
		return sim.RoleDashboard
	default:
		return sim.RoleGeneric
	}
}

func timingFor(mode string) sim.TimingMode {
	if mode == "rate" {
		return sim.TimingRatePerUnit
	}
	return sim.TimingInterval
}

func terminationFor(term string) sim.Termination {
	switch term {
	case "time":
		return sim.TerminateTime
	case "count":
		return sim.TerminateCount
	case "count-or-time":
		return sim.TerminateCountOrTime
	default:
		return sim.TerminateNone
	}
}

package sim

import "fmt"

// maxRouteHops bounds synchronous routing depth so a pass-through cycle
// (counters and generic nodes wired in a loop with no sink) cannot hang
// the event thread.
const maxRouteHops = 10000

// routeEntity forwards en along the outgoing edges of from. Zero edges
// absorb the entity silently. A chance node whose branch list matches its
// edge count picks exactly one edge from a single uniform draw; every
// other shape broadcasts, cloning for all recipients past the first.
func (e *Engine) routeEntity(en *Entity, from NodeID) {
	e.route(en, from, 0)
}

func (e *Engine) route(en *Entity, from NodeID, hops int) {
	if hops > maxRouteHops {
		e.warnOncef("routing from %s exceeded %d hops, dropping entity #%d (cycle without a sink?)",
			from, maxRouteHops, en.ID)
		return
	}
	out := e.graph.Outgoing(from)
	if len(out) == 0 {
		return
	}

	cfg := e.lookup(from)
	if cfg.Role == RoleChance && cfg.Chance != nil {
		if len(cfg.Chance.Branches) == len(out) {
			e.sendToNode(en, e.pickBranch(cfg.Chance.Branches, out), hops)
			return
		}
		e.warnOncef("chance node %s has %d branches but %d outgoing edges, broadcasting",
			from, len(cfg.Chance.Branches), len(out))
	}

	// Clones are cut before any recipient runs so every copy carries the
	// branch-point state; the first edge keeps the original.
	copies := make([]*Entity, len(out))
	copies[0] = en
	for i := 1; i < len(out); i++ {
		copies[i] = e.cloneEntity(en)
	}
	for i, to := range out {
		e.sendToNode(copies[i], to, hops)
	}
}

// pickBranch walks cumulative branch probabilities against one uniform
// draw. Rounding shortfall falls through to the last edge so coverage is
// total.
func (e *Engine) pickBranch(branches []float64, out []NodeID) NodeID {
	u := e.sampler.Uniform01()
	cum := 0.0
	for i, p := range branches {
		cum += p
		if cum >= u {
			return out[i]
		}
	}
	return out[len(out)-1]
}

// sendToNode delivers en to one node and dispatches on its role. Sinks
// consume, counters record and keep the entity moving, every other role
// passes it straight through.
func (e *Engine) sendToNode(en *Entity, to NodeID, hops int) {
	en.CurrentNode = to
	cfg := e.lookup(to)
	switch cfg.Role {
	case RoleSink:
		e.notify(Notification{
			Time:    e.state.clock,
			Kind:    EntityConsumed,
			Node:    to,
			Entity:  en.Snapshot(),
			Message: fmt.Sprintf("%s #%d consumed at %s", en.Type, en.ID, sinkName(cfg, to)),
		})
	case RoleCounter:
		if st, ok := e.state.counters[to]; ok {
			st.record(e.state.clock, en.Type)
			e.notify(Notification{
				Time:    e.state.clock,
				Kind:    CounterUpdated,
				Node:    to,
				Entity:  en.Snapshot(),
				Message: fmt.Sprintf("counter %s at %d", to, st.total()),
			})
		}
		e.route(en, to, hops+1)
	default:
		e.route(en, to, hops+1)
	}
}

// cloneEntity copies en for broadcast fan-out: fresh id, shared origin
// fields, copied attributes.
func (e *Engine) cloneEntity(en *Entity) *Entity {
	return &Entity{
		ID:          e.state.newEntityID(),
		Type:        en.Type,
		ColorHint:   en.ColorHint,
		CreatedAt:   en.CreatedAt,
		SourceNode:  en.SourceNode,
		CurrentNode: en.CurrentNode,
		Attributes:  copyAttributes(en.Attributes),
	}
}

func sinkName(cfg RoleConfig, id NodeID) string {
	if cfg.Sink != nil && cfg.Sink.Name != "" {
		return cfg.Sink.Name
	}
	return string(id)
}

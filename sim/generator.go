package sim

import (
	"fmt"
	"math"
)

// generatorTick is the self-rescheduling generator step. Each firing checks
// the node's termination rules, emits one batch, and schedules the next
// tick one sampled inter-arrival interval ahead.
func (e *Engine) generatorTick(id NodeID) {
	cfg := e.lookup(id)
	gen := cfg.Generator
	if gen == nil {
		e.warnOncef("node %s received a generator tick without a generator config", id)
		return
	}
	now := e.state.clock

	if gen.Termination.stopsAtTime() && now >= gen.StopTime {
		return
	}
	if gen.Termination.stopsAtCount() && e.state.emitted[id] >= gen.MaxEntities {
		return
	}

	batch := gen.BatchSize
	if batch < 1 {
		batch = 1
	}
	for i := 0; i < batch; i++ {
		// The ceiling is re-checked per emission so a batch can never
		// overshoot MaxEntities.
		if gen.Termination.stopsAtCount() && e.state.emitted[id] >= gen.MaxEntities {
			break
		}
		en := &Entity{
			ID:          e.state.newEntityID(),
			Type:        gen.EntityType,
			ColorHint:   gen.Color,
			CreatedAt:   now,
			SourceNode:  id,
			CurrentNode: id,
		}
		e.state.emitted[id]++
		e.notify(Notification{
			Time:    now,
			Kind:    EntityCreated,
			Node:    id,
			Entity:  en.Snapshot(),
			Message: fmt.Sprintf("created %s #%d", en.Type, en.ID),
		})
		e.routeEntity(en, id)
	}

	if gen.Termination.stopsAtCount() && e.state.emitted[id] >= gen.MaxEntities {
		return
	}
	interval := e.sampleInterval(gen)
	if math.IsNaN(interval) || math.IsInf(interval, 0) {
		e.warnOncef("generator %s sampled a non-finite interval, stopping", id)
		return
	}
	next := now + Time(interval)
	if gen.Termination.stopsAtTime() && next > gen.StopTime {
		return
	}
	e.schedule(next, Command{Kind: CmdGeneratorTick, Node: id})
}

// sampleInterval draws the next inter-arrival interval. RatePerUnit
// configs sample a rate and invert it. The result is floored at the
// engine's minimum interval so the clock always moves forward.
func (e *Engine) sampleInterval(gen *GeneratorConfig) float64 {
	v := e.sampler.Sample(gen.Distribution)
	if gen.TimingMode == TimingRatePerUnit {
		v = 1 / v
	}
	if v < e.opts.MinInterval {
		v = e.opts.MinInterval
	}
	return v
}

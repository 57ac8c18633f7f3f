package trace

import "github.com/flowsim/flowsim/sim"

// Summary aggregates statistics from a recorded run.
type Summary struct {
	TotalEvents   int
	CreatedCount  int
	ConsumedCount int
	CounterHits   int
	EventsByNode  map[string]int // node ID → observed event count
	FinalClock    float64
}

// Summarize computes aggregate statistics from a Recorder.
// Safe for nil recorders (returns zero-value fields).
func Summarize(r *Recorder) *Summary {
	summary := &Summary{
		EventsByNode: make(map[string]int),
	}
	if r == nil {
		return summary
	}

	summary.TotalEvents = r.Total()
	summary.FinalClock = r.Clock()
	for _, rec := range r.Records() {
		summary.EventsByNode[rec.Node]++
		switch rec.Kind {
		case string(sim.EntityCreated):
			summary.CreatedCount++
		case string(sim.EntityConsumed):
			summary.ConsumedCount++
		case string(sim.CounterUpdated):
			summary.CounterHits++
		}
	}
	return summary
}

// Package trace records observable simulation events for post-run
// analysis. Record and Summary are pure data types; Recorder adapts them
// to the engine's observer interface.
package trace

// Record captures one observable simulation event.
type Record struct {
	Seq        int     // 1-based arrival order across the run
	Time       float64 // simulated time of the event
	Kind       string  // EntityCreated, EntityConsumed, CounterUpdated
	Node       string
	EntityID   uint64
	EntityType string
	Message    string
}

package trace

import (
	"sync"

	"github.com/flowsim/flowsim/sim"
)

// Config controls trace collection behavior.
type Config struct {
	// Limit caps stored records; zero keeps everything. Events past the
	// cap still count toward totals.
	Limit int
}

// Recorder collects event records during a run. It implements
// sim.Observer: callbacks arrive on the engine goroutine, while Records,
// Total, and Clock may be read from any goroutine at any point.
type Recorder struct {
	mu      sync.Mutex
	config  Config
	records []Record
	total   int
	clock   float64
}

// NewRecorder creates a Recorder ready to subscribe to an engine.
func NewRecorder(config Config) *Recorder {
	return &Recorder{
		config:  config,
		records: make([]Record, 0),
	}
}

// OnNotification stores one record per observable event.
func (r *Recorder) OnNotification(n sim.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	if r.config.Limit > 0 && len(r.records) >= r.config.Limit {
		return
	}
	r.records = append(r.records, Record{
		Seq:        r.total,
		Time:       float64(n.Time),
		Kind:       string(n.Kind),
		Node:       string(n.Node),
		EntityID:   n.Entity.ID,
		EntityType: n.Entity.Type,
		Message:    n.Message,
	})
}

// OnTimeUpdated tracks the latest simulated time.
func (r *Recorder) OnTimeUpdated(now sim.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = float64(now)
}

// Records returns a copy of the stored records.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Total returns how many events were observed, including any dropped past
// the configured limit.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Clock returns the latest simulated time seen.
func (r *Recorder) Clock() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock
}

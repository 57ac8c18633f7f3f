package sim

import (
	"math"
	"sync"
)

// CounterStats accumulates arrival statistics for a single counter node.
// The engine's event thread is the only writer; the mutex exists so that
// snapshots can be taken from other goroutines while a run is in flight.
//
// The arrival path is O(1) amortized: appends plus a sliding start index
// into arrivalTimes that only ever moves forward, so windowed throughput
// never rescans the full history.
type CounterStats struct {
	mu sync.Mutex

	window Time

	totalCount    uint64
	countByType   map[string]uint64
	arrivalTimes  []Time
	interArrivals []float64
	lastArrival   Time
	throughput    float64

	// windowStart is the index of the oldest arrival still inside the
	// throughput window [now-window, now].
	windowStart int
}

func newCounterStats(window Time) *CounterStats {
	return &CounterStats{
		window:      window,
		countByType: make(map[string]uint64),
	}
}

// record ingests one arrival at simulated time now.
func (c *CounterStats) record(now Time, entityType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.totalCount > 0 {
		c.interArrivals = append(c.interArrivals, float64(now-c.lastArrival))
	}
	c.totalCount++
	c.countByType[entityType]++
	c.lastArrival = now
	c.arrivalTimes = append(c.arrivalTimes, now)

	cutoff := now - c.window
	for c.windowStart < len(c.arrivalTimes) && c.arrivalTimes[c.windowStart] < cutoff {
		c.windowStart++
	}
	c.throughput = float64(len(c.arrivalTimes)-c.windowStart) / float64(c.window)
}

func (c *CounterStats) total() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCount
}

// Snapshot returns a copy of the counter's state safe to read concurrently
// with an active run. Derived summaries are computed on demand rather than
// per arrival.
func (c *CounterStats) Snapshot() CounterStatsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	byType := make(map[string]uint64, len(c.countByType))
	for k, v := range c.countByType {
		byType[k] = v
	}
	return CounterStatsSnapshot{
		TotalCount:   c.totalCount,
		CountByType:  byType,
		LastArrival:  c.lastArrival,
		Throughput:   c.throughput,
		Window:       c.window,
		InterArrival: summarize(c.interArrivals),
	}
}

// CounterStatsSnapshot is a point-in-time copy of one counter's statistics.
type CounterStatsSnapshot struct {
	TotalCount   uint64
	CountByType  map[string]uint64
	LastArrival  Time
	Throughput   float64
	Window       Time
	InterArrival SeriesSummary
}

// SeriesSummary describes a sample series. StdDev is the population form
// (divisor n, not n-1).
type SeriesSummary struct {
	Count  int
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64
}

func summarize(values []float64) SeriesSummary {
	if len(values) == 0 {
		return SeriesSummary{}
	}
	s := SeriesSummary{
		Count: len(values),
		Min:   values[0],
		Max:   values[0],
	}
	sum := 0.0
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(values))
	varSum := 0.0
	for _, v := range values {
		d := v - s.Mean
		varSum += d * d
	}
	s.StdDev = math.Sqrt(varSum / float64(len(values)))
	return s
}

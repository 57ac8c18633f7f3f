package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterStats_RecordSequence(t *testing.T) {
	st := newCounterStats(10)
	st.record(0, "job")
	st.record(5, "job")
	st.record(10, "batch")

	snap := st.Snapshot()
	assert.Equal(t, uint64(3), snap.TotalCount)
	assert.Equal(t, uint64(2), snap.CountByType["job"])
	assert.Equal(t, uint64(1), snap.CountByType["batch"])
	assert.Equal(t, Time(10), snap.LastArrival)

	// Inter-arrivals start at the second arrival: [5, 5].
	require.Equal(t, 2, snap.InterArrival.Count)
	assert.Equal(t, 5.0, snap.InterArrival.Mean)
	assert.Equal(t, 5.0, snap.InterArrival.Min)
	assert.Equal(t, 5.0, snap.InterArrival.Max)
	assert.Equal(t, 0.0, snap.InterArrival.StdDev)
}

// TestCounterStats_WindowedThroughput pins the closed window [now-window, now]:
// at t=10 with window 10 the arrival at t=0 sits exactly on the cutoff and
// still counts, giving 3 arrivals over 10 time units.
func TestCounterStats_WindowedThroughput(t *testing.T) {
	st := newCounterStats(10)
	st.record(0, "job")
	st.record(5, "job")
	st.record(10, "job")

	assert.InDelta(t, 0.3, st.Snapshot().Throughput, 1e-12)
}

func TestCounterStats_ThroughputPrunesOldArrivals(t *testing.T) {
	st := newCounterStats(2)
	st.record(0, "job")
	st.record(1, "job")
	assert.InDelta(t, 1.0, st.Snapshot().Throughput, 1e-12) // both inside [now-2, now]

	st.record(100, "job")
	// Only the arrival at t=100 survives the window.
	assert.InDelta(t, 0.5, st.Snapshot().Throughput, 1e-12)
	assert.Equal(t, uint64(3), st.Snapshot().TotalCount) // totals never decay
}

func TestCounterStats_SingleArrivalHasNoInterArrival(t *testing.T) {
	st := newCounterStats(10)
	st.record(3, "job")

	snap := st.Snapshot()
	assert.Equal(t, uint64(1), snap.TotalCount)
	assert.Equal(t, 0, snap.InterArrival.Count)
}

func TestCounterStats_SnapshotIsolation(t *testing.T) {
	st := newCounterStats(10)
	st.record(0, "job")
	snap := st.Snapshot()
	snap.CountByType["job"] = 99

	assert.Equal(t, uint64(1), st.Snapshot().CountByType["job"],
		"mutating a snapshot must not leak back into the counter")
}

func TestSummarize(t *testing.T) {
	s := summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, s.Count)
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	// Population standard deviation of this classic series is exactly 2.
	assert.InDelta(t, 2.0, s.StdDev, 1e-12)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, SeriesSummary{}, summarize(nil))
}

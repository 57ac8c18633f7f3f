package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_DeadEndAbsorbsSilently(t *testing.T) {
	log := &eventLog{}
	e := newTestEngine(t, Options{Seed: 1},
		[]NodeID{"gen", "shelf"},
		[]Edge{{From: "gen", To: "shelf"}},
		map[NodeID]RoleConfig{"gen": constantGenerator(1, 1)})
	e.Subscribe(log)

	runToCompletion(t, e)

	assert.Equal(t, 1, log.countKind(EntityCreated))
	assert.Equal(t, 0, log.countKind(EntityConsumed),
		"a dead-end non-sink absorbs without a consumption event")
}

func TestRouter_ChanceBranchFidelity(t *testing.T) {
	const n = 100000
	log := &eventLog{}
	e := newTestEngine(t, Options{Seed: 42},
		[]NodeID{"gen", "split", "a", "b"},
		[]Edge{
			{From: "gen", To: "split"},
			{From: "split", To: "a"},
			{From: "split", To: "b"},
		},
		map[NodeID]RoleConfig{
			"gen": {Role: RoleGenerator, Generator: &GeneratorConfig{
				EntityType:   "job",
				BatchSize:    n,
				Distribution: Dist{Kind: DistConstant, Param1: 1},
				Termination:  TerminateCount,
				MaxEntities:  n,
			}},
			"split": {Role: RoleChance, Chance: &ChanceConfig{Branches: []float64{0.25, 0.75}}},
			"a":     {Role: RoleSink, Sink: &SinkConfig{}},
			"b":     {Role: RoleSink, Sink: &SinkConfig{}},
		})
	e.Subscribe(log)

	runToCompletion(t, e)

	byNode := log.consumedByNode()
	require.Equal(t, n, byNode["a"]+byNode["b"], "chance must route every entity to exactly one branch")
	assert.InDelta(t, 0.25, float64(byNode["a"])/n, 0.01)
}

// TestRouter_ChanceShortfallFallsToLastEdge pins the cumulative walk: with
// every branch weight zero, no prefix sum ever reaches the draw, so the
// last edge takes the whole stream.
func TestRouter_ChanceShortfallFallsToLastEdge(t *testing.T) {
	log := &eventLog{}
	e := newTestEngine(t, Options{Seed: 7},
		[]NodeID{"gen", "split", "a", "b"},
		[]Edge{
			{From: "gen", To: "split"},
			{From: "split", To: "a"},
			{From: "split", To: "b"},
		},
		map[NodeID]RoleConfig{
			"gen":   constantGenerator(1, 500),
			"split": {Role: RoleChance, Chance: &ChanceConfig{Branches: []float64{0, 0}}},
			"a":     {Role: RoleSink, Sink: &SinkConfig{}},
			"b":     {Role: RoleSink, Sink: &SinkConfig{}},
		})
	e.Subscribe(log)

	runToCompletion(t, e)

	byNode := log.consumedByNode()
	assert.Equal(t, 0, byNode["a"])
	assert.Equal(t, 500, byNode["b"])
}

// TestRouter_ChanceMismatchBroadcasts covers a branch list that does not
// match the edge count: the node degrades to a broadcast, so every edge
// receives its own copy.
func TestRouter_ChanceMismatchBroadcasts(t *testing.T) {
	log := &eventLog{}
	e := newTestEngine(t, Options{Seed: 3},
		[]NodeID{"gen", "split", "a", "b"},
		[]Edge{
			{From: "gen", To: "split"},
			{From: "split", To: "a"},
			{From: "split", To: "b"},
		},
		map[NodeID]RoleConfig{
			"gen":   constantGenerator(1, 10),
			"split": {Role: RoleChance, Chance: &ChanceConfig{Branches: []float64{1}}},
			"a":     {Role: RoleSink, Sink: &SinkConfig{}},
			"b":     {Role: RoleSink, Sink: &SinkConfig{}},
		})
	e.Subscribe(log)

	runToCompletion(t, e)

	assert.Equal(t, 10, log.countKind(EntityCreated))
	byNode := log.consumedByNode()
	assert.Equal(t, 10, byNode["a"])
	assert.Equal(t, 10, byNode["b"])

	seen := make(map[uint64]bool)
	for _, n := range log.ofKind(EntityConsumed) {
		seen[n.Entity.ID] = true
	}
	assert.Len(t, seen, 20, "broadcast copies must carry fresh entity ids")
}

func TestRouter_BroadcastClonesShareOriginAndAttributes(t *testing.T) {
	log := &eventLog{}
	e := newTestEngine(t, Options{Seed: 5},
		[]NodeID{"split", "a", "b"},
		[]Edge{
			{From: "split", To: "a"},
			{From: "split", To: "b"},
		},
		map[NodeID]RoleConfig{
			"a": {Role: RoleSink, Sink: &SinkConfig{}},
			"b": {Role: RoleSink, Sink: &SinkConfig{}},
		})
	e.Subscribe(log)
	require.NoError(t, e.Inject(2, "split", "parcel", map[string]string{"origin": "east"}))

	runToCompletion(t, e)

	consumed := log.ofKind(EntityConsumed)
	require.Len(t, consumed, 2)
	first, second := consumed[0].Entity, consumed[1].Entity
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, Time(2), first.CreatedAt)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, NodeID("split"), first.SourceNode)
	assert.Equal(t, first.SourceNode, second.SourceNode)
	assert.Equal(t, "east", first.Attributes["origin"])
	assert.Equal(t, "east", second.Attributes["origin"])
}

// TestRouter_SinkIsTerminal wires an outgoing edge out of a sink and checks
// nothing ever crosses it.
func TestRouter_SinkIsTerminal(t *testing.T) {
	log := &eventLog{}
	e := newTestEngine(t, Options{Seed: 1},
		[]NodeID{"gen", "drain", "after"},
		[]Edge{
			{From: "gen", To: "drain"},
			{From: "drain", To: "after"},
		},
		map[NodeID]RoleConfig{
			"gen":   constantGenerator(1, 4),
			"drain": {Role: RoleSink, Sink: &SinkConfig{Name: "drain"}},
			"after": {Role: RoleCounter, Counter: &CounterConfig{}},
		})
	e.Subscribe(log)

	runToCompletion(t, e)

	assert.Equal(t, 4, log.countKind(EntityConsumed))
	snap, ok := e.CounterStats("after")
	require.True(t, ok)
	assert.Equal(t, uint64(0), snap.TotalCount, "nothing may flow past a sink")
}

func TestRouter_CounterRecordsAndPassesThrough(t *testing.T) {
	log := &eventLog{}
	e := newTestEngine(t, Options{Seed: 1},
		[]NodeID{"gen", "tally", "drain"},
		[]Edge{
			{From: "gen", To: "tally"},
			{From: "tally", To: "drain"},
		},
		map[NodeID]RoleConfig{
			"gen":   constantGenerator(5, 3),
			"tally": {Role: RoleCounter, Counter: &CounterConfig{ThroughputWindow: 10}},
			"drain": {Role: RoleSink, Sink: &SinkConfig{}},
		})
	e.Subscribe(log)

	runToCompletion(t, e)

	assert.Equal(t, 3, log.countKind(CounterUpdated))
	assert.Equal(t, 3, log.countKind(EntityConsumed), "counters forward entities after recording")
	snap, ok := e.CounterStats("tally")
	require.True(t, ok)
	assert.Equal(t, uint64(3), snap.TotalCount)
	assert.Equal(t, uint64(3), snap.CountByType["job"])
}

// TestRouter_PassThroughCycleDoesNotHang routes an entity into a two-node
// loop with no sink. The hop guard has to drop it instead of spinning the
// event thread forever.
func TestRouter_PassThroughCycleDoesNotHang(t *testing.T) {
	log := &eventLog{}
	e := newTestEngine(t, Options{Seed: 1},
		[]NodeID{"a", "b"},
		[]Edge{
			{From: "a", To: "b"},
			{From: "b", To: "a"},
		},
		nil)
	e.Subscribe(log)
	require.NoError(t, e.Inject(0, "a", "job", nil))

	runToCompletion(t, e)

	assert.Equal(t, 0, log.countKind(EntityConsumed))
	assert.Equal(t, 0, e.Pending())
}

func TestRouter_InjectUnknownNodeFails(t *testing.T) {
	e := newTestEngine(t, Options{Seed: 1}, []NodeID{"a"}, nil, nil)
	assert.Error(t, e.Inject(0, "ghost", "job", nil))
}

func TestSinkName(t *testing.T) {
	named := RoleConfig{Role: RoleSink, Sink: &SinkConfig{Name: "warehouse"}}
	anon := RoleConfig{Role: RoleSink, Sink: &SinkConfig{}}
	assert.Equal(t, "warehouse", sinkName(named, "s1"))
	assert.Equal(t, "s1", sinkName(anon, "s1"))
}

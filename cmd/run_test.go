package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsim/flowsim/sim"
	"github.com/flowsim/flowsim/sim/scenario"
	"github.com/flowsim/flowsim/sim/trace"
)

// scratchRunFlags registers the run flags on a fresh set, resetting the
// bound package variables to their defaults.
func scratchRunFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addRunFlags(fs)
	return fs
}

func TestResolveOptions_ScenarioValuesWhenFlagsUntouched(t *testing.T) {
	fs := scratchRunFlags(t)
	sc := &scenario.Scenario{Seed: 7, Speed: 2, MaxClock: 30}

	opts := resolveOptions(fs, sc)

	assert.Equal(t, int64(7), opts.Seed)
	assert.Equal(t, 2.0, opts.Speed)
	assert.Equal(t, sim.Time(30), opts.MaxClock)
}

func TestResolveOptions_ChangedFlagsWin(t *testing.T) {
	fs := scratchRunFlags(t)
	require.NoError(t, fs.Set("seed", "100"))
	require.NoError(t, fs.Set("max-clock", "50"))
	sc := &scenario.Scenario{Seed: 7, Speed: 2, MaxClock: 30}

	opts := resolveOptions(fs, sc)

	assert.Equal(t, int64(100), opts.Seed)
	assert.Equal(t, 2.0, opts.Speed, "untouched flags must not override the scenario")
	assert.Equal(t, sim.Time(50), opts.MaxClock)
}

// TestResolveOptions_NonPositiveSpeedSelectsFastForward covers the zero
// ambiguity: opts.Speed==0 reads as "unset" downstream, so an explicit
// --speed 0 is mapped to -1.
func TestResolveOptions_NonPositiveSpeedSelectsFastForward(t *testing.T) {
	fs := scratchRunFlags(t)
	require.NoError(t, fs.Set("speed", "0"))

	opts := resolveOptions(fs, &scenario.Scenario{Speed: 2})

	assert.Equal(t, -1.0, opts.Speed)
}

func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(map[string]uint64{"zeta": 1, "alpha": 2, "mid": 3})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, keys)
}

func TestPrintSummary_WritesRunAndCounterStats(t *testing.T) {
	// GIVEN a completed run over a counter pipeline
	sc, err := scenario.Parse([]byte(`
seed: 1
nodes:
  - id: gen
    role: generator
    generator:
      entity_type: job
      termination: count
      max_entities: 3
      distribution:
        kind: constant
        param1: 5
  - id: tally
    role: counter
  - id: drain
    role: sink
edges:
  - from: gen
    to: tally
  - from: tally
    to: drain
`))
	require.NoError(t, err)
	require.NoError(t, sc.Validate())

	graph, lookup := sc.Build()
	engine := sim.New(sc.Options())
	require.NoError(t, engine.Initialize(graph, lookup))
	recorder := trace.NewRecorder(trace.Config{})
	engine.Subscribe(recorder)
	for {
		more, err := engine.Step()
		require.NoError(t, err)
		if !more {
			break
		}
	}

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// WHEN the summary is printed
	printSummary(sc, engine, recorder, 123*time.Millisecond)

	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	output := buf.String()

	// THEN the run totals and the counter section appear on stdout
	assert.Contains(t, output, "Run complete")
	assert.Contains(t, output, "3 created, 3 consumed, 3 counter hits")
	assert.Contains(t, output, "counter tally")
	assert.Contains(t, output, "job=3")
}

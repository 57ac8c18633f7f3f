// Package scenario loads simulation scenarios from YAML and builds the
// graph and role configs the engine consumes. The engine itself never
// touches a file; this package is the one provider the repository ships.
package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is the top-level scenario configuration.
// Loaded from YAML via Load(path).
type Scenario struct {
	Seed     int64      `yaml:"seed"`
	Speed    float64    `yaml:"speed,omitempty"`
	MaxClock float64    `yaml:"max_clock,omitempty"`
	Nodes    []NodeSpec `yaml:"nodes"`
	Edges    []EdgeSpec `yaml:"edges"`
}

// NodeSpec declares one node and its role configuration. Exactly the
// section matching the role is consulted; the others may be omitted.
type NodeSpec struct {
	ID        string         `yaml:"id"`
	Role      string         `yaml:"role"`
	Generator *GeneratorSpec `yaml:"generator,omitempty"`
	Counter   *CounterSpec   `yaml:"counter,omitempty"`
	Chance    *ChanceSpec    `yaml:"chance,omitempty"`
	Sink      *SinkSpec      `yaml:"sink,omitempty"`
}

// GeneratorSpec configures an entity source.
type GeneratorSpec struct {
	EntityType   string   `yaml:"entity_type"`
	Color        string   `yaml:"color,omitempty"`
	BatchSize    int      `yaml:"batch_size,omitempty"`
	StartTime    float64  `yaml:"start_time,omitempty"`
	StopTime     float64  `yaml:"stop_time,omitempty"`
	MaxEntities  int      `yaml:"max_entities,omitempty"`
	Termination  string   `yaml:"termination,omitempty"`
	Distribution DistSpec `yaml:"distribution"`
	TimingMode   string   `yaml:"timing_mode,omitempty"`
}

// DistSpec parameterizes an inter-arrival distribution. Parameters are
// positional per kind, matching sim.DistKind.
type DistSpec struct {
	Kind   string  `yaml:"kind"`
	Param1 float64 `yaml:"param1,omitempty"`
	Param2 float64 `yaml:"param2,omitempty"`
	Param3 float64 `yaml:"param3,omitempty"`
}

// CounterSpec configures arrival accounting. A zero window keeps the
// engine default.
type CounterSpec struct {
	ThroughputWindow float64 `yaml:"throughput_window,omitempty"`
}

// ChanceSpec configures probabilistic branching. Branches pair with the
// node's outgoing edges in declaration order.
type ChanceSpec struct {
	Branches []float64 `yaml:"branches"`
}

// SinkSpec configures terminal consumption.
type SinkSpec struct {
	Name string `yaml:"name,omitempty"`
}

// EdgeSpec declares one directed edge.
type EdgeSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Valid value registries.
var (
	validRoles = map[string]bool{
		"": true, "generator": true, "counter": true, "chance": true,
		"sink": true, "clock": true, "dashboard": true, "generic": true,
	}
	validDistKinds = map[string]bool{
		"constant": true, "uniform": true, "exponential": true, "normal": true,
		"triangular": true, "erlang": true, "poisson": true, "binomial": true,
	}
	validTerminations = map[string]bool{
		"": true, "none": true, "time": true, "count": true, "count-or-time": true,
	}
	validTimingModes = map[string]bool{
		"": true, "interval": true, "rate": true,
	}
)

// Load reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML scenario from memory.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &s, nil
}

// Validate checks that all fields in the scenario are valid. Edge
// endpoints are deliberately not cross-checked here: unknown endpoints
// are dropped with a warning at build time, and a chance branch count
// that disagrees with the edge count downgrades to broadcast at run
// time rather than failing the load.
func (s *Scenario) Validate() error {
	if len(s.Nodes) == 0 {
		return fmt.Errorf("scenario has no nodes")
	}
	if math.IsNaN(s.Speed) || math.IsInf(s.Speed, 0) {
		return fmt.Errorf("speed must be a finite number, got %f", s.Speed)
	}
	if err := validateFiniteNonNegative("max_clock", s.MaxClock); err != nil {
		return err
	}
	seen := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		prefix := fmt.Sprintf("node[%d]", i)
		if n.ID == "" {
			return fmt.Errorf("%s: id is required", prefix)
		}
		if seen[n.ID] {
			return fmt.Errorf("%s: duplicate node id %q", prefix, n.ID)
		}
		seen[n.ID] = true
		if !validRoles[n.Role] {
			return fmt.Errorf("%s: unknown role %q; valid: generator, counter, chance, sink, clock, dashboard, generic", prefix, n.Role)
		}
		if err := validateNode(&n, prefix); err != nil {
			return err
		}
	}
	for i, e := range s.Edges {
		if e.From == "" || e.To == "" {
			return fmt.Errorf("edge[%d]: from and to are required", i)
		}
	}
	return nil
}

func validateNode(n *NodeSpec, prefix string) error {
	switch n.Role {
	case "generator":
		if n.Generator == nil {
			return fmt.Errorf("%s: role generator requires a generator section", prefix)
		}
		return validateGenerator(n.Generator, prefix+".generator")
	case "counter":
		if n.Counter != nil && n.Counter.ThroughputWindow < 0 {
			return fmt.Errorf("%s.counter: throughput_window must be non-negative, got %f", prefix, n.Counter.ThroughputWindow)
		}
	case "chance":
		if n.Chance == nil || len(n.Chance.Branches) == 0 {
			return fmt.Errorf("%s: role chance requires a chance section with branches", prefix)
		}
		for j, p := range n.Chance.Branches {
			if math.IsNaN(p) || p < 0 || p > 1 {
				return fmt.Errorf("%s.chance.branches[%d] must be a probability in [0,1], got %f", prefix, j, p)
			}
		}
	}
	return nil
}

func validateGenerator(g *GeneratorSpec, prefix string) error {
	if g.EntityType == "" {
		return fmt.Errorf("%s: entity_type is required", prefix)
	}
	if g.BatchSize < 0 {
		return fmt.Errorf("%s: batch_size must be non-negative, got %d", prefix, g.BatchSize)
	}
	if err := validateFiniteNonNegative(prefix+".start_time", g.StartTime); err != nil {
		return err
	}
	if err := validateFiniteNonNegative(prefix+".stop_time", g.StopTime); err != nil {
		return err
	}
	if !validTerminations[g.Termination] {
		return fmt.Errorf("%s: unknown termination %q; valid: none, time, count, count-or-time", prefix, g.Termination)
	}
	if !validTimingModes[g.TimingMode] {
		return fmt.Errorf("%s: unknown timing_mode %q; valid: interval, rate", prefix, g.TimingMode)
	}
	if (g.Termination == "count" || g.Termination == "count-or-time") && g.MaxEntities <= 0 {
		return fmt.Errorf("%s: termination %q requires max_entities > 0, got %d", prefix, g.Termination, g.MaxEntities)
	}
	if !validDistKinds[g.Distribution.Kind] {
		return fmt.Errorf("%s.distribution: unknown kind %q; valid: constant, uniform, exponential, normal, triangular, erlang, poisson, binomial",
			prefix, g.Distribution.Kind)
	}
	for name, val := range map[string]float64{
		"param1": g.Distribution.Param1,
		"param2": g.Distribution.Param2,
		"param3": g.Distribution.Param3,
	} {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%s.distribution.%s must be a finite number, got %f", prefix, name, val)
		}
	}
	return nil
}

func validateFiniteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val < 0 {
		return fmt.Errorf("%s must be non-negative, got %f", name, val)
	}
	return nil
}

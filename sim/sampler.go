package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// DistKind names a sampling distribution.
type DistKind string

const (
	// DistConstant always returns Param1.
	DistConstant DistKind = "constant"
	// DistUniform draws uniformly from [Param1, Param2).
	DistUniform DistKind = "uniform"
	// DistExponential draws with mean Param1.
	DistExponential DistKind = "exponential"
	// DistNormal draws with mean Param1 and standard deviation Param2.
	DistNormal DistKind = "normal"
	// DistTriangular draws from the triangle (min Param1, mode Param2, max Param3).
	DistTriangular DistKind = "triangular"
	// DistErlang draws an Erlang with mean Param1 and shape Param2.
	DistErlang DistKind = "erlang"
	// DistPoisson draws the inter-event time of a Poisson process with rate
	// Param1, which is Exponential(1/rate). The name is kept for scenario
	// compatibility even though the sample is a duration, not a count.
	DistPoisson DistKind = "poisson"
	// DistBinomial draws the number of successes over Param2 Bernoulli
	// trials with probability Param1.
	DistBinomial DistKind = "binomial"
)

// Dist selects a distribution and its parameters. Parameter meaning is
// positional per kind, documented on the DistKind constants.
type Dist struct {
	Kind   DistKind
	Param1 float64
	Param2 float64
	Param3 float64
}

// Sampler draws variates from a single seeded pseudo-random source. One
// Sampler backs an entire run: every generator interval and every chance
// branch draw consumes from the same stream, so a fixed seed replays a run
// exactly.
//
// Invalid parameters never fail a draw. They are clamped into validity
// under one policy: inverted bounds are swapped, the triangular triple is
// sorted, negative spreads and means take their absolute value, shape and
// trial counts are rounded and floored at their minimum, and probabilities
// are clamped to [0, 1]. Each clamp logs one warning per run.
//
// Not safe for concurrent use; the engine confines it to the event thread.
type Sampler struct {
	rng    *rand.Rand
	warned map[string]struct{}
}

// NewSampler returns a Sampler seeded deterministically.
func NewSampler(seed int64) *Sampler {
	return &Sampler{
		rng:    rand.New(rand.NewSource(seed)),
		warned: make(map[string]struct{}),
	}
}

// Uniform01 draws from [0, 1). Chance routing shares this stream with the
// distribution draws.
func (s *Sampler) Uniform01() float64 {
	return s.rng.Float64()
}

// Sample draws one variate from d.
func (s *Sampler) Sample(d Dist) float64 {
	var v float64
	switch d.Kind {
	case DistConstant:
		v = d.Param1
	case DistUniform:
		v = s.sampleUniform(d.Param1, d.Param2)
	case DistExponential:
		v = s.sampleExponential(d.Param1)
	case DistNormal:
		v = s.sampleNormal(d.Param1, d.Param2)
	case DistTriangular:
		v = s.sampleTriangular(d.Param1, d.Param2, d.Param3)
	case DistErlang:
		v = s.sampleErlang(d.Param1, d.Param2)
	case DistPoisson:
		v = s.samplePoisson(d.Param1)
	case DistBinomial:
		v = s.sampleBinomial(d.Param1, d.Param2)
	default:
		s.warnOnce("unknown distribution kind %q, sampling 0", d.Kind)
		return 0
	}
	// Guard against Inf/NaN from degenerate parameters
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.warnOnce("%s sample with params (%v, %v, %v) is not finite, using 0",
			d.Kind, d.Param1, d.Param2, d.Param3)
		return 0
	}
	return v
}

func (s *Sampler) sampleUniform(min, max float64) float64 {
	if max < min {
		s.warnOnce("uniform bounds inverted (min=%v, max=%v), swapping", min, max)
		min, max = max, min
	}
	return min + s.rng.Float64()*(max-min)
}

func (s *Sampler) sampleExponential(mean float64) float64 {
	if mean < 0 {
		s.warnOnce("exponential mean %v is negative, using %v", mean, -mean)
		mean = -mean
	}
	// U in [0,1) keeps 1-U strictly positive, so the log is finite.
	return -mean * math.Log(1-s.rng.Float64())
}

func (s *Sampler) sampleNormal(mean, stdDev float64) float64 {
	if stdDev < 0 {
		s.warnOnce("normal std dev %v is negative, using %v", stdDev, -stdDev)
		stdDev = -stdDev
	}
	u1 := s.rng.Float64()
	if u1 == 0 {
		u1 = math.SmallestNonzeroFloat64 // prevent log(0) → -Inf
	}
	u2 := s.rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + stdDev*z
}

func (s *Sampler) sampleTriangular(min, mode, max float64) float64 {
	if min > mode || mode > max {
		s.warnOnce("triangular params (%v, %v, %v) out of order, sorting", min, mode, max)
		if min > mode {
			min, mode = mode, min
		}
		if mode > max {
			mode, max = max, mode
		}
		if min > mode {
			min, mode = mode, min
		}
	}
	if max == min {
		return min
	}
	u := s.rng.Float64()
	cut := (mode - min) / (max - min)
	if u < cut {
		return min + math.Sqrt(u*(max-min)*(mode-min))
	}
	return max - math.Sqrt((1-u)*(max-min)*(max-mode))
}

func (s *Sampler) sampleErlang(mean, shape float64) float64 {
	k := int(math.Round(shape))
	if k < 1 {
		s.warnOnce("erlang shape %v below 1, using 1", shape)
		k = 1
	}
	if mean < 0 {
		s.warnOnce("erlang mean %v is negative, using %v", mean, -mean)
		mean = -mean
	}
	stage := mean / float64(k)
	sum := 0.0
	for i := 0; i < k; i++ {
		sum += -stage * math.Log(1-s.rng.Float64())
	}
	return sum
}

func (s *Sampler) samplePoisson(rate float64) float64 {
	if rate < 0 {
		s.warnOnce("poisson rate %v is negative, using %v", rate, -rate)
		rate = -rate
	}
	if rate == 0 {
		s.warnOnce("poisson rate is zero, sampling 0")
		return 0
	}
	return -(1 / rate) * math.Log(1-s.rng.Float64())
}

func (s *Sampler) sampleBinomial(p float64, trials float64) float64 {
	if p < 0 || p > 1 {
		clamped := math.Min(1, math.Max(0, p))
		s.warnOnce("binomial probability %v outside [0,1], using %v", p, clamped)
		p = clamped
	}
	n := int(math.Round(trials))
	if n < 0 {
		s.warnOnce("binomial trial count %v below 0, using 0", trials)
		n = 0
	}
	successes := 0
	for i := 0; i < n; i++ {
		if s.rng.Float64() < p {
			successes++
		}
	}
	return float64(successes)
}

func (s *Sampler) warnOnce(format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	if _, seen := s.warned[msg]; seen {
		return
	}
	s.warned[msg] = struct{}{}
	logrus.Warn(msg)
}

package trend

import "math/rand/v2"

// RandomSource yields floats in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewMathRand returns a seeded PCG-backed source.
func NewMathRand(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sequence replays fixed values in order and wraps around when exhausted.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence constructs a replaying source. An empty sequence always yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: append([]float64(nil), values...)}
}

// Float64 returns the next replayed value clamped into [0, 1).
func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	switch {
	case v < 0:
		return 0
	case v >= 1:
		return 0.999999
	default:
		return v
	}
}

// Constant always yields the same value.
type Constant float64

// Float64 returns the constant value.
func (c Constant) Float64() float64 {
	return float64(c)
}

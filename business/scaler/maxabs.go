package scaler

import (
	"math"

	"modelPilot/business/bandit"
)

var _ bandit.RewardNormalizer = (*MaxAbsScaler)(nil)

// Scales each field by the largest absolute value seen so far, mapping
// the stream into [-1, 1].
type MaxAbsScaler struct {
	maxAbs map[string]float64
}

func NewMaxAbsScaler() *MaxAbsScaler {
	return &MaxAbsScaler{maxAbs: make(map[string]float64)}
}

func (s *MaxAbsScaler) Update(sample map[string]float64) {
	for field, v := range sample {
		if a := math.Abs(v); a > s.maxAbs[field] {
			s.maxAbs[field] = a
		}
	}
}

// Transform returns a new map. Fields never seen with a nonzero value
// pass through unchanged.
func (s *MaxAbsScaler) Transform(sample map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(sample))
	for field, v := range sample {
		if m := s.maxAbs[field]; m > 0 {
			out[field] = v / m
		} else {
			out[field] = v
		}
	}
	return out
}

// Package scaler provides online reward normalizers for bandit
// coordinators.
package scaler

import (
	"math"

	"modelPilot/business/bandit"
)

var _ bandit.RewardNormalizer = (*StandardScaler)(nil)

// Online standardizer over named float fields. Update folds a sample
// into per-field running moments (Welford), Transform centers the
// value and divides by the running sample standard deviation.
type StandardScaler struct {
	counts map[string]int
	means  map[string]float64
	m2s    map[string]float64
}

func NewStandardScaler() *StandardScaler {
	return &StandardScaler{
		counts: make(map[string]int),
		means:  make(map[string]float64),
		m2s:    make(map[string]float64),
	}
}

func (s *StandardScaler) Update(sample map[string]float64) {
	for field, v := range sample {
		s.counts[field]++
		n := float64(s.counts[field])
		delta := v - s.means[field]
		s.means[field] += delta / n
		s.m2s[field] += delta * (v - s.means[field])
	}
}

// Transform returns a new map. Fields with no spread yet (fewer than
// two samples, or a constant series) are centered only.
func (s *StandardScaler) Transform(sample map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(sample))
	for field, v := range sample {
		centered := v - s.means[field]
		if n := s.counts[field]; n > 1 {
			if sd := math.Sqrt(s.m2s[field] / float64(n-1)); sd > 0 {
				out[field] = centered / sd
				continue
			}
		}
		out[field] = centered
	}
	return out
}

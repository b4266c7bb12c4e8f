package scaler

import (
	"math"
	"math/rand"
	"testing"
)

func TestStandardScalerMatchesBatchMoments(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	values := make([]float64, 500)
	for i := range values {
		values[i] = rng.NormFloat64()*4 + 10
	}

	s := NewStandardScaler()
	for _, v := range values {
		s.Update(map[string]float64{"metric": v})
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values) - 1)
	sd := math.Sqrt(variance)

	probe := 12.5
	got := s.Transform(map[string]float64{"metric": probe})["metric"]
	want := (probe - mean) / sd
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("transform(%v) = %v, want %v", probe, got, want)
	}
}

func TestStandardScalerFirstSampleCentersToZero(t *testing.T) {
	s := NewStandardScaler()
	sample := map[string]float64{"metric": 5}
	s.Update(sample)
	if got := s.Transform(sample)["metric"]; got != 0 {
		t.Errorf("first sample transformed to %v, want 0", got)
	}
}

func TestStandardScalerConstantSeries(t *testing.T) {
	s := NewStandardScaler()
	for i := 0; i < 20; i++ {
		s.Update(map[string]float64{"metric": 3})
	}
	if got := s.Transform(map[string]float64{"metric": 3})["metric"]; got != 0 {
		t.Errorf("constant series transformed to %v, want 0", got)
	}
	if got := s.Transform(map[string]float64{"metric": 7})["metric"]; got != 4 {
		t.Errorf("zero-spread series should center only, got %v, want 4", got)
	}
}

func TestMaxAbsScaler(t *testing.T) {
	s := NewMaxAbsScaler()
	for _, v := range []float64{2, -8, 4} {
		s.Update(map[string]float64{"metric": v})
	}
	if got := s.Transform(map[string]float64{"metric": 4})["metric"]; got != 0.5 {
		t.Errorf("transform(4) = %v, want 0.5", got)
	}
	if got := s.Transform(map[string]float64{"metric": -8})["metric"]; got != -1 {
		t.Errorf("transform(-8) = %v, want -1", got)
	}
	if got := s.Transform(map[string]float64{"other": 3})["other"]; got != 3 {
		t.Errorf("unseen field transformed to %v, want 3 unchanged", got)
	}
}

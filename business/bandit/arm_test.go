package bandit

import (
	"math"
	"math/rand"
	"testing"
)

func TestRecordMatchesArithmeticMean(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(200)
		var a ArmStats
		sum := 0.0
		for i := 0; i < n; i++ {
			r := rng.NormFloat64() * 10
			a.Record(r)
			sum += r
		}
		want := sum / float64(n)
		if math.Abs(a.AverageReward-want) > 1e-9 {
			t.Fatalf("trial %d: average %v after %d records, want %v", trial, a.AverageReward, n, want)
		}
		if a.PullCount != n {
			t.Fatalf("trial %d: pull count %d, want %d", trial, a.PullCount, n)
		}
	}
}

func TestBestArmFirstMaxOnTie(t *testing.T) {
	stats := []ArmStats{
		{PullCount: 3, AverageReward: 0.5},
		{PullCount: 9, AverageReward: 1.2},
		{PullCount: 1, AverageReward: 1.2},
	}
	if got := BestArm(stats); got != 1 {
		t.Errorf("BestArm = %d, want 1", got)
	}
}

func TestBestArmIsFirstArgmax(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 100; trial++ {
		stats := make([]ArmStats, 2+rng.Intn(8))
		for i := range stats {
			stats[i].AverageReward = math.Floor(rng.Float64()*5) / 5
			stats[i].PullCount = rng.Intn(10)
		}
		got := BestArm(stats)
		if got < 0 || got >= len(stats) {
			t.Fatalf("trial %d: index %d out of range [0,%d)", trial, got, len(stats))
		}
		for i, s := range stats {
			if s.AverageReward > stats[got].AverageReward {
				t.Fatalf("trial %d: arm %d beats chosen arm %d", trial, i, got)
			}
			if i < got && s.AverageReward == stats[got].AverageReward {
				t.Fatalf("trial %d: arm %d ties chosen arm %d but comes first", trial, i, got)
			}
		}
	}
}

func TestPercentagePulled(t *testing.T) {
	stats := []ArmStats{{PullCount: 4}, {PullCount: 1}, {PullCount: 5}}
	got := PercentagePulled(stats)
	want := []float64{0.4, 0.1, 0.5}
	sum := 0.0
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("share[%d] = %v, want %v", i, got[i], want[i])
		}
		sum += got[i]
	}
	if math.Abs(sum-1.0) > 1e-12 {
		t.Errorf("shares sum to %v, want 1.0", sum)
	}
}

func TestPercentagePulledNoPulls(t *testing.T) {
	got := PercentagePulled(make([]ArmStats, 3))
	for i, v := range got {
		if v != 0 {
			t.Errorf("share[%d] = %v before any pull, want 0", i, v)
		}
	}
}

package bandit

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestUCBDeltaValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, delta := range []float64{1.5, 1, 0, -0.2} {
		if _, err := NewUCB(rng, 1, delta); !errors.Is(err, ErrConfig) {
			t.Errorf("delta %v: err = %v, want ErrConfig", delta, err)
		}
	}
	if _, err := NewUCB(rng, 1, 0.5); err != nil {
		t.Errorf("delta 0.5: unexpected err %v", err)
	}
	if _, err := NewUCB1(rng, 1); err != nil {
		t.Errorf("ucb1: unexpected err %v", err)
	}
	if _, err := NewUCB1(rng, -1); !errors.Is(err, ErrConfig) {
		t.Errorf("negative explore threshold: err = %v, want ErrConfig", err)
	}
	if _, err := NewUCB1(nil, 0); !errors.Is(err, ErrConfig) {
		t.Errorf("nil rng: err = %v, want ErrConfig", err)
	}
}

func TestUCBForcedExploration(t *testing.T) {
	const (
		nArms      = 3
		exploreMin = 1
	)
	p, err := NewUCB1(rand.New(rand.NewSource(5)), exploreMin)
	if err != nil {
		t.Fatalf("NewUCB1: %v", err)
	}
	stats := make([]ArmStats, nArms)
	total := 0
	for step := 0; step < 40; step++ {
		anyUnder := false
		for _, s := range stats {
			if s.PullCount <= exploreMin {
				anyUnder = true
				break
			}
		}
		arm := p.Choose(stats, total)
		if anyUnder && stats[arm].PullCount > exploreMin {
			t.Fatalf("step %d: chose arm %d with %d pulls while others were under-pulled",
				step, arm, stats[arm].PullCount)
		}
		total++
		stats[arm].Record(float64(nArms - arm))
	}
	for i, s := range stats {
		if s.PullCount < exploreMin+1 {
			t.Errorf("arm %d ended with %d pulls, want at least %d", i, s.PullCount, exploreMin+1)
		}
	}
}

func TestUCBScoreSelection(t *testing.T) {
	stats := []ArmStats{
		{PullCount: 1, AverageReward: 1.0},
		{PullCount: 9, AverageReward: 1.4},
	}
	const total = 10

	ucb1, err := NewUCB1(rand.New(rand.NewSource(1)), 0)
	if err != nil {
		t.Fatalf("NewUCB1: %v", err)
	}
	if got := ucb1.Choose(stats, total); got != 0 {
		t.Errorf("ucb1 chose arm %d, want 0 (large bonus on the under-pulled arm)", got)
	}

	ucbDelta, err := NewUCB(rand.New(rand.NewSource(1)), 0, 0.9)
	if err != nil {
		t.Fatalf("NewUCB: %v", err)
	}
	if got := ucbDelta.Choose(stats, total); got != 1 {
		t.Errorf("ucb delta=0.9 chose arm %d, want 1 (small bonus keeps the higher average ahead)", got)
	}
}

func TestUCBScoresFormula(t *testing.T) {
	p, err := NewUCB1(rand.New(rand.NewSource(1)), 0)
	if err != nil {
		t.Fatalf("NewUCB1: %v", err)
	}
	stats := []ArmStats{
		{PullCount: 5, AverageReward: 0.3},
		{PullCount: 2, AverageReward: 0.8},
	}
	got := p.Scores(stats, 7)
	for i, s := range stats {
		want := s.AverageReward + math.Sqrt(2*math.Log(7)/float64(s.PullCount))
		if math.Abs(got[i]-want) > 1e-12 {
			t.Errorf("score[%d] = %v, want %v", i, got[i], want)
		}
	}

	pd, err := NewUCB(rand.New(rand.NewSource(1)), 0, 0.25)
	if err != nil {
		t.Fatalf("NewUCB: %v", err)
	}
	gotD := pd.Scores(stats, 7)
	for i, s := range stats {
		want := s.AverageReward + math.Sqrt(2*math.Log(4)/float64(s.PullCount))
		if math.Abs(gotD[i]-want) > 1e-12 {
			t.Errorf("delta score[%d] = %v, want %v", i, gotD[i], want)
		}
	}
}

func TestUCBFirstMaxOnTie(t *testing.T) {
	p, err := NewUCB1(rand.New(rand.NewSource(3)), 0)
	if err != nil {
		t.Fatalf("NewUCB1: %v", err)
	}
	stats := []ArmStats{
		{PullCount: 4, AverageReward: 0.6},
		{PullCount: 4, AverageReward: 0.6},
		{PullCount: 4, AverageReward: 0.2},
	}
	if got := p.Choose(stats, 12); got != 0 {
		t.Errorf("tie broke to arm %d, want first max 0", got)
	}
}

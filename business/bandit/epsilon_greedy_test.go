package bandit

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// random source that fails the test when consulted
type forbiddenSource struct{ t *testing.T }

func (s forbiddenSource) Int63() int64 {
	s.t.Fatal("random source consulted")
	return 0
}

func (s forbiddenSource) Seed(int64) {}

func TestNewEpsilonGreedyValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cases := []struct {
		name    string
		epsilon float64
		decay   float64
		wantErr bool
	}{
		{"negative epsilon", -0.1, 0, true},
		{"epsilon above one", 1.1, 0, true},
		{"negative decay", 0.5, -0.01, true},
		{"zero epsilon", 0, 0, false},
		{"full epsilon", 1, 0, false},
		{"with decay", 0.3, 0.05, false},
	}
	for _, tc := range cases {
		_, err := NewEpsilonGreedy(rng, tc.epsilon, tc.decay)
		if tc.wantErr && !errors.Is(err, ErrConfig) {
			t.Errorf("%s: err = %v, want ErrConfig", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected err %v", tc.name, err)
		}
	}
	if _, err := NewEpsilonGreedy(nil, 0.5, 0); !errors.Is(err, ErrConfig) {
		t.Errorf("nil rng: err = %v, want ErrConfig", err)
	}
}

func TestZeroEpsilonNeverConsultsRandomness(t *testing.T) {
	p, err := NewEpsilonGreedy(rand.New(forbiddenSource{t}), 0, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	stats := []ArmStats{
		{PullCount: 2, AverageReward: 0.1},
		{PullCount: 2, AverageReward: 0.9},
		{PullCount: 2, AverageReward: 0.4},
	}
	for i := 0; i < 100; i++ {
		if got := p.Choose(stats, i); got != 1 {
			t.Fatalf("choose %d: got arm %d, want 1", i, got)
		}
	}
}

func TestFullEpsilonUniform(t *testing.T) {
	p, err := NewEpsilonGreedy(rand.New(rand.NewSource(7)), 1, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	// heavily skewed statistics must not matter at epsilon 1
	stats := []ArmStats{
		{PullCount: 100, AverageReward: 50},
		{PullCount: 1, AverageReward: -3},
		{PullCount: 7, AverageReward: 0.2},
		{PullCount: 2, AverageReward: 0},
	}
	const trials = 40000
	counts := make([]int, len(stats))
	for i := 0; i < trials; i++ {
		counts[p.Choose(stats, i)]++
	}
	want := float64(trials) / float64(len(stats))
	for i, cnt := range counts {
		if math.Abs(float64(cnt)-want) > 0.05*want {
			t.Errorf("arm %d chosen %d times, want about %.0f", i, cnt, want)
		}
	}
}

func TestEpsilonDecay(t *testing.T) {
	p, err := NewEpsilonGreedy(rand.New(rand.NewSource(1)), 0.8, 0.05)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	prev := p.Epsilon()
	for n := 1; n <= 50; n++ {
		p.OnUpdate(0, 0, n)
		want := 0.8 * math.Exp(-0.05*float64(n))
		if math.Abs(p.Epsilon()-want) > 1e-12 {
			t.Fatalf("iteration %d: epsilon %v, want %v", n, p.Epsilon(), want)
		}
		if p.Epsilon() > prev {
			t.Fatalf("iteration %d: epsilon rose from %v to %v", n, prev, p.Epsilon())
		}
		prev = p.Epsilon()
	}
}

func TestSameSeedSameChoices(t *testing.T) {
	run := func() []int {
		p, err := NewEpsilonGreedy(rand.New(rand.NewSource(99)), 0.5, 0)
		if err != nil {
			t.Fatalf("NewEpsilonGreedy: %v", err)
		}
		stats := []ArmStats{
			{PullCount: 1, AverageReward: 0.2},
			{PullCount: 1, AverageReward: 0.7},
			{PullCount: 1, AverageReward: 0.5},
		}
		out := make([]int, 200)
		for i := range out {
			out[i] = p.Choose(stats, i)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("choice %d differs between identical seeds: %d vs %d", i, a[i], b[i])
		}
	}
}

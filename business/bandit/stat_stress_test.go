//go:build !integration

package bandit

import (
	"math"
	"math/rand"
	"testing"
)

// scenario params
const (
	stressPulls      = 2_000_000
	stressArms       = 64
	stressRewardBase = 1e6
	stressRewardSpan = 1e-3
)

// The running mean must stay numerically honest over millions of
// pulls, including the nasty case of tiny rewards riding on a large
// offset.
func TestArmStatsLongRunStability(t *testing.T) {
	if testing.Short() {
		t.Skip("long running stress test")
	}

	rng := rand.New(rand.NewSource(99))

	// --- 1) LARGE OFFSET, TINY SPAN ---

	var a ArmStats
	sum := 0.0
	for i := 0; i < stressPulls; i++ {
		r := stressRewardBase + rng.Float64()*stressRewardSpan
		a.Record(r)
		sum += r
	}
	want := sum / float64(stressPulls)

	// the naive sum itself carries rounding error at this scale, so
	// compare against it loosely and against the offset strictly
	if math.Abs(a.AverageReward-want) > 1e-4 {
		t.Errorf("offset run: incremental mean %v drifted from batch mean %v", a.AverageReward, want)
	}
	if a.AverageReward < stressRewardBase || a.AverageReward > stressRewardBase+stressRewardSpan {
		t.Errorf("offset run: mean %v escaped the reward interval", a.AverageReward)
	}

	// --- 2) SIGN-ALTERNATING REWARDS CANCEL ---

	var b ArmStats
	for i := 0; i < stressPulls; i++ {
		if i%2 == 0 {
			b.Record(1)
		} else {
			b.Record(-1)
		}
	}
	if math.Abs(b.AverageReward) > 1e-12 {
		t.Errorf("alternating run: mean %v, want ~0", b.AverageReward)
	}

	t.Logf("offset mean drift: %g", math.Abs(a.AverageReward-want))
}

// Pull shares over many arms must stay a proper distribution no matter
// how skewed the allocation is.
func TestPercentagePulledManyArms(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	stats := make([]ArmStats, stressArms)
	for i := range stats {
		// heavy skew: arm i gets roughly 2^(i/8) pulls
		pulls := 1 + rng.Intn(1<<(uint(i)/8))
		for p := 0; p < pulls; p++ {
			stats[i].Record(rng.NormFloat64())
		}
	}

	shares := PercentagePulled(stats)
	total := 0.0
	for i, share := range shares {
		if share <= 0 || share > 1 {
			t.Fatalf("arm %d share %v outside (0,1]", i, share)
		}
		total += share
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("shares sum to %v, want 1", total)
	}

	best := BestArm(stats)
	for i := range stats {
		if stats[i].AverageReward > stats[best].AverageReward {
			t.Fatalf("BestArm missed arm %d", i)
		}
	}
}

package bandit

import (
	"fmt"
	"math"
	"math/rand"
)

// UCB scores arms by average reward plus a confidence bonus. While any
// arm still has PullCount <= exploreEachArm the policy stays in a
// forced exploration phase and picks uniformly among those arms, so
// every arm is pulled at least exploreEachArm+1 times before the
// bounds are trusted.
type UCB struct {
	rng            *rand.Rand
	exploreEachArm int
	delta          float64
	hasDelta       bool
}

// NewUCB1 builds the variant whose bonus uses the iteration count:
// sqrt(2*ln(totalIterations)/pulls).
func NewUCB1(rng *rand.Rand, exploreEachArm int) (*UCB, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: ucb requires a random source", ErrConfig)
	}
	if exploreEachArm < 0 {
		return nil, fmt.Errorf("%w: explore threshold %d is negative", ErrConfig, exploreEachArm)
	}
	return &UCB{rng: rng, exploreEachArm: exploreEachArm}, nil
}

// NewUCB builds the fixed-confidence variant with bonus
// sqrt(2*ln(1/delta)/pulls). delta must lie strictly inside (0,1).
func NewUCB(rng *rand.Rand, exploreEachArm int, delta float64) (*UCB, error) {
	u, err := NewUCB1(rng, exploreEachArm)
	if err != nil {
		return nil, err
	}
	if delta <= 0 || delta >= 1 {
		return nil, fmt.Errorf("%w: delta %v outside (0,1)", ErrConfig, delta)
	}
	u.delta = delta
	u.hasDelta = true
	return u, nil
}

func (p *UCB) Choose(stats []ArmStats, totalIterations int) int {
	under := make([]int, 0, len(stats))
	for i, s := range stats {
		if s.PullCount <= p.exploreEachArm {
			under = append(under, i)
		}
	}
	if len(under) > 0 {
		return under[p.rng.Intn(len(under))]
	}

	scores := p.Scores(stats, totalIterations)
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

// Scores returns average reward plus confidence bonus per arm, as the
// bound phase of Choose computes them. Only meaningful once every arm
// has been pulled.
func (p *UCB) Scores(stats []ArmStats, totalIterations int) []float64 {
	x := float64(totalIterations)
	if p.hasDelta {
		x = 1 / p.delta
	}
	scores := make([]float64, len(stats))
	for i, s := range stats {
		scores[i] = s.AverageReward + math.Sqrt(2*math.Log(x)/float64(s.PullCount))
	}
	return scores
}

// OnUpdate is a no-op: everything UCB consults is recorded by the
// coordinator.
func (p *UCB) OnUpdate(arm int, reward float64, totalIterations int) {}

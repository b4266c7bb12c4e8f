package bandit

import (
	"fmt"
	"math"
	"math/rand"
)

// EpsilonGreedy explores a uniformly random arm with probability
// epsilon and exploits the current best arm otherwise. A positive
// decay shrinks epsilon exponentially as iterations accumulate.
type EpsilonGreedy struct {
	rng            *rand.Rand
	initialEpsilon float64
	epsilon        float64
	decay          float64
}

func NewEpsilonGreedy(rng *rand.Rand, epsilon, decay float64) (*EpsilonGreedy, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: epsilon-greedy requires a random source", ErrConfig)
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("%w: epsilon %v outside [0,1]", ErrConfig, epsilon)
	}
	if decay < 0 {
		return nil, fmt.Errorf("%w: epsilon decay %v is negative", ErrConfig, decay)
	}
	return &EpsilonGreedy{
		rng:            rng,
		initialEpsilon: epsilon,
		epsilon:        epsilon,
		decay:          decay,
	}, nil
}

// Choose draws the exploration coin only when epsilon is positive, so
// epsilon == 0 returns the argmax without consuming randomness. The
// exploration draw is uniform over all arms and may re-select the
// greedy arm.
func (p *EpsilonGreedy) Choose(stats []ArmStats, totalIterations int) int {
	if p.epsilon > 0 && p.rng.Float64() <= p.epsilon {
		return p.rng.Intn(len(stats))
	}
	return BestArm(stats)
}

// OnUpdate recomputes epsilon from the initial value and the iteration
// count, so it is monotonically non-increasing over a run.
func (p *EpsilonGreedy) OnUpdate(arm int, reward float64, totalIterations int) {
	if p.decay > 0 {
		p.epsilon = p.initialEpsilon * math.Exp(-p.decay*float64(totalIterations))
	}
}

// Epsilon reports the current exploration probability.
func (p *EpsilonGreedy) Epsilon() float64 { return p.epsilon }

package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"modelPilot/business/bandit"
	"modelPilot/domain"
	"time"
)

const (
	PolicyEpsilonGreedy = "epsilon_greedy"
	PolicyUCB           = "ucb"
)

// ModelProvider resolves registered model names into callable clients.
type ModelProvider interface {
	ClientFor(ctx context.Context, name string) (bandit.Model, error)
}

func buildPolicy(exp domain.Experiment) (bandit.SelectionPolicy, error) {
	seed := exp.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	switch exp.Policy {
	case PolicyEpsilonGreedy:
		return bandit.NewEpsilonGreedy(rng, exp.Epsilon, exp.EpsilonDecay)
	case PolicyUCB:
		if exp.Delta != nil {
			return bandit.NewUCB(rng, exp.ExploreEachArm, *exp.Delta)
		}
		return bandit.NewUCB1(rng, exp.ExploreEachArm)
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", bandit.ErrConfig, exp.Policy)
	}
}

// BuildCoordinator assembles a runnable coordinator from a stored
// experiment definition, resolving every model name through the
// provider in arm order.
func BuildCoordinator(ctx context.Context, provider ModelProvider, exp domain.Experiment) (*bandit.Coordinator, error) {
	models := make([]bandit.Model, 0, len(exp.ModelNames))
	for _, name := range exp.ModelNames {
		m, err := provider.ClientFor(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve model %q: %w", name, err)
		}
		models = append(models, m)
	}

	metric, err := MetricByName(exp.Metric)
	if err != nil {
		return nil, err
	}

	policy, err := buildPolicy(exp)
	if err != nil {
		return nil, err
	}

	normalizer, err := NormalizerByName(exp.Normalizer)
	if err != nil {
		return nil, err
	}

	opts := bandit.Options{
		SaveMetricValues:     exp.SaveMetricValues,
		SavePercentagePulled: exp.SavePercentagePulled,
		LogEvery:             exp.LogEvery,
	}

	return bandit.NewCoordinator(models, metric, policy, normalizer, opts)
}

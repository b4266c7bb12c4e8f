package bandit

import (
	"context"
	"fmt"

	"modelPilot/pkg/logger"
)

// One candidate model under comparison. Implementations live outside
// this package (remote endpoints in production, stand-ins in tests)
// and may be heterogeneous across arms.
type Model interface {
	Predict(ctx context.Context, features map[string]float64) (float64, error)
	Learn(ctx context.Context, features map[string]float64, target float64) error
}

// Prediction-quality metric. Evaluate is a pure per-sample function.
// Compatible is consulted once for every arm that enters the
// coordinator.
type Metric interface {
	Evaluate(prediction, target float64) float64
	BiggerIsBetter() bool
	Compatible(m Model) bool
}

// Online reward scaler. The coordinator feeds it a single named field,
// updating it with each observed value before transforming that same
// value.
type RewardNormalizer interface {
	Update(sample map[string]float64)
	Transform(sample map[string]float64) map[string]float64
}

// field name the coordinator uses with the reward normalizer
const rewardField = "metric"

// Options toggles optional per-step recording.
type Options struct {
	SaveMetricValues     bool
	SavePercentagePulled bool
	// log a progress line every LogEvery steps (0 disables it)
	LogEvery int
}

// Coordinator runs the full select/score/update cycle over a growable
// set of arms. It exclusively owns the arm statistics and the policy
// state. Not safe for concurrent use: callers serialize access to one
// coordinator.
type Coordinator struct {
	models     []Model
	stats      []ArmStats
	metric     Metric
	policy     SelectionPolicy
	normalizer RewardNormalizer
	opts       Options

	totalIterations int
	metricValues    []float64
	pullHistory     [][]float64
}

func NewCoordinator(models []Model, metric Metric, policy SelectionPolicy, normalizer RewardNormalizer, opts Options) (*Coordinator, error) {
	if len(models) < 2 {
		return nil, fmt.Errorf("%w: at least 2 candidate models required, got %d", ErrConfig, len(models))
	}
	if metric == nil {
		return nil, fmt.Errorf("%w: metric is required", ErrConfig)
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: selection policy is required", ErrConfig)
	}
	if normalizer == nil {
		return nil, fmt.Errorf("%w: reward normalizer is required", ErrConfig)
	}
	c := &Coordinator{
		metric:     metric,
		policy:     policy,
		normalizer: normalizer,
		opts:       opts,
	}
	if err := c.AddArms(models...); err != nil {
		return nil, err
	}
	return c, nil
}

// AddArms appends candidate models with zero-initialized statistics.
// Existing arm indices and statistics are untouched; on error nothing
// is appended.
func (c *Coordinator) AddArms(models ...Model) error {
	if len(models) == 0 {
		return fmt.Errorf("%w: at least one model required", ErrConfig)
	}
	for i, m := range models {
		if m == nil {
			return fmt.Errorf("%w: model at arm %d is nil", ErrConfig, len(c.models)+i)
		}
		if !c.metric.Compatible(m) {
			return fmt.Errorf("%w: metric %T is not compatible with model %T at arm %d", ErrConfig, c.metric, m, len(c.models)+i)
		}
	}
	c.models = append(c.models, models...)
	c.stats = append(c.stats, make([]ArmStats, len(models))...)
	return nil
}

// PredictResult reports which arm served an inference-only query.
type PredictResult struct {
	Arm   int     `json:"arm"`
	Value float64 `json:"value"`
}

// Predict runs arm selection and delegates to the chosen model. No
// statistics are mutated; the policy may still consume randomness.
func (c *Coordinator) Predict(ctx context.Context, features map[string]float64) (PredictResult, error) {
	arm := c.policy.Choose(c.stats, c.totalIterations)
	value, err := c.models[arm].Predict(ctx, features)
	if err != nil {
		return PredictResult{}, fmt.Errorf("predict with arm %d: %w", arm, err)
	}
	return PredictResult{Arm: arm, Value: value}, nil
}

// StepResult describes one completed decision cycle. MetricValue is
// the raw metric, Reward the sign-normalized and scaled value that was
// folded into the arm statistics.
type StepResult struct {
	Arm         int     `json:"arm"`
	Prediction  float64 `json:"prediction"`
	MetricValue float64 `json:"metric_value"`
	Reward      float64 `json:"reward"`
	Iteration   int     `json:"iteration"`
}

// Step runs one full decision cycle: choose an arm, score its
// prediction against the target, scale the reward, fold it into the
// arm statistics, notify the policy, then let the chosen model learn.
// A predict failure surfaces with nothing mutated. When Learn fails
// the reward has already been applied: the returned result is still
// valid and the error reports the training failure.
func (c *Coordinator) Step(ctx context.Context, features map[string]float64, target float64) (StepResult, error) {
	arm := c.policy.Choose(c.stats, c.totalIterations)

	prediction, err := c.models[arm].Predict(ctx, features)
	if err != nil {
		return StepResult{}, fmt.Errorf("predict with arm %d: %w", arm, err)
	}
	metricValue := c.metric.Evaluate(prediction, target)

	// rewards are always to-be-maximized
	reward := metricValue
	if !c.metric.BiggerIsBetter() {
		reward = -reward
	}

	// update-then-transform: the scaler sees the new sample before
	// scaling it
	sample := map[string]float64{rewardField: reward}
	c.normalizer.Update(sample)
	reward = c.normalizer.Transform(sample)[rewardField]

	c.totalIterations++
	c.stats[arm].Record(reward)
	c.policy.OnUpdate(arm, reward, c.totalIterations)

	res := StepResult{
		Arm:         arm,
		Prediction:  prediction,
		MetricValue: metricValue,
		Reward:      reward,
		Iteration:   c.totalIterations,
	}

	learnErr := c.models[arm].Learn(ctx, features, target)

	if c.opts.SaveMetricValues {
		c.metricValues = append(c.metricValues, metricValue)
	}
	if c.opts.SavePercentagePulled {
		c.pullHistory = append(c.pullHistory, PercentagePulled(c.stats))
	}
	if c.opts.LogEvery > 0 && c.totalIterations%c.opts.LogEvery == 0 {
		best := BestArm(c.stats)
		logger.Info("bandit_progress",
			"iteration", c.totalIterations,
			"best_arm", best,
			"best_average_reward", c.stats[best].AverageReward,
		)
	}

	if learnErr != nil {
		return res, fmt.Errorf("learn with arm %d: %w", arm, learnErr)
	}
	return res, nil
}

// BestArm returns the arm with the highest average reward right now,
// not necessarily the most-pulled one.
func (c *Coordinator) BestArm() int { return BestArm(c.stats) }

// BestModel returns the model behind BestArm.
func (c *Coordinator) BestModel() Model { return c.models[c.BestArm()] }

// NArms returns the current number of arms.
func (c *Coordinator) NArms() int { return len(c.models) }

// TotalIterations returns the number of completed decision cycles.
func (c *Coordinator) TotalIterations() int { return c.totalIterations }

// Policy exposes the selection policy for introspection.
func (c *Coordinator) Policy() SelectionPolicy { return c.policy }

// Stats returns a copy of the per-arm statistics.
func (c *Coordinator) Stats() []ArmStats {
	out := make([]ArmStats, len(c.stats))
	copy(out, c.stats)
	return out
}

// ArmSnapshot is one arm's statistics at a point in time.
type ArmSnapshot struct {
	Pulls         int     `json:"pulls"`
	AverageReward float64 `json:"average_reward"`
	PercentPulled float64 `json:"percent_pulled"`
}

// Snapshot reports every arm at the current instant.
type Snapshot struct {
	Arms            []ArmSnapshot `json:"arms"`
	BestArm         int           `json:"best_arm"`
	TotalIterations int           `json:"total_iterations"`
}

func (c *Coordinator) Snapshot() Snapshot {
	pct := PercentagePulled(c.stats)
	arms := make([]ArmSnapshot, len(c.stats))
	for i, s := range c.stats {
		arms[i] = ArmSnapshot{
			Pulls:         s.PullCount,
			AverageReward: s.AverageReward,
			PercentPulled: pct[i],
		}
	}
	return Snapshot{
		Arms:            arms,
		BestArm:         BestArm(c.stats),
		TotalIterations: c.totalIterations,
	}
}

// MetricValues returns the recorded raw metric values when
// SaveMetricValues is on. Callers must not modify the slice.
func (c *Coordinator) MetricValues() []float64 { return c.metricValues }

// PercentageHistory returns the per-step pull-share snapshots when
// SavePercentagePulled is on. Callers must not modify the slices.
func (c *Coordinator) PercentageHistory() [][]float64 { return c.pullHistory }

//go:build !integration

package bandit

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
)

// deterministic stand-ins

type fixedModel struct {
	value   float64
	learned int
}

func (m *fixedModel) Predict(ctx context.Context, features map[string]float64) (float64, error) {
	return m.value, nil
}

func (m *fixedModel) Learn(ctx context.Context, features map[string]float64, target float64) error {
	m.learned++
	return nil
}

type brokenLearnModel struct{ fixedModel }

func (m *brokenLearnModel) Learn(ctx context.Context, features map[string]float64, target float64) error {
	return errors.New("training backend down")
}

// scores the prediction itself, bigger better
type identityMetric struct{}

func (identityMetric) Evaluate(prediction, target float64) float64 { return prediction }
func (identityMetric) BiggerIsBetter() bool                        { return true }
func (identityMetric) Compatible(Model) bool                       { return true }

type absErrorMetric struct{}

func (absErrorMetric) Evaluate(prediction, target float64) float64 {
	return math.Abs(prediction - target)
}
func (absErrorMetric) BiggerIsBetter() bool  { return false }
func (absErrorMetric) Compatible(Model) bool { return true }

// only accepts plain fixedModel arms
type pickyMetric struct{ identityMetric }

func (pickyMetric) Compatible(m Model) bool {
	_, ok := m.(*fixedModel)
	return ok
}

// passes values through unchanged and records the call order
type recordingNormalizer struct {
	ops     []string
	samples []float64
}

func (n *recordingNormalizer) Update(sample map[string]float64) {
	n.ops = append(n.ops, "update")
	n.samples = append(n.samples, sample["metric"])
}

func (n *recordingNormalizer) Transform(sample map[string]float64) map[string]float64 {
	n.ops = append(n.ops, "transform")
	return sample
}

// always picks one arm and captures what OnUpdate receives
type captureUpdatePolicy struct {
	arm       int
	calls     int
	gotArm    int
	gotReward float64
	gotTotal  int
}

func (p *captureUpdatePolicy) Choose(stats []ArmStats, total int) int { return p.arm }

func (p *captureUpdatePolicy) OnUpdate(arm int, reward float64, total int) {
	p.calls++
	p.gotArm, p.gotReward, p.gotTotal = arm, reward, total
}

// plays a fixed prefix of arms, then delegates
type scriptedPolicy struct {
	script   []int
	next     int
	fallback SelectionPolicy
}

func (p *scriptedPolicy) Choose(stats []ArmStats, total int) int {
	if p.next < len(p.script) {
		arm := p.script[p.next]
		p.next++
		return arm
	}
	return p.fallback.Choose(stats, total)
}

func (p *scriptedPolicy) OnUpdate(arm int, reward float64, total int) {
	p.fallback.OnUpdate(arm, reward, total)
}

func TestNewCoordinatorValidation(t *testing.T) {
	greedy, err := NewEpsilonGreedy(rand.New(rand.NewSource(1)), 0, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	norm := &recordingNormalizer{}
	pair := []Model{&fixedModel{value: 1}, &fixedModel{value: 2}}

	if _, err := NewCoordinator([]Model{&fixedModel{value: 1}}, identityMetric{}, greedy, norm, Options{}); !errors.Is(err, ErrConfig) {
		t.Errorf("single model: err = %v, want ErrConfig", err)
	}
	if _, err := NewCoordinator(pair, nil, greedy, norm, Options{}); !errors.Is(err, ErrConfig) {
		t.Errorf("nil metric: err = %v, want ErrConfig", err)
	}
	if _, err := NewCoordinator(pair, identityMetric{}, nil, norm, Options{}); !errors.Is(err, ErrConfig) {
		t.Errorf("nil policy: err = %v, want ErrConfig", err)
	}
	if _, err := NewCoordinator(pair, identityMetric{}, greedy, nil, Options{}); !errors.Is(err, ErrConfig) {
		t.Errorf("nil normalizer: err = %v, want ErrConfig", err)
	}
	if _, err := NewCoordinator(pair, identityMetric{}, greedy, norm, Options{}); err != nil {
		t.Errorf("two compatible models: unexpected err %v", err)
	}
}

func TestNewCoordinatorNamesIncompatiblePair(t *testing.T) {
	greedy, err := NewEpsilonGreedy(rand.New(rand.NewSource(1)), 0, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	models := []Model{&fixedModel{value: 1}, &brokenLearnModel{}}
	_, err = NewCoordinator(models, pickyMetric{}, greedy, &recordingNormalizer{}, Options{})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	msg := err.Error()
	for _, part := range []string{"arm 1", "pickyMetric", "brokenLearnModel"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error %q does not name %q", msg, part)
		}
	}
}

func TestStepUpdateOrdering(t *testing.T) {
	greedy, err := NewEpsilonGreedy(rand.New(rand.NewSource(1)), 0, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	norm := &recordingNormalizer{}
	m0 := &fixedModel{value: 2.5}
	m1 := &fixedModel{value: 1.0}
	c, err := NewCoordinator([]Model{m0, m1}, identityMetric{}, greedy, norm, Options{})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	res, err := c.Step(context.Background(), map[string]float64{"x": 1}, 0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.Arm != 0 {
		t.Errorf("arm = %d, want 0 (greedy over zero-initialized stats)", res.Arm)
	}
	if res.Iteration != 1 {
		t.Errorf("iteration = %d, want 1", res.Iteration)
	}
	if len(norm.ops) != 2 || norm.ops[0] != "update" || norm.ops[1] != "transform" {
		t.Errorf("normalizer calls %v, want update then transform", norm.ops)
	}
	if m0.learned != 1 || m1.learned != 0 {
		t.Errorf("learn calls %d/%d, want 1/0", m0.learned, m1.learned)
	}
	stats := c.Stats()
	if stats[0].PullCount != 1 || stats[0].AverageReward != 2.5 {
		t.Errorf("arm 0 stats %+v, want one pull with average 2.5", stats[0])
	}
	if stats[1].PullCount != 0 {
		t.Errorf("arm 1 pulled %d times, want 0", stats[1].PullCount)
	}
}

func TestStepSignNormalizationAndPolicyUpdate(t *testing.T) {
	pol := &captureUpdatePolicy{arm: 1}
	norm := &recordingNormalizer{}
	models := []Model{&fixedModel{value: 0}, &fixedModel{value: 3}}
	c, err := NewCoordinator(models, absErrorMetric{}, pol, norm, Options{})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	// prediction 3 against target 1 gives error 2, negated to -2
	res, err := c.Step(context.Background(), map[string]float64{"x": 1}, 1)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.MetricValue != 2 {
		t.Errorf("metric value %v, want 2", res.MetricValue)
	}
	if res.Reward != -2 {
		t.Errorf("reward %v, want -2 (smaller-is-better metric negated)", res.Reward)
	}
	if len(norm.samples) != 1 || norm.samples[0] != -2 {
		t.Errorf("normalizer saw %v, want the sign-normalized value -2", norm.samples)
	}
	if pol.calls != 1 || pol.gotArm != 1 || pol.gotReward != -2 || pol.gotTotal != 1 {
		t.Errorf("policy update got arm=%d reward=%v total=%d calls=%d, want 1/-2/1/1",
			pol.gotArm, pol.gotReward, pol.gotTotal, pol.calls)
	}

	if _, err := c.Step(context.Background(), map[string]float64{"x": 1}, 1); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if pol.gotTotal != 2 {
		t.Errorf("policy saw total %d after second step, want the incremented count 2", pol.gotTotal)
	}
}

func TestPredictMutatesNothing(t *testing.T) {
	greedy, err := NewEpsilonGreedy(rand.New(rand.NewSource(1)), 0, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	norm := &recordingNormalizer{}
	m0 := &fixedModel{value: 4.2}
	m1 := &fixedModel{value: 1.1}
	c, err := NewCoordinator([]Model{m0, m1}, identityMetric{}, greedy, norm, Options{})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	for i := 0; i < 3; i++ {
		res, err := c.Predict(context.Background(), map[string]float64{"x": 1})
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if res.Arm != 0 || res.Value != 4.2 {
			t.Errorf("predict %d returned arm=%d value=%v, want 0/4.2", i, res.Arm, res.Value)
		}
	}
	if c.TotalIterations() != 0 {
		t.Errorf("iterations %d after predicts, want 0", c.TotalIterations())
	}
	for i, s := range c.Stats() {
		if s.PullCount != 0 || s.AverageReward != 0 {
			t.Errorf("arm %d stats %+v after predicts, want zeros", i, s)
		}
	}
	if m0.learned != 0 || m1.learned != 0 {
		t.Errorf("learn calls %d/%d after predicts, want 0/0", m0.learned, m1.learned)
	}
	if len(norm.ops) != 0 {
		t.Errorf("normalizer touched during predict: %v", norm.ops)
	}
}

func TestStepLearnFailureKeepsAppliedReward(t *testing.T) {
	pol := &captureUpdatePolicy{arm: 0}
	bad := &brokenLearnModel{fixedModel{value: 1}}
	c, err := NewCoordinator([]Model{bad, &fixedModel{value: 2}}, identityMetric{}, pol, &recordingNormalizer{}, Options{})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	res, err := c.Step(context.Background(), map[string]float64{"x": 1}, 0)
	if err == nil {
		t.Fatal("Step returned nil error, want the training failure")
	}
	if res.Iteration != 1 || res.Arm != 0 {
		t.Errorf("result %+v, want a valid applied cycle on arm 0", res)
	}
	if c.TotalIterations() != 1 {
		t.Errorf("iterations %d, want 1", c.TotalIterations())
	}
	if got := c.Stats()[0]; got.PullCount != 1 || got.AverageReward != 1 {
		t.Errorf("arm 0 stats %+v, want the reward applied before the failure", got)
	}
}

func TestAddArms(t *testing.T) {
	greedy, err := NewEpsilonGreedy(rand.New(rand.NewSource(1)), 0, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	c, err := NewCoordinator([]Model{&fixedModel{value: 3}, &fixedModel{value: 1}}, identityMetric{}, greedy, &recordingNormalizer{}, Options{})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := c.Step(context.Background(), map[string]float64{"x": 1}, 0); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	before := c.Stats()

	if err := c.AddArms(&fixedModel{value: 9}, &fixedModel{value: 4}); err != nil {
		t.Fatalf("AddArms: %v", err)
	}
	if c.NArms() != 4 {
		t.Fatalf("NArms = %d, want 4", c.NArms())
	}
	after := c.Stats()
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("arm %d stats changed from %+v to %+v", i, before[i], after[i])
		}
	}
	for i := 2; i < 4; i++ {
		if after[i].PullCount != 0 || after[i].AverageReward != 0 {
			t.Errorf("new arm %d stats %+v, want zero-initialized", i, after[i])
		}
	}

	if err := c.AddArms(); !errors.Is(err, ErrConfig) {
		t.Errorf("empty AddArms: err = %v, want ErrConfig", err)
	}
	if err := c.AddArms(&fixedModel{value: 1}, nil); !errors.Is(err, ErrConfig) {
		t.Errorf("nil model: err = %v, want ErrConfig", err)
	}
	if c.NArms() != 4 {
		t.Errorf("NArms = %d after failed AddArms, want still 4", c.NArms())
	}
}

func TestHistoryRecording(t *testing.T) {
	greedy, err := NewEpsilonGreedy(rand.New(rand.NewSource(1)), 0, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	opts := Options{SaveMetricValues: true, SavePercentagePulled: true}
	c, err := NewCoordinator([]Model{&fixedModel{value: 2}, &fixedModel{value: 1}}, identityMetric{}, greedy, &recordingNormalizer{}, opts)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	const steps = 5
	for i := 0; i < steps; i++ {
		if _, err := c.Step(context.Background(), map[string]float64{"x": 1}, 0); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if got := c.MetricValues(); len(got) != steps {
		t.Errorf("recorded %d metric values, want %d", len(got), steps)
	}
	hist := c.PercentageHistory()
	if len(hist) != steps {
		t.Fatalf("recorded %d pull snapshots, want %d", len(hist), steps)
	}
	for i, snap := range hist {
		sum := 0.0
		for _, v := range snap {
			sum += v
		}
		if math.Abs(sum-1.0) > 1e-12 {
			t.Errorf("snapshot %d sums to %v, want 1.0", i, sum)
		}
	}

	quiet, err := NewEpsilonGreedy(rand.New(rand.NewSource(1)), 0, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	c2, err := NewCoordinator([]Model{&fixedModel{value: 2}, &fixedModel{value: 1}}, identityMetric{}, quiet, &recordingNormalizer{}, Options{})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	if _, err := c2.Step(context.Background(), map[string]float64{"x": 1}, 0); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(c2.MetricValues()) != 0 || len(c2.PercentageHistory()) != 0 {
		t.Errorf("history recorded while disabled")
	}
}

func TestGreedyRunConvergesToBestArm(t *testing.T) {
	models := []Model{
		&fixedModel{value: 1.0},
		&fixedModel{value: 5.0},
		&fixedModel{value: 3.0},
	}
	greedy, err := NewEpsilonGreedy(rand.New(rand.NewSource(11)), 0, 0)
	if err != nil {
		t.Fatalf("NewEpsilonGreedy: %v", err)
	}
	// one seeding pull per arm, then pure exploitation
	pol := &scriptedPolicy{script: []int{0, 1, 2}, fallback: greedy}
	c, err := NewCoordinator(models, identityMetric{}, pol, &recordingNormalizer{}, Options{})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	ctx := context.Background()
	x := map[string]float64{"f": 1}
	for i := 0; i < 3; i++ {
		if _, err := c.Step(ctx, x, 0); err != nil {
			t.Fatalf("seeding step %d: %v", i, err)
		}
	}
	for i := 0; i < 10; i++ {
		res, err := c.Step(ctx, x, 0)
		if err != nil {
			t.Fatalf("greedy step %d: %v", i, err)
		}
		if res.Arm != 1 {
			t.Fatalf("greedy pull %d chose arm %d, want 1", i, res.Arm)
		}
	}
	if got := c.BestArm(); got != 1 {
		t.Errorf("best arm %d, want 1", got)
	}
	if bm := c.BestModel(); bm != models[1] {
		t.Errorf("best model is not the 5.0 arm")
	}
	snap := c.Snapshot()
	if snap.Arms[1].Pulls != 11 {
		t.Errorf("arm 1 pulled %d times, want 11", snap.Arms[1].Pulls)
	}
	if snap.TotalIterations != 13 {
		t.Errorf("total iterations %d, want 13", snap.TotalIterations)
	}
}

func TestUCBRunFavorsBestArm(t *testing.T) {
	models := []Model{
		&fixedModel{value: 1.0},
		&fixedModel{value: 5.0},
		&fixedModel{value: 3.0},
	}
	ucb, err := NewUCB1(rand.New(rand.NewSource(21)), 0)
	if err != nil {
		t.Fatalf("NewUCB1: %v", err)
	}
	c, err := NewCoordinator(models, identityMetric{}, ucb, &recordingNormalizer{}, Options{})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	ctx := context.Background()
	x := map[string]float64{"f": 1}
	for i := 0; i < 50; i++ {
		if _, err := c.Step(ctx, x, 0); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if got := c.BestArm(); got != 1 {
		t.Errorf("best arm %d, want 1", got)
	}
	stats := c.Stats()
	if stats[1].PullCount <= stats[0].PullCount || stats[1].PullCount <= stats[2].PullCount {
		t.Errorf("pull counts %d/%d/%d, want arm 1 pulled most",
			stats[0].PullCount, stats[1].PullCount, stats[2].PullCount)
	}
}

package experiment

import (
	"context"
	"errors"
	"fmt"
	"modelPilot/business/bandit"
	"modelPilot/domain"
	"modelPilot/pkg/logger"
	"strconv"
	"sync"
	"time"

	"gorm.io/datatypes"
)

// ---- Repository interfaces ----

type ExperimentRepository interface {
	Create(ctx context.Context, exp *domain.Experiment) error
	FindByName(ctx context.Context, name string) (domain.Experiment, bool, error)
	FindAll(ctx context.Context) ([]domain.Experiment, error)
	UpdateStatus(ctx context.Context, name, status string) error
	UpdateModelNames(ctx context.Context, name string, modelNames []string) error
	Delete(ctx context.Context, name string) error
}

type DecisionRepository interface {
	SaveEvent(ctx context.Context, event domain.DecisionEvent) error
	ListByExperiment(ctx context.Context, experiment string, limit int) ([]domain.DecisionEvent, error)
	DeleteByExperiment(ctx context.Context, experiment string) error
}

type Notifier interface {
	SendLeaderChange(change domain.LeaderChange) error
}

const (
	StatusActive = "active"
	StatusPaused = "paused"
)

// ---- Usecase / Service ----

// run pairs a live coordinator with its stored definition. The mutex
// serializes every touch of the coordinator, including Predict, since
// policies draw from a shared random source.
type run struct {
	mu     sync.Mutex
	coord  *bandit.Coordinator
	exp    domain.Experiment
	models []string // arm index -> model name
}

type experimentService struct {
	expRepo      ExperimentRepository
	decisionRepo DecisionRepository
	provider     ModelProvider
	notifier     Notifier

	mu   sync.RWMutex
	runs map[string]*run
}

func NewExperimentService(
	expRepo ExperimentRepository,
	decisionRepo DecisionRepository,
	provider ModelProvider,
	notifier Notifier,
) *experimentService {
	return &experimentService{
		expRepo:      expRepo,
		decisionRepo: decisionRepo,
		provider:     provider,
		notifier:     notifier,
		runs:         make(map[string]*run),
	}
}

// StepOutcome reports one completed decision cycle of an experiment.
type StepOutcome struct {
	Experiment  string  `json:"experiment"`
	Arm         int     `json:"arm"`
	ModelName   string  `json:"model_name"`
	Prediction  float64 `json:"prediction"`
	MetricValue float64 `json:"metric_value"`
	Reward      float64 `json:"reward"`
	Iteration   int     `json:"iteration"`
	TraceID     string  `json:"trace_id,omitempty"`
}

// PredictOutcome reports an inference-only query.
type PredictOutcome struct {
	Experiment string  `json:"experiment"`
	Arm        int     `json:"arm"`
	ModelName  string  `json:"model_name"`
	Value      float64 `json:"value"`
	TraceID    string  `json:"trace_id,omitempty"`
}

func (s *experimentService) Create(ctx context.Context, exp domain.Experiment) (domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Experiment{}, fmt.Errorf("context error: %w", err)
	}
	if exp.Name == "" {
		return domain.Experiment{}, errors.New("experiment name is required")
	}

	_, found, err := s.expRepo.FindByName(ctx, exp.Name)
	if err != nil {
		return domain.Experiment{}, err
	}
	if found {
		return domain.Experiment{}, errors.New("experiment already exists")
	}

	if exp.Status == "" {
		exp.Status = StatusActive
	}

	// mint the seed here so the stored definition rebuilds the same
	// draw sequence after a restart
	if exp.Seed == 0 {
		exp.Seed = time.Now().UnixNano()
	}

	// assemble once up front so a broken definition never reaches the
	// database
	if _, err := BuildCoordinator(ctx, s.provider, exp); err != nil {
		return domain.Experiment{}, err
	}

	if err := s.expRepo.Create(ctx, &exp); err != nil {
		logger.Error("Failed to create experiment", err)
		return domain.Experiment{}, err
	}

	if _, err := s.registerRun(ctx, exp); err != nil {
		return domain.Experiment{}, err
	}

	logger.Info("experiment created",
		"experiment", exp.Name,
		"policy", exp.Policy,
		"metric", exp.Metric,
		"models", len(exp.ModelNames),
	)
	return exp, nil
}

// Step runs one labeled observation through the experiment: the policy
// picks an arm, the arm's model predicts, the prediction is scored
// against the target, and the chosen model learns. The outcome stays
// valid even when the error is non-nil, which happens when only the
// final learn call failed.
func (s *experimentService) Step(ctx context.Context, name string, features map[string]float64, target float64) (StepOutcome, error) {
	if err := ctx.Err(); err != nil {
		return StepOutcome{}, fmt.Errorf("context error: %w", err)
	}

	r, err := s.loadRun(ctx, name)
	if err != nil {
		return StepOutcome{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.exp.Status != StatusActive {
		return StepOutcome{}, errors.New("experiment is paused")
	}

	prevBest := r.coord.BestArm()

	res, stepErr := r.coord.Step(ctx, features, target)
	if stepErr != nil && res.Iteration == 0 {
		// predict failed, nothing was recorded
		return StepOutcome{}, stepErr
	}

	tid := TraceIDFromContext(ctx)
	outcome := StepOutcome{
		Experiment:  name,
		Arm:         res.Arm,
		ModelName:   r.models[res.Arm],
		Prediction:  res.Prediction,
		MetricValue: res.MetricValue,
		Reward:      res.Reward,
		Iteration:   res.Iteration,
		TraceID:     tid,
	}

	event := domain.DecisionEvent{
		Experiment:  name,
		Iteration:   res.Iteration,
		Arm:         res.Arm,
		ModelName:   outcome.ModelName,
		Prediction:  res.Prediction,
		Target:      target,
		MetricValue: res.MetricValue,
		Reward:      res.Reward,
		TraceID:     tid,
		Features:    featuresToJSONMap(features),
	}
	if err := s.decisionRepo.SaveEvent(ctx, event); err != nil {
		logger.Warn("Failed to save decision event", err)
	}

	StepsTotal.WithLabelValues(name, r.exp.Policy, strconv.Itoa(res.Arm)).Inc()

	newBest := r.coord.BestArm()
	if res.Iteration > 1 && newBest != prevBest {
		LeaderChangesTotal.WithLabelValues(name).Inc()

		change := domain.LeaderChange{
			Experiment:    name,
			Iteration:     res.Iteration,
			OldArm:        prevBest,
			OldModel:      r.models[prevBest],
			NewArm:        newBest,
			NewModel:      r.models[newBest],
			AverageReward: r.coord.Stats()[newBest].AverageReward,
		}
		if err := s.notifier.SendLeaderChange(change); err != nil {
			logger.Warn("Failed to send leader change notification", err)
		}
	}

	logger.Debug("experiment_step",
		"trace_id", tid,
		"experiment", name,
		"arm", res.Arm,
		"model", outcome.ModelName,
		"metric_value", res.MetricValue,
		"reward", res.Reward,
		"iteration", res.Iteration,
	)

	if stepErr != nil {
		return outcome, stepErr
	}
	return outcome, nil
}

// Predict serves an inference-only query. Arm statistics are not
// touched and nothing is persisted.
func (s *experimentService) Predict(ctx context.Context, name string, features map[string]float64) (PredictOutcome, error) {
	if err := ctx.Err(); err != nil {
		return PredictOutcome{}, fmt.Errorf("context error: %w", err)
	}

	r, err := s.loadRun(ctx, name)
	if err != nil {
		return PredictOutcome{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.coord.Predict(ctx, features)
	if err != nil {
		return PredictOutcome{}, err
	}

	tid := TraceIDFromContext(ctx)
	logger.Debug("experiment_predict",
		"trace_id", tid,
		"experiment", name,
		"arm", res.Arm,
		"model", r.models[res.Arm],
	)

	return PredictOutcome{
		Experiment: name,
		Arm:        res.Arm,
		ModelName:  r.models[res.Arm],
		Value:      res.Value,
		TraceID:    tid,
	}, nil
}

// Report assembles the current standing of an experiment for
// inspection: per-arm statistics, policy internals, and the latest
// audit rows.
func (s *experimentService) Report(ctx context.Context, name string) (domain.ExperimentReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExperimentReport{}, fmt.Errorf("context error: %w", err)
	}

	r, err := s.loadRun(ctx, name)
	if err != nil {
		return domain.ExperimentReport{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.coord.Snapshot()
	arms := make([]domain.ArmReport, len(snap.Arms))
	allPulled := true
	for i, a := range snap.Arms {
		arms[i] = domain.ArmReport{
			Arm:              i,
			ModelName:        r.models[i],
			Pulls:            a.Pulls,
			AverageReward:    a.AverageReward,
			PercentagePulled: a.PercentPulled,
		}
		if a.Pulls == 0 {
			allPulled = false
		}
	}

	report := domain.ExperimentReport{
		Experiment:      r.exp.Name,
		Status:          r.exp.Status,
		Policy:          r.exp.Policy,
		Metric:          r.exp.Metric,
		TotalIterations: snap.TotalIterations,
		BestArm:         snap.BestArm,
		BestModel:       r.models[snap.BestArm],
		Arms:            arms,
	}

	switch p := r.coord.Policy().(type) {
	case *bandit.EpsilonGreedy:
		eps := p.Epsilon()
		report.CurrentEpsilon = &eps
	case *bandit.UCB:
		// confidence bounds are garbage until every arm was pulled
		if allPulled {
			report.UCBScores = p.Scores(r.coord.Stats(), r.coord.TotalIterations())
		}
	}

	if r.exp.SaveMetricValues {
		vals := r.coord.MetricValues()
		const tail = 100
		if len(vals) > tail {
			vals = vals[len(vals)-tail:]
		}
		report.MetricValues = append([]float64(nil), vals...)
	}

	events, err := s.decisionRepo.ListByExperiment(ctx, name, 20)
	if err != nil {
		logger.Warn("Failed to load recent decisions", err)
	} else {
		report.RecentDecisions = events
	}

	return report, nil
}

// Debug returns the raw score components behind the next arm choice.
// UCB bonus and score stay zero while any arm is still unpulled, the
// confidence bounds mean nothing during forced exploration.
func (s *experimentService) Debug(ctx context.Context, name string) (domain.ExperimentDebug, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExperimentDebug{}, fmt.Errorf("context error: %w", err)
	}

	r, err := s.loadRun(ctx, name)
	if err != nil {
		return domain.ExperimentDebug{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stats := r.coord.Stats()
	dbg := domain.ExperimentDebug{
		Experiment:      name,
		Policy:          r.exp.Policy,
		TotalIterations: r.coord.TotalIterations(),
		BestArm:         r.coord.BestArm(),
		Arms:            make([]domain.ArmDebug, len(stats)),
	}

	allPulled := true
	for i, st := range stats {
		dbg.Arms[i] = domain.ArmDebug{
			Arm:           i,
			ModelName:     r.models[i],
			Pulls:         st.PullCount,
			AverageReward: st.AverageReward,
		}
		if st.PullCount == 0 {
			allPulled = false
		}
	}

	switch p := r.coord.Policy().(type) {
	case *bandit.EpsilonGreedy:
		eps := p.Epsilon()
		dbg.Epsilon = &eps
	case *bandit.UCB:
		if allPulled {
			scores := p.Scores(stats, r.coord.TotalIterations())
			for i := range dbg.Arms {
				dbg.Arms[i].Score = scores[i]
				dbg.Arms[i].Bonus = scores[i] - stats[i].AverageReward
			}
		}
	}

	tid := TraceIDFromContext(ctx)
	logger.Debug("experiment_debug",
		"trace_id", tid,
		"experiment", name,
		"best_arm", dbg.BestArm,
		"iterations", dbg.TotalIterations,
	)

	return dbg, nil
}

// ListDecisions pages through the audit rows, newest first.
func (s *experimentService) ListDecisions(ctx context.Context, name string, limit int) ([]domain.DecisionEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if limit <= 0 {
		limit = 50
	}

	// resolve the run first so an unknown name reads as not found
	// instead of an empty list
	if _, err := s.loadRun(ctx, name); err != nil {
		return nil, err
	}

	return s.decisionRepo.ListByExperiment(ctx, name, limit)
}

// AddModels grows the experiment with extra candidate arms. Existing
// arm statistics are untouched.
func (s *experimentService) AddModels(ctx context.Context, name string, modelNames []string) (domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Experiment{}, fmt.Errorf("context error: %w", err)
	}
	if len(modelNames) == 0 {
		return domain.Experiment{}, fmt.Errorf("%w: at least one model required", bandit.ErrConfig)
	}

	r, err := s.loadRun(ctx, name)
	if err != nil {
		return domain.Experiment{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	models := make([]bandit.Model, 0, len(modelNames))
	for _, n := range modelNames {
		m, err := s.provider.ClientFor(ctx, n)
		if err != nil {
			return domain.Experiment{}, fmt.Errorf("resolve model %q: %w", n, err)
		}
		models = append(models, m)
	}

	if err := r.coord.AddArms(models...); err != nil {
		return domain.Experiment{}, err
	}

	r.models = append(r.models, modelNames...)
	r.exp.ModelNames = r.models

	if err := s.expRepo.UpdateModelNames(ctx, name, r.models); err != nil {
		logger.Error("Failed to persist model names", err)
		return domain.Experiment{}, err
	}

	logger.Info("experiment arms added", "experiment", name, "models", len(r.models))
	return r.exp, nil
}

func (s *experimentService) Pause(ctx context.Context, name string) error {
	return s.setStatus(ctx, name, StatusPaused)
}

func (s *experimentService) Resume(ctx context.Context, name string) error {
	return s.setStatus(ctx, name, StatusActive)
}

func (s *experimentService) setStatus(ctx context.Context, name, status string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r, err := s.loadRun(ctx, name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := s.expRepo.UpdateStatus(ctx, name, status); err != nil {
		return err
	}
	r.exp.Status = status

	logger.Info("experiment status changed", "experiment", name, "status", status)
	return nil
}

// Delete removes the experiment definition and its audit rows.
func (s *experimentService) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	delete(s.runs, name)
	s.mu.Unlock()

	if err := s.decisionRepo.DeleteByExperiment(ctx, name); err != nil {
		logger.Warn("Failed to delete decision events", err)
	}

	return s.expRepo.Delete(ctx, name)
}

func (s *experimentService) GetAll(ctx context.Context) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	return s.expRepo.FindAll(ctx)
}

// BuildCoordinator assembles a throwaway coordinator for the given
// definition without registering it.
func (s *experimentService) BuildCoordinator(ctx context.Context, exp domain.Experiment) (*bandit.Coordinator, error) {
	return BuildCoordinator(ctx, s.provider, exp)
}

// Restore rebuilds live coordinators for every stored experiment,
// usually at boot. Experiments that fail to assemble are skipped with
// a warning so one broken definition cannot block the rest.
func (s *experimentService) Restore(ctx context.Context) error {
	exps, err := s.expRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list experiments: %w", err)
	}

	for _, exp := range exps {
		if _, err := s.loadRun(ctx, exp.Name); err != nil {
			logger.Warn("Failed to restore experiment", "experiment", exp.Name, "error", err)
			continue
		}
		logger.Info("experiment restored", "experiment", exp.Name)
	}

	return nil
}

// ---- internals ----

func (s *experimentService) loadRun(ctx context.Context, name string) (*run, error) {
	s.mu.RLock()
	r, ok := s.runs[name]
	s.mu.RUnlock()
	if ok {
		return r, nil
	}

	exp, found, err := s.expRepo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("experiment not found")
	}

	return s.registerRun(ctx, exp)
}

func (s *experimentService) registerRun(ctx context.Context, exp domain.Experiment) (*run, error) {
	coord, err := BuildCoordinator(ctx, s.provider, exp)
	if err != nil {
		return nil, err
	}

	r := &run{
		coord:  coord,
		exp:    exp,
		models: append([]string(nil), exp.ModelNames...),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.runs[exp.Name]; ok {
		return existing, nil
	}
	s.runs[exp.Name] = r
	return r, nil
}

func featuresToJSONMap(features map[string]float64) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range features {
		out[k] = v
	}
	return out
}

package replay

import (
	"context"
	"errors"
	"fmt"
	"modelPilot/business/bandit"
	"modelPilot/domain"
	"modelPilot/pkg/logger"
	"time"

	"gorm.io/datatypes"
)

// SampleRepository contract interface
type SampleRepository interface {
	BulkInsert(ctx context.Context, samples []domain.ReplaySample) error
	ListByDataset(ctx context.Context, dataset string) ([]domain.ReplaySample, error)
	CountByDataset(ctx context.Context, dataset string) (int64, error)
	DeleteDataset(ctx context.Context, dataset string) error
}

// CoordinatorBuilder assembles a fresh coordinator for a definition
// without registering it anywhere.
type CoordinatorBuilder interface {
	BuildCoordinator(ctx context.Context, exp domain.Experiment) (*bandit.Coordinator, error)
}

type replayService struct {
	sampleRepo SampleRepository
	builder    CoordinatorBuilder
}

func NewReplayService(sampleRepo SampleRepository, builder CoordinatorBuilder) *replayService {
	return &replayService{
		sampleRepo: sampleRepo,
		builder:    builder,
	}
}

// Observation is one labeled sample as submitted by clients.
type Observation struct {
	Features map[string]float64 `json:"features"`
	Target   float64            `json:"target"`
}

// Ingest appends observations to a dataset, preserving submission
// order across calls. Returns the dataset size after the append.
func (s *replayService) Ingest(ctx context.Context, dataset string, observations []Observation) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}
	if dataset == "" {
		return 0, errors.New("dataset name is required")
	}
	if len(observations) == 0 {
		return 0, errors.New("at least one observation is required")
	}

	startSeq, err := s.sampleRepo.CountByDataset(ctx, dataset)
	if err != nil {
		return 0, err
	}

	samples := make([]domain.ReplaySample, 0, len(observations))
	for i, obs := range observations {
		samples = append(samples, domain.ReplaySample{
			Dataset:  dataset,
			Seq:      int(startSeq) + i,
			Features: featuresToJSONMap(obs.Features),
			Target:   obs.Target,
		})
	}

	if err := s.sampleRepo.BulkInsert(ctx, samples); err != nil {
		logger.Error("failed to ingest replay samples", err)
		return 0, err
	}

	total := startSeq + int64(len(samples))
	logger.Info("replay samples ingested", "dataset", dataset, "added", len(samples), "total", total)

	return total, nil
}

// RunResult is the final standing after streaming a dataset.
type RunResult struct {
	Dataset         string             `json:"dataset"`
	Samples         int                `json:"samples"`
	TotalIterations int                `json:"total_iterations"`
	BestArm         int                `json:"best_arm"`
	BestModel       string             `json:"best_model"`
	MeanMetricValue float64            `json:"mean_metric_value"`
	DurationMS      int64              `json:"duration_ms"`
	Arms            []domain.ArmReport `json:"arms"`
}

// Run streams a stored dataset through a fresh coordinator built from
// the given definition and reports where it lands. Live experiments
// are untouched, so the same definition can be evaluated repeatedly.
func (s *replayService) Run(ctx context.Context, dataset string, exp domain.Experiment) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, fmt.Errorf("context error: %w", err)
	}
	if dataset == "" {
		return RunResult{}, errors.New("dataset name is required")
	}

	samples, err := s.sampleRepo.ListByDataset(ctx, dataset)
	if err != nil {
		return RunResult{}, err
	}
	if len(samples) == 0 {
		return RunResult{}, errors.New("dataset not found or empty")
	}

	// exp is a copy, forcing history on never leaks to the caller
	exp.SaveMetricValues = true
	coord, err := s.builder.BuildCoordinator(ctx, exp)
	if err != nil {
		return RunResult{}, err
	}

	started := time.Now()
	for _, sample := range samples {
		features := jsonMapToFeatures(sample.Features)
		if _, err := coord.Step(ctx, features, sample.Target); err != nil {
			return RunResult{}, fmt.Errorf("replay step %d: %w", sample.Seq, err)
		}
	}

	mean := 0.0
	if vals := coord.MetricValues(); len(vals) > 0 {
		for _, v := range vals {
			mean += v
		}
		mean /= float64(len(vals))
	}

	snap := coord.Snapshot()
	arms := make([]domain.ArmReport, len(snap.Arms))
	for i, a := range snap.Arms {
		arms[i] = domain.ArmReport{
			Arm:              i,
			ModelName:        exp.ModelNames[i],
			Pulls:            a.Pulls,
			AverageReward:    a.AverageReward,
			PercentagePulled: a.PercentPulled,
		}
	}

	result := RunResult{
		Dataset:         dataset,
		Samples:         len(samples),
		TotalIterations: snap.TotalIterations,
		BestArm:         snap.BestArm,
		BestModel:       exp.ModelNames[snap.BestArm],
		MeanMetricValue: mean,
		DurationMS:      time.Since(started).Milliseconds(),
		Arms:            arms,
	}

	logger.Info("replay run finished",
		"dataset", dataset,
		"samples", len(samples),
		"best_arm", result.BestArm,
		"best_model", result.BestModel,
	)

	return result, nil
}

func (s *replayService) DeleteDataset(ctx context.Context, dataset string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if dataset == "" {
		return errors.New("dataset name is required")
	}

	return s.sampleRepo.DeleteDataset(ctx, dataset)
}

func featuresToJSONMap(features map[string]float64) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range features {
		out[k] = v
	}
	return out
}

func jsonMapToFeatures(m datatypes.JSONMap) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}

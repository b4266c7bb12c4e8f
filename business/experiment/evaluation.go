package experiment

import (
	"fmt"
	"math"
	"modelPilot/business/bandit"
	"modelPilot/business/scaler"
	"strings"
)

const (
	TaskRegression     = "regression"
	TaskClassification = "classification"
)

// models that report which task they serve
type taskModel interface {
	Task() string
}

// MeanAbsoluteError scores regression predictions. Smaller is better.
type MeanAbsoluteError struct{}

var _ bandit.Metric = MeanAbsoluteError{}

func (MeanAbsoluteError) Evaluate(prediction, target float64) float64 {
	return math.Abs(prediction - target)
}

func (MeanAbsoluteError) BiggerIsBetter() bool { return false }

func (MeanAbsoluteError) Compatible(m bandit.Model) bool {
	tm, ok := m.(taskModel)
	if !ok {
		return true
	}
	return tm.Task() == TaskRegression
}

// Accuracy scores classification predictions as hit or miss.
type Accuracy struct{}

var _ bandit.Metric = Accuracy{}

func (Accuracy) Evaluate(prediction, target float64) float64 {
	if prediction == target {
		return 1
	}
	return 0
}

func (Accuracy) BiggerIsBetter() bool { return true }

func (Accuracy) Compatible(m bandit.Model) bool {
	tm, ok := m.(taskModel)
	if !ok {
		return true
	}
	return tm.Task() == TaskClassification
}

func MetricByName(name string) (bandit.Metric, error) {
	switch strings.ToLower(name) {
	case "mae":
		return MeanAbsoluteError{}, nil
	case "accuracy":
		return Accuracy{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown metric %q", bandit.ErrConfig, name)
	}
}

func NormalizerByName(name string) (bandit.RewardNormalizer, error) {
	switch strings.ToLower(name) {
	case "", "standard":
		return scaler.NewStandardScaler(), nil
	case "maxabs":
		return scaler.NewMaxAbsScaler(), nil
	default:
		return nil, fmt.Errorf("%w: unknown normalizer %q", bandit.ErrConfig, name)
	}
}

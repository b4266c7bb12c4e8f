package domain

import (
	"time"
)

type Experiment struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"column:name;unique;not null" json:"name"`
	Policy string `gorm:"column:policy;not null" json:"policy"`

	// epsilon-greedy parameters
	Epsilon      float64 `gorm:"column:epsilon" json:"epsilon"`
	EpsilonDecay float64 `gorm:"column:epsilon_decay" json:"epsilon_decay"`

	// ucb parameters (nil delta selects the iteration-count variant)
	ExploreEachArm int      `gorm:"column:explore_each_arm" json:"explore_each_arm"`
	Delta          *float64 `gorm:"column:delta" json:"delta,omitempty"`

	Metric     string `gorm:"column:metric;not null" json:"metric"`
	Normalizer string `gorm:"column:normalizer" json:"normalizer"`
	Seed       int64  `gorm:"column:seed" json:"seed"`

	Status string `gorm:"column:status;default:active" json:"status"`

	SaveMetricValues     bool `gorm:"column:save_metric_values" json:"save_metric_values"`
	SavePercentagePulled bool `gorm:"column:save_percentage_pulled" json:"save_percentage_pulled"`
	LogEvery             int  `gorm:"column:log_every" json:"log_every"`

	ModelNamesRaw []byte   `gorm:"column:model_names;type:jsonb" json:"-"`
	ModelNames    []string `gorm:"-" json:"model_names"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Experiment) TableName() string {
	return "experiments"
}

type ArmReport struct {
	Arm              int     `json:"arm"`
	ModelName        string  `json:"model_name"`
	Pulls            int     `json:"pulls"`
	AverageReward    float64 `json:"average_reward"`
	PercentagePulled float64 `json:"percentage_pulled"` // 0-1 share of all pulls
}

type ExperimentReport struct {
	Experiment      string          `json:"experiment"`
	Status          string          `json:"status"`
	Policy          string          `json:"policy"`
	Metric          string          `json:"metric"`
	TotalIterations int             `json:"total_iterations"`
	BestArm         int             `json:"best_arm"`
	BestModel       string          `json:"best_model"`
	Arms            []ArmReport     `json:"arms"`
	CurrentEpsilon  *float64        `json:"current_epsilon,omitempty"` // epsilon greedy only
	UCBScores       []float64       `json:"ucb_scores,omitempty"`      // ucb only, once every arm was pulled
	MetricValues    []float64       `json:"metric_values,omitempty"`
	RecentDecisions []DecisionEvent `json:"recent_decisions,omitempty"`
}

type ArmDebug struct {
	Arm           int     `json:"arm"`
	ModelName     string  `json:"model_name"`
	Pulls         int     `json:"pulls"`
	AverageReward float64 `json:"average_reward"`
	Bonus         float64 `json:"bonus"` // ucb confidence width, zero until every arm was pulled
	Score         float64 `json:"score"` // average reward + bonus
}

// ExperimentDebug breaks the next arm choice into its score components.
type ExperimentDebug struct {
	Experiment      string     `json:"experiment"`
	Policy          string     `json:"policy"`
	TotalIterations int        `json:"total_iterations"`
	BestArm         int        `json:"best_arm"`
	Epsilon         *float64   `json:"epsilon,omitempty"`
	Arms            []ArmDebug `json:"arms"`
}

// payload sent to the notifier when an experiment's leading arm flips
type LeaderChange struct {
	Experiment    string  `json:"experiment"`
	Iteration     int     `json:"iteration"`
	OldArm        int     `json:"old_arm"`
	OldModel      string  `json:"old_model"`
	NewArm        int     `json:"new_arm"`
	NewModel      string  `json:"new_model"`
	AverageReward float64 `json:"average_reward"`
}

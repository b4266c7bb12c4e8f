package domain

import (
	"time"

	"gorm.io/datatypes"
)

// audit row for one completed decision cycle
type DecisionEvent struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Experiment  string            `gorm:"column:experiment;not null;index" json:"experiment"`
	Iteration   int               `gorm:"column:iteration;not null" json:"iteration"`
	Arm         int               `gorm:"column:arm;not null" json:"arm"`
	ModelName   string            `gorm:"column:model_name;not null" json:"model_name"`
	Prediction  float64           `gorm:"column:prediction" json:"prediction"`
	Target      float64           `gorm:"column:target" json:"target"`
	MetricValue float64           `gorm:"column:metric_value" json:"metric_value"`
	Reward      float64           `gorm:"column:reward" json:"reward"`
	TraceID     string            `gorm:"column:trace_id" json:"trace_id"`
	Features    datatypes.JSONMap `gorm:"column:features;type:jsonb" json:"features"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (DecisionEvent) TableName() string {
	return "decision_events"
}

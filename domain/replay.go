package domain

import (
	"time"

	"gorm.io/datatypes"
)

// one labeled observation in a replay dataset, streamed in Seq order
type ReplaySample struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Dataset   string            `gorm:"column:dataset;not null;index:idx_replay_dataset_seq" json:"dataset"`
	Seq       int               `gorm:"column:seq;not null;index:idx_replay_dataset_seq" json:"seq"`
	Features  datatypes.JSONMap `gorm:"column:features;type:jsonb" json:"features"`
	Target    float64           `gorm:"column:target" json:"target"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ReplaySample) TableName() string {
	return "replay_samples"
}

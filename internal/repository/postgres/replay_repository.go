package postgres

import (
	"context"
	"fmt"
	"modelPilot/domain"

	"gorm.io/gorm"
)

type ReplayRepository struct {
	DB *gorm.DB
}

func NewReplayRepository(db *gorm.DB) *ReplayRepository {
	return &ReplayRepository{
		DB: db,
	}
}

func (r *ReplayRepository) BulkInsert(ctx context.Context, samples []domain.ReplaySample) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(samples) == 0 {
		return nil
	}

	if err := r.DB.WithContext(ctx).CreateInBatches(&samples, 500).Error; err != nil {
		return fmt.Errorf("failed to insert replay samples: %w", err)
	}

	return nil
}

// All samples of a dataset in ingestion order
func (r *ReplayRepository) ListByDataset(ctx context.Context, dataset string) ([]domain.ReplaySample, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var samples []domain.ReplaySample
	if err := r.DB.WithContext(ctx).
		Where("dataset = ?", dataset).
		Order("seq ASC").
		Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("failed to query replay_samples: %w", err)
	}

	return samples, nil
}

func (r *ReplayRepository) CountByDataset(ctx context.Context, dataset string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var count int64
	if err := r.DB.WithContext(ctx).
		Model(&domain.ReplaySample{}).
		Where("dataset = ?", dataset).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count replay_samples: %w", err)
	}

	return count, nil
}

func (r *ReplayRepository) DeleteDataset(ctx context.Context, dataset string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).
		Where("dataset = ?", dataset).
		Delete(&domain.ReplaySample{}).Error; err != nil {
		return fmt.Errorf("failed to delete replay_samples: %w", err)
	}

	return nil
}

package postgres

import (
	"context"
	"fmt"
	"modelPilot/domain"

	"gorm.io/gorm"
)

type DecisionRepository struct {
	DB *gorm.DB
}

func NewDecisionRepository(db *gorm.DB) *DecisionRepository {
	return &DecisionRepository{DB: db}
}

func (r *DecisionRepository) SaveEvent(ctx context.Context, event domain.DecisionEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to save decision event: %w", err)
	}

	return nil
}

// Latest events for an experiment ordered by iteration DESC
func (r *DecisionRepository) ListByExperiment(
	ctx context.Context,
	experiment string,
	limit int,
) ([]domain.DecisionEvent, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}

	var events []domain.DecisionEvent
	if err := r.DB.WithContext(ctx).
		Where("experiment = ?", experiment).
		Order("iteration DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to query decision_events: %w", err)
	}

	return events, nil
}

func (r *DecisionRepository) DeleteByExperiment(ctx context.Context, experiment string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).
		Where("experiment = ?", experiment).
		Delete(&domain.DecisionEvent{}).Error; err != nil {
		return fmt.Errorf("failed to delete decision_events: %w", err)
	}

	return nil
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"modelPilot/business/experiment"
	"modelPilot/domain"

	"gorm.io/gorm"
)

type ExperimentRepository struct {
	DB *gorm.DB
}

var _ experiment.ExperimentRepository = (*ExperimentRepository)(nil)

func NewExperimentRepository(db *gorm.DB) *ExperimentRepository {
	return &ExperimentRepository{DB: db}
}

func (r *ExperimentRepository) Create(ctx context.Context, exp *domain.Experiment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	// if ModelNames is set but ModelNamesRaw is empty, serialize it
	if len(exp.ModelNamesRaw) == 0 && len(exp.ModelNames) > 0 {
		raw, _ := json.Marshal(exp.ModelNames)
		exp.ModelNamesRaw = raw
	}

	if err := r.DB.WithContext(ctx).Create(exp).Error; err != nil {
		return fmt.Errorf("failed to create experiment: %w", err)
	}

	return nil
}

func (r *ExperimentRepository) FindByName(ctx context.Context, name string) (domain.Experiment, bool, error) {
	var exp domain.Experiment

	err := r.DB.WithContext(ctx).
		Where("name = ?", name).
		First(&exp).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Experiment{}, false, nil
	}
	if err != nil {
		return domain.Experiment{}, false, fmt.Errorf("failed to query experiments: %w", err)
	}

	if len(exp.ModelNamesRaw) > 0 {
		_ = json.Unmarshal(exp.ModelNamesRaw, &exp.ModelNames)
	}
	return exp, true, nil
}

func (r *ExperimentRepository) FindAll(ctx context.Context) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var exps []domain.Experiment
	if err := r.DB.WithContext(ctx).Find(&exps).Error; err != nil {
		return nil, fmt.Errorf("failed to query experiments: %w", err)
	}

	for i := range exps {
		if len(exps[i].ModelNamesRaw) > 0 {
			_ = json.Unmarshal(exps[i].ModelNamesRaw, &exps[i].ModelNames)
		}
	}
	return exps, nil
}

func (r *ExperimentRepository) UpdateStatus(ctx context.Context, name, status string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.Experiment{}).
		Where("name = ?", name).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update experiment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("experiment not found")
	}

	return nil
}

func (r *ExperimentRepository) UpdateModelNames(ctx context.Context, name string, modelNames []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(modelNames)
	if err != nil {
		return fmt.Errorf("failed to marshal model names: %w", err)
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.Experiment{}).
		Where("name = ?", name).
		Update("model_names", raw)
	if result.Error != nil {
		return fmt.Errorf("failed to update model names: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("experiment not found")
	}

	return nil
}

func (r *ExperimentRepository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).
		Where("name = ?", name).
		Delete(&domain.Experiment{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete experiment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("experiment not found or already deleted")
	}

	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"modelPilot/domain"

	"gorm.io/gorm"
)

type ModelEndpointRepository struct {
	DB *gorm.DB
}

func NewModelEndpointRepository(db *gorm.DB) *ModelEndpointRepository {
	return &ModelEndpointRepository{
		DB: db,
	}
}

func (r *ModelEndpointRepository) Create(ctx context.Context, endpoint *domain.ModelEndpoint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(endpoint).Error; err != nil {
		return fmt.Errorf("failed to create model endpoint: %w", err)
	}

	return nil
}

func (r *ModelEndpointRepository) FindByName(ctx context.Context, name string) (domain.ModelEndpoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.ModelEndpoint{}, fmt.Errorf("context error: %w", err)
	}

	var endpoint domain.ModelEndpoint

	err := r.DB.WithContext(ctx).Where("name = ?", name).First(&endpoint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ModelEndpoint{}, errors.New("model endpoint not found")
		}
		return domain.ModelEndpoint{}, fmt.Errorf("failed to find model endpoint: %w", err)
	}

	return endpoint, nil
}

func (r *ModelEndpointRepository) FindAll(ctx context.Context) ([]domain.ModelEndpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var endpoints []domain.ModelEndpoint
	err := r.DB.WithContext(ctx).Find(&endpoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find model endpoints: %w", err)
	}

	return endpoints, nil
}

func (r *ModelEndpointRepository) Update(ctx context.Context, endpoint *domain.ModelEndpoint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	var existing domain.ModelEndpoint
	if err := r.DB.WithContext(ctx).Where("name = ?", endpoint.Name).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("model endpoint not found")
		}
		return fmt.Errorf("failed to find model endpoint: %w", err)
	}

	updateData := map[string]interface{}{
		"base_url": endpoint.BaseURL,
		"task":     endpoint.Task,
		"api_key":  endpoint.APIKey,
		"status":   endpoint.Status,
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.ModelEndpoint{}).
		Where("name = ?", endpoint.Name).
		Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update model endpoint: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("model endpoint not found or already deleted")
	}

	return nil
}

func (r *ModelEndpointRepository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Where("name = ?", name).Delete(&domain.ModelEndpoint{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete model endpoint: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("model endpoint not found or already deleted")
	}

	return nil
}

package registry

import (
	"context"
	"errors"
	"fmt"
	"modelPilot/business/bandit"
	"modelPilot/business/experiment"
	"modelPilot/domain"
	"modelPilot/pkg/logger"

	"github.com/pobyzaarif/goshortcute"
)

// EndpointRepository contract interface
type EndpointRepository interface {
	Create(ctx context.Context, endpoint *domain.ModelEndpoint) error
	FindByName(ctx context.Context, name string) (domain.ModelEndpoint, error)
	FindAll(ctx context.Context) ([]domain.ModelEndpoint, error)
	Update(ctx context.Context, endpoint *domain.ModelEndpoint) error
	Delete(ctx context.Context, name string) error
}

// ModelClientFactory builds callable clients for registered endpoints.
type ModelClientFactory interface {
	NewClient(name, baseURL, task, apiKey string) bandit.Model
}

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

var validTasks = map[string]bool{
	experiment.TaskRegression:     true,
	experiment.TaskClassification: true,
}

type registryService struct {
	endpointRepo   EndpointRepository
	clientFactory  ModelClientFactory
	credentialsKey string
}

var _ experiment.ModelProvider = (*registryService)(nil)

func NewRegistryService(
	endpointRepo EndpointRepository,
	clientFactory ModelClientFactory,
	credentialsKey string,
) *registryService {
	return &registryService{
		endpointRepo:   endpointRepo,
		clientFactory:  clientFactory,
		credentialsKey: credentialsKey,
	}
}

func (s *registryService) RegisterModel(ctx context.Context, endpoint *domain.ModelEndpoint) (*domain.ModelEndpoint, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when registering model")
		return nil, fmt.Errorf("context error: %w", err)
	}

	// Validation
	if endpoint.Name == "" {
		logger.Error("Invalid model data: name is required")
		return nil, errors.New("model name is required")
	}

	if endpoint.BaseURL == "" {
		logger.Error("Invalid model data: base url is required")
		return nil, errors.New("base url is required")
	}

	if !validTasks[endpoint.Task] {
		logger.Error("Invalid model data: unknown task", "task", endpoint.Task)
		return nil, errors.New("task must be regression or classification")
	}

	if endpoint.Status == "" {
		endpoint.Status = StatusActive
	}

	encrypted, err := s.encryptKey(endpoint.APIKey)
	if err != nil {
		logger.Error("failed to encrypt api key", err)
		return nil, errors.New("failed to encrypt api key")
	}
	endpoint.APIKey = encrypted

	if err := s.endpointRepo.Create(ctx, endpoint); err != nil {
		logger.Error("failed to register model endpoint", err)
		return nil, fmt.Errorf("failed to register model endpoint: %w", err)
	}

	logger.Info("model endpoint registered", "model", endpoint.Name, "task", endpoint.Task)

	return endpoint, nil
}

func (s *registryService) GetAllModels(ctx context.Context) ([]domain.ModelEndpoint, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get all models")
		return nil, fmt.Errorf("context error: %w", err)
	}

	endpoints, err := s.endpointRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to find all model endpoints", err)
		return nil, err
	}

	return endpoints, nil
}

func (s *registryService) GetModelByName(ctx context.Context, name string) (*domain.ModelEndpoint, error) {
	if name == "" {
		logger.Error("invalid model name")
		return nil, errors.New("invalid model name")
	}

	if err := ctx.Err(); err != nil {
		logger.Error("context error when get model by name")
		return nil, fmt.Errorf("context error: %w", err)
	}

	endpoint, err := s.endpointRepo.FindByName(ctx, name)
	if err != nil {
		logger.Error("failed to find model endpoint", err)
		return nil, err
	}

	return &endpoint, nil
}

func (s *registryService) UpdateModel(ctx context.Context, endpoint *domain.ModelEndpoint) (*domain.ModelEndpoint, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when updating model")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if endpoint.Name == "" {
		logger.Error("Invalid model data: name is required")
		return nil, errors.New("model name is required")
	}

	if endpoint.BaseURL == "" {
		logger.Error("Invalid model data: base url is required")
		return nil, errors.New("base url is required")
	}

	if !validTasks[endpoint.Task] {
		logger.Error("Invalid model data: unknown task", "task", endpoint.Task)
		return nil, errors.New("task must be regression or classification")
	}

	// Verify endpoint exists
	existing, err := s.endpointRepo.FindByName(ctx, endpoint.Name)
	if err != nil {
		logger.Error("model endpoint not found", err)
		return nil, errors.New("model endpoint not found")
	}

	if endpoint.APIKey == "" {
		// keep the stored key when the caller sends none
		endpoint.APIKey = existing.APIKey
	} else {
		encrypted, err := s.encryptKey(endpoint.APIKey)
		if err != nil {
			logger.Error("failed to encrypt api key", err)
			return nil, errors.New("failed to encrypt api key")
		}
		endpoint.APIKey = encrypted
	}

	if endpoint.Status == "" {
		endpoint.Status = existing.Status
	}

	if err := s.endpointRepo.Update(ctx, endpoint); err != nil {
		logger.Error("failed to update model endpoint", err)
		return nil, fmt.Errorf("failed to update model endpoint: %w", err)
	}

	updated, err := s.endpointRepo.FindByName(ctx, endpoint.Name)
	if err != nil {
		logger.Error("failed to fetch updated model endpoint", err)
		return nil, fmt.Errorf("failed to fetch updated model endpoint: %w", err)
	}

	logger.Info("model endpoint updated", "model", updated.Name)

	return &updated, nil
}

func (s *registryService) DeleteModel(ctx context.Context, name string) error {
	if name == "" {
		logger.Error("Invalid model name when deleting model endpoint")
		return errors.New("invalid model name")
	}

	if err := ctx.Err(); err != nil {
		logger.Error("context error when deleting model")
		return fmt.Errorf("context error: %w", err)
	}

	// Verify endpoint exists
	_, err := s.endpointRepo.FindByName(ctx, name)
	if err != nil {
		logger.Error("model endpoint not found", err)
		return errors.New("model endpoint not found")
	}

	if err := s.endpointRepo.Delete(ctx, name); err != nil {
		logger.Error("failed to delete model endpoint", err)
		return fmt.Errorf("failed to delete model endpoint: %w", err)
	}

	logger.Info("model endpoint deleted", "model", name)

	return nil
}

// ClientFor resolves a registered endpoint into a callable model
// client, decrypting the stored credential on the way out.
func (s *registryService) ClientFor(ctx context.Context, name string) (bandit.Model, error) {
	endpoint, err := s.endpointRepo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if endpoint.Status != StatusActive {
		return nil, fmt.Errorf("model endpoint %q is %s", name, endpoint.Status)
	}

	apiKey, err := s.decryptKey(endpoint.APIKey)
	if err != nil {
		logger.Error("failed to decrypt api key", err)
		return nil, errors.New("failed to decrypt api key")
	}

	return s.clientFactory.NewClient(endpoint.Name, endpoint.BaseURL, endpoint.Task, apiKey), nil
}

func (s *registryService) encryptKey(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	encrypted, err := goshortcute.AESCBCEncrypt([]byte(plain), []byte(s.credentialsKey))
	if err != nil {
		return "", err
	}

	return goshortcute.StringtoBase64Encode(encrypted), nil
}

func (s *registryService) decryptKey(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}

	decoded := goshortcute.StringtoBase64Decode(stored)
	plain, err := goshortcute.AESCBCDecrypt([]byte(decoded), []byte(s.credentialsKey))
	if err != nil {
		return "", err
	}

	return plain, nil
}

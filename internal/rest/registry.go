package rest

import (
	"context"
	"modelPilot/domain"
	"modelPilot/pkg/logger"
	"net/http"
	"strings"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RegistryHandler struct {
		validate        *validator.Validate
		registryService RegistryService
		timeout         time.Duration
	}

	RegistryService interface {
		RegisterModel(ctx context.Context, endpoint *domain.ModelEndpoint) (*domain.ModelEndpoint, error)
		GetAllModels(ctx context.Context) ([]domain.ModelEndpoint, error)
		GetModelByName(ctx context.Context, name string) (*domain.ModelEndpoint, error)
		UpdateModel(ctx context.Context, endpoint *domain.ModelEndpoint) (*domain.ModelEndpoint, error)
		DeleteModel(ctx context.Context, name string) error
	}

	RegisterModelRequest struct {
		Name    string `json:"name" validate:"required"`
		BaseURL string `json:"base_url" validate:"required,url"`
		Task    string `json:"task" validate:"required,oneof=regression classification"`
		APIKey  string `json:"api_key"`
		Status  string `json:"status" validate:"omitempty,oneof=active disabled"`
	}

	UpdateModelRequest struct {
		BaseURL string `json:"base_url" validate:"required,url"`
		Task    string `json:"task" validate:"required,oneof=regression classification"`
		APIKey  string `json:"api_key"`
		Status  string `json:"status" validate:"omitempty,oneof=active disabled"`
	}
)

func NewRegistryHandler(svc RegistryService) *RegistryHandler {
	return &RegistryHandler{
		validate:        validator.New(),
		registryService: svc,
		timeout:         10 * time.Second,
	}
}

// POST /api/v1/models
func (h *RegistryHandler) Register(c echo.Context) error {
	var req RegisterModelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.registryService.RegisterModel(ctx, &domain.ModelEndpoint{
		Name:    req.Name,
		BaseURL: req.BaseURL,
		Task:    req.Task,
		APIKey:  req.APIKey,
		Status:  req.Status,
	})
	if err != nil {
		logger.Error("Failed to register model endpoint", err)
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "already") {
			return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

// GET /api/v1/models
func (h *RegistryHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	endpoints, err := h.registryService.GetAllModels(ctx)
	if err != nil {
		logger.Error("Failed to list model endpoints", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(endpoints))
}

// GET /api/v1/models/:name
func (h *RegistryHandler) GetByName(c echo.Context) error {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	endpoint, err := h.registryService.GetModelByName(ctx, name)
	if err != nil {
		logger.Error("Failed to get model endpoint", err)
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(endpoint))
}

// PUT /api/v1/models/:name
func (h *RegistryHandler) Update(c echo.Context) error {
	name := c.Param("name")

	var req UpdateModelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.registryService.UpdateModel(ctx, &domain.ModelEndpoint{
		Name:    name,
		BaseURL: req.BaseURL,
		Task:    req.Task,
		APIKey:  req.APIKey,
		Status:  req.Status,
	})
	if err != nil {
		logger.Error("Failed to update model endpoint", err)
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

// DELETE /api/v1/models/:name
func (h *RegistryHandler) Delete(c echo.Context) error {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.registryService.DeleteModel(ctx, name); err != nil {
		logger.Error("Failed to delete model endpoint", err)
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("model endpoint deleted"))
}

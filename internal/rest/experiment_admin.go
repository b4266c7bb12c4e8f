package rest

import (
	"context"
	"errors"
	"modelPilot/business/bandit"
	"modelPilot/domain"
	"modelPilot/pkg/logger"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	// ExperimentAdminHandler owns the lifecycle and inspection
	// endpoints, the runtime endpoints live in ExperimentHandler.
	ExperimentAdminHandler struct {
		validate          *validator.Validate
		experimentService ExperimentAdminService
		timeout           time.Duration
	}

	ExperimentAdminService interface {
		Create(ctx context.Context, exp domain.Experiment) (domain.Experiment, error)
		AddModels(ctx context.Context, name string, modelNames []string) (domain.Experiment, error)
		Pause(ctx context.Context, name string) error
		Resume(ctx context.Context, name string) error
		Delete(ctx context.Context, name string) error
		Debug(ctx context.Context, name string) (domain.ExperimentDebug, error)
		ListDecisions(ctx context.Context, name string, limit int) ([]domain.DecisionEvent, error)
	}

	CreateExperimentRequest struct {
		Name                 string   `json:"name" validate:"required"`
		Policy               string   `json:"policy" validate:"required,oneof=epsilon_greedy ucb"`
		Models               []string `json:"models" validate:"required,min=2"`
		Metric               string   `json:"metric" validate:"required,oneof=mae accuracy"`
		Normalizer           string   `json:"normalizer" validate:"omitempty,oneof=standard maxabs"`
		Epsilon              float64  `json:"epsilon" validate:"gte=0,lte=1"`
		EpsilonDecay         float64  `json:"epsilon_decay" validate:"gte=0"`
		ExploreEachArm       int      `json:"explore_each_arm" validate:"gte=0"`
		Delta                *float64 `json:"delta"`
		Seed                 int64    `json:"seed"`
		SaveMetricValues     bool     `json:"save_metric_values"`
		SavePercentagePulled bool     `json:"save_percentage_pulled"`
		LogEvery             int      `json:"log_every" validate:"gte=0"`
	}

	AddModelsRequest struct {
		Models []string `json:"models" validate:"required,min=1"`
	}
)

func NewExperimentAdminHandler(svc ExperimentAdminService) *ExperimentAdminHandler {
	return &ExperimentAdminHandler{
		validate:          validator.New(),
		experimentService: svc,
		timeout:           10 * time.Second,
	}
}

// POST /api/v1/admin/experiments
func (h *ExperimentAdminHandler) Create(c echo.Context) error {
	var req CreateExperimentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	exp := domain.Experiment{
		Name:                 req.Name,
		Policy:               req.Policy,
		ModelNames:           req.Models,
		Metric:               req.Metric,
		Normalizer:           req.Normalizer,
		Epsilon:              req.Epsilon,
		EpsilonDecay:         req.EpsilonDecay,
		ExploreEachArm:       req.ExploreEachArm,
		Delta:                req.Delta,
		Seed:                 req.Seed,
		SaveMetricValues:     req.SaveMetricValues,
		SavePercentagePulled: req.SavePercentagePulled,
		LogEvery:             req.LogEvery,
	}

	created, err := h.experimentService.Create(ctx, exp)
	if err != nil {
		logger.Error("Failed to create experiment", err)
		switch {
		case errors.Is(err, bandit.ErrConfig):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case strings.Contains(err.Error(), "already exists"):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case strings.Contains(err.Error(), "not found"):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "experiment created",
		"experiment": created,
	})
}

// POST /api/v1/admin/experiments/:name/models
func (h *ExperimentAdminHandler) AddModels(c echo.Context) error {
	name := c.Param("name")

	var req AddModelsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.experimentService.AddModels(ctx, name, req.Models)
	if err != nil {
		logger.Error("Failed to add models to experiment", err)
		return c.JSON(experimentStatusCode(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "models added",
		"experiment": updated,
	})
}

// POST /api/v1/admin/experiments/:name/pause
func (h *ExperimentAdminHandler) Pause(c echo.Context) error {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.experimentService.Pause(ctx, name); err != nil {
		logger.Error("Failed to pause experiment", err)
		return c.JSON(experimentStatusCode(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "experiment paused"})
}

// POST /api/v1/admin/experiments/:name/resume
func (h *ExperimentAdminHandler) Resume(c echo.Context) error {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.experimentService.Resume(ctx, name); err != nil {
		logger.Error("Failed to resume experiment", err)
		return c.JSON(experimentStatusCode(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "experiment resumed"})
}

// DELETE /api/v1/admin/experiments/:name
func (h *ExperimentAdminHandler) Delete(c echo.Context) error {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.experimentService.Delete(ctx, name); err != nil {
		logger.Error("Failed to delete experiment", err)
		return c.JSON(experimentStatusCode(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "experiment deleted"})
}

// GET /api/v1/admin/experiments/:name/debug
func (h *ExperimentAdminHandler) Debug(c echo.Context) error {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	dbg, err := h.experimentService.Debug(ctx, name)
	if err != nil {
		return c.JSON(experimentStatusCode(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, dbg)
}

// GET /api/v1/admin/experiments/:name/decisions?limit=50
func (h *ExperimentAdminHandler) Decisions(c echo.Context) error {
	name := c.Param("name")

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	events, err := h.experimentService.ListDecisions(ctx, name, limit)
	if err != nil {
		return c.JSON(experimentStatusCode(err), echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"experiment": name,
		"decisions":  events,
	})
}

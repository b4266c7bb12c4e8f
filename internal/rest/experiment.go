package rest

import (
	"context"
	"modelPilot/business/experiment"
	"modelPilot/domain"
	"modelPilot/pkg/logger"
	"modelPilot/pkg/metrics"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type (
	ExperimentHandler struct {
		validate          *validator.Validate
		experimentService ExperimentService
		timeout           time.Duration
	}

	ExperimentService interface {
		Step(ctx context.Context, name string, features map[string]float64, target float64) (experiment.StepOutcome, error)
		Predict(ctx context.Context, name string, features map[string]float64) (experiment.PredictOutcome, error)
		Report(ctx context.Context, name string) (domain.ExperimentReport, error)
		GetAll(ctx context.Context) ([]domain.Experiment, error)
	}

	StepRequest struct {
		Features map[string]float64 `json:"features" validate:"required"`
		Target   *float64           `json:"target" validate:"required"`
	}

	PredictRequest struct {
		Features map[string]float64 `json:"features" validate:"required"`
	}
)

func NewExperimentHandler(svc ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{
		validate:          validator.New(),
		experimentService: svc,
		timeout:           10 * time.Second,
	}
}

func experimentStatusCode(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "paused"):
		return http.StatusConflict
	case strings.Contains(msg, "invalid bandit configuration"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/v1/experiments/:name/step
func (h *ExperimentHandler) Step(c echo.Context) error {
	name := c.Param("name")

	var req StepRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	ctx = experiment.WithTraceID(ctx, uuid.NewString())

	start := time.Now()
	outcome, err := h.experimentService.Step(ctx, name, req.Features, *req.Target)
	metrics.ExperimentStepLatency.Observe(time.Since(start).Seconds())
	metrics.ExperimentStepRequests.Inc()

	if err != nil {
		// a positive iteration means the reward was recorded and only
		// the trailing learn call failed
		if outcome.Iteration > 0 {
			logger.Warn("step finished with learn failure", err)
			return c.JSON(http.StatusOK, echo.Map{
				"result":      outcome,
				"learn_error": err.Error(),
			})
		}
		logger.Error("Failed to step experiment", err)
		return c.JSON(experimentStatusCode(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(outcome))
}

// POST /api/v1/experiments/:name/predict
func (h *ExperimentHandler) Predict(c echo.Context) error {
	name := c.Param("name")

	var req PredictRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	ctx = experiment.WithTraceID(ctx, uuid.NewString())

	start := time.Now()
	outcome, err := h.experimentService.Predict(ctx, name, req.Features)
	metrics.ExperimentPredictLatency.Observe(time.Since(start).Seconds())
	metrics.ExperimentPredictRequests.Inc()

	if err != nil {
		logger.Error("Failed to predict with experiment", err)
		return c.JSON(experimentStatusCode(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(outcome))
}

// GET /api/v1/experiments/:name/report
func (h *ExperimentHandler) Report(c echo.Context) error {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.experimentService.Report(ctx, name)
	if err != nil {
		logger.Error("Failed to build experiment report", err)
		return c.JSON(experimentStatusCode(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}

// GET /api/v1/experiments?limit=50
func (h *ExperimentHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	exps, err := h.experimentService.GetAll(ctx)
	if err != nil {
		logger.Error("Failed to list experiments", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid limit",
			})
		}
		if limit < len(exps) {
			exps = exps[:limit]
		}
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(exps))
}

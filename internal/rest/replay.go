package rest

import (
	"context"
	"errors"
	"modelPilot/business/bandit"
	"modelPilot/business/replay"
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
	ReplayHandler struct {
		validate      *validator.Validate
		replayService ReplayService
		timeout       time.Duration
	}

	ReplayService interface {
		Ingest(ctx context.Context, dataset string, observations []replay.Observation) (int64, error)
		Run(ctx context.Context, dataset string, exp domain.Experiment) (replay.RunResult, error)
		DeleteDataset(ctx context.Context, dataset string) error
	}

	ObservationRequest struct {
		Features map[string]float64 `json:"features" validate:"required"`
		Target   *float64           `json:"target" validate:"required"`
	}

	IngestRequest struct {
		Observations []ObservationRequest `json:"observations" validate:"required,min=1,dive"`
	}

	// same knobs as CreateExperimentRequest, but nothing is persisted
	ReplayRunRequest struct {
		Policy         string   `json:"policy" validate:"required,oneof=epsilon_greedy ucb"`
		Models         []string `json:"models" validate:"required,min=2"`
		Metric         string   `json:"metric" validate:"required,oneof=mae accuracy"`
		Normalizer     string   `json:"normalizer" validate:"omitempty,oneof=standard maxabs"`
		Epsilon        float64  `json:"epsilon" validate:"gte=0,lte=1"`
		EpsilonDecay   float64  `json:"epsilon_decay" validate:"gte=0"`
		ExploreEachArm int      `json:"explore_each_arm" validate:"gte=0"`
		Delta          *float64 `json:"delta"`
		Seed           int64    `json:"seed"`
	}
)

func NewReplayHandler(svc ReplayService) *ReplayHandler {
	return &ReplayHandler{
		validate:      validator.New(),
		replayService: svc,
		// replays stream the whole dataset, give them more room
		timeout: 120 * time.Second,
	}
}

// POST /api/v1/replays/:dataset/samples
func (h *ReplayHandler) Ingest(c echo.Context) error {
	dataset := c.Param("dataset")

	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	observations := make([]replay.Observation, 0, len(req.Observations))
	for _, o := range req.Observations {
		observations = append(observations, replay.Observation{
			Features: o.Features,
			Target:   *o.Target,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	total, err := h.replayService.Ingest(ctx, dataset, observations)
	if err != nil {
		logger.Error("Failed to ingest replay samples", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(echo.Map{
		"dataset":  dataset,
		"ingested": len(observations),
		"total":    total,
	}))
}

// POST /api/v1/replays/:dataset/run
func (h *ReplayHandler) Run(c echo.Context) error {
	dataset := c.Param("dataset")

	var req ReplayRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	exp := domain.Experiment{
		Name:           dataset,
		Policy:         req.Policy,
		ModelNames:     req.Models,
		Metric:         req.Metric,
		Normalizer:     req.Normalizer,
		Epsilon:        req.Epsilon,
		EpsilonDecay:   req.EpsilonDecay,
		ExploreEachArm: req.ExploreEachArm,
		Delta:          req.Delta,
		Seed:           req.Seed,
	}

	result, err := h.replayService.Run(ctx, dataset, exp)
	if err != nil {
		logger.Error("Failed to run replay", err)
		switch {
		case errors.Is(err, bandit.ErrConfig):
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		case strings.Contains(err.Error(), "not found"):
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
		}
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// DELETE /api/v1/replays/:dataset
func (h *ReplayHandler) DeleteDataset(c echo.Context) error {
	dataset := c.Param("dataset")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.replayService.DeleteDataset(ctx, dataset); err != nil {
		logger.Error("Failed to delete replay dataset", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("replay dataset deleted"))
}

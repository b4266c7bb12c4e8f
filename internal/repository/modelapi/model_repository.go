package modelapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"modelPilot/business/bandit"
	"net/http"
	"strings"
	"time"
)

type ModelConfig struct {
	Name    string
	BaseURL string
	Task    string
	APIKey  string
	Timeout time.Duration
}

// RemoteModel calls a model serving endpoint over HTTP.
type RemoteModel struct {
	modelConfig ModelConfig
	client      *http.Client
}

var _ bandit.Model = (*RemoteModel)(nil)

func NewRemoteModel(cfg ModelConfig) *RemoteModel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RemoteModel{
		modelConfig: cfg,
		client:      &http.Client{Timeout: timeout},
	}
}

func (m *RemoteModel) Name() string {
	return m.modelConfig.Name
}

func (m *RemoteModel) Task() string {
	return m.modelConfig.Task
}

type predictPayload struct {
	Features map[string]float64 `json:"features"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

type learnPayload struct {
	Features map[string]float64 `json:"features"`
	Target   float64            `json:"target"`
}

func (m *RemoteModel) Predict(ctx context.Context, features map[string]float64) (float64, error) {
	payload := predictPayload{Features: features}

	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal json payload: %w", err)
	}

	url := m.modelConfig.BaseURL + "/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payloadByte)))
	if err != nil {
		return 0, err
	}

	req.Header.Add("Content-Type", "application/json")
	if m.modelConfig.APIKey != "" {
		req.Header.Add("X-API-Key", m.modelConfig.APIKey)
	}

	res, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("model %s predict request failed: %w", m.modelConfig.Name, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return 0, fmt.Errorf("model %s return negative response %v", m.modelConfig.Name, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, err
	}

	var out predictResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to unmarshal prediction: %w", err)
	}

	return out.Prediction, nil
}

func (m *RemoteModel) Learn(ctx context.Context, features map[string]float64, target float64) error {
	payload := learnPayload{Features: features, Target: target}

	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal json payload: %w", err)
	}

	url := m.modelConfig.BaseURL + "/learn"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payloadByte)))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/json")
	if m.modelConfig.APIKey != "" {
		req.Header.Add("X-API-Key", m.modelConfig.APIKey)
	}

	res, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("model %s learn request failed: %w", m.modelConfig.Name, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}

	return fmt.Errorf("model %s return negative response %v", m.modelConfig.Name, res.StatusCode)
}

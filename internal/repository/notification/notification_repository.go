package notification

import (
	"encoding/json"
	"fmt"
	"io"
	"modelPilot/domain"
	"modelPilot/pkg/logger"
	"net/http"
	"strings"
	"time"

	"github.com/pobyzaarif/goshortcute"
)

type WebhookConfig struct {
	WebhookURL        string
	BasicAuthUsername string
	BasicAuthPassword string
}

type WebhookRepository struct {
	webhookConfig WebhookConfig
}

func NewWebhookRepository(cfg WebhookConfig) *WebhookRepository {
	return &WebhookRepository{
		cfg,
	}
}

type payloadLeaderChange struct {
	Event  string              `json:"event"`
	Data   domain.LeaderChange `json:"data"`
	SentAt string              `json:"sent_at"`
}

func (r WebhookRepository) SendLeaderChange(change domain.LeaderChange) (err error) {
	url := r.webhookConfig.WebhookURL
	method := http.MethodPost

	payload := payloadLeaderChange{
		Event:  "experiment.leader_changed",
		Data:   change,
		SentAt: time.Now().Format(time.RFC3339),
	}

	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal json payload: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(method, url, strings.NewReader(string(payloadByte)))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/json")
	if r.webhookConfig.BasicAuthUsername != "" {
		buildBasicAuth := goshortcute.StringtoBase64Encode(r.webhookConfig.BasicAuthUsername + ":" + r.webhookConfig.BasicAuthPassword)
		req.Header.Add("Authorization", "Basic "+buildBasicAuth)
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(res.Body)
	logger.Warn("webhook negative response", "status", res.StatusCode, "body", string(bodyBytes))

	return fmt.Errorf("webhook return negative response %v", res.StatusCode)
}

// NoopNotifier is used when no webhook url is configured.
type NoopNotifier struct{}

func (NoopNotifier) SendLeaderChange(change domain.LeaderChange) error {
	return nil
}

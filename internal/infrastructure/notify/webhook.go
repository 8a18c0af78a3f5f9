package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"CredentialScanner/internal/domain"
	"CredentialScanner/internal/ports"
)

// Webhook posts credentialing alerts as JSON to an external endpoint,
// typically an admin notification service or chat integration.
type Webhook struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.Notifier = (*Webhook)(nil)

// NewWebhook registers the alert endpoint and optional bearer token.
func NewWebhook(endpoint, token string, logger *slog.Logger) *Webhook {
	return &Webhook{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

type alertPayload struct {
	ProviderID     string `json:"providerId"`
	AlertType      string `json:"alertType"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	ActionRequired bool   `json:"actionRequired"`
	Timestamp      string `json:"timestamp"`
}

// SendAlert delivers one alert and reports success. Delivery failures are
// logged, never propagated; the alert row in the database is the durable
// record and the caller must not block on notification outcome.
func (w *Webhook) SendAlert(ctx context.Context, providerID, alertType, message string, severity domain.AlertSeverity, actionRequired bool) bool {
	if w.endpoint == "" {
		w.debug("alert webhook not configured, skipping delivery", "alertType", alertType)
		return false
	}

	payload := alertPayload{
		ProviderID:     providerID,
		AlertType:      alertType,
		Severity:       string(severity),
		Message:        message,
		ActionRequired: actionRequired,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		w.warn("marshal alert payload", "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		w.warn("build alert request", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		w.warn("deliver alert", "alertType", alertType, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		w.warn("alert endpoint rejected delivery", "alertType", alertType, "status", resp.Status)
		return false
	}
	return true
}

func (w *Webhook) debug(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}

func (w *Webhook) warn(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}

// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skysentry/internal/config"
	"github.com/tomtom215/skysentry/internal/logging"
	"github.com/tomtom215/skysentry/internal/models"
)

// WebhookPayload is the JSON body posted to the webhook endpoint.
type WebhookPayload struct {
	Alert     models.Alert `json:"alert"`
	EventType string       `json:"event_type"` // threat_alert
	Timestamp time.Time    `json:"timestamp"`
	Source    string       `json:"source"` // skysentry
}

// WebhookNotifier forwards alerts from the bus to an external HTTP
// endpoint. Delivery is best-effort: a failed POST is logged and the
// alert is not retried.
type WebhookNotifier struct {
	bus    *Bus
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier for the configured endpoint.
func NewWebhookNotifier(bus *Bus, cfg config.WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		bus: bus,
		url: cfg.URL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// String names the service in supervisor logs.
func (n *WebhookNotifier) String() string {
	return "alert-webhook"
}

// Serve implements suture.Service and forwards alerts until the context
// is canceled.
func (n *WebhookNotifier) Serve(ctx context.Context) error {
	msgs, err := n.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	logging.Info().Str("url", n.url).Msg("alert webhook notifier started")

	for msg := range msgs {
		alert, err := DecodeAlert(msg)
		msg.Ack()
		if err != nil {
			continue
		}
		if err := n.send(ctx, alert); err != nil {
			logging.Error().
				Err(err).
				Str("track", alert.TrackID).
				Msg("webhook delivery failed")
		}
	}

	logging.Info().Msg("alert webhook notifier stopped")
	return ctx.Err()
}

// send posts one alert to the endpoint.
func (n *WebhookNotifier) send(ctx context.Context, alert models.Alert) error {
	payload := WebhookPayload{
		Alert:     alert,
		EventType: "threat_alert",
		Timestamp: time.Now().UTC(),
		Source:    "skysentry",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "skysentry/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

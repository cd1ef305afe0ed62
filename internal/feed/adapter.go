// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package feed implements the source-adapter layer: one polling adapter
// per configured external feed, each on its own cadence with its own rate
// limit, health state, and retry schedule. Provider differences live in
// the response splitting here and in the normalizer; the rest of the
// pipeline sees a single RawRecord shape.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/skysentry/internal/config"
	"github.com/tomtom215/skysentry/internal/models"
	"github.com/tomtom215/skysentry/internal/normalize"
)

// SourceAdapter is the single polymorphic adapter contract. Provider
// differences never leak past it.
type SourceAdapter interface {
	// Name returns the configured source name.
	Name() string

	// Provider returns the provider kind used for normalization routing.
	Provider() string

	// Poll fetches the feed once and returns one raw record per aircraft.
	// A non-nil error is a feed-level failure; record-level problems are
	// left for the normalizer.
	Poll(ctx context.Context) ([]models.RawRecord, error)
}

// splitFunc extracts per-aircraft payloads from one provider response body.
type splitFunc func(body []byte) ([]json.RawMessage, error)

// HTTPAdapter polls a provider-specific HTTP endpoint. All requests ride
// a circuit breaker so a flapping provider is backed off at the transport
// level as well as by the poller's health schedule.
type HTTPAdapter struct {
	name     string
	provider string
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[[]models.RawRecord]
	split    splitFunc
}

// NewHTTPAdapter builds an adapter for one configured source.
func NewHTTPAdapter(cfg config.SourceConfig) (*HTTPAdapter, error) {
	var split splitFunc
	switch cfg.Provider {
	case normalize.ProviderOpenSky:
		split = splitOpenSky
	case normalize.ProviderADSB:
		split = splitADSB
	case normalize.ProviderDump1090:
		split = splitDump1090
	default:
		return nil, fmt.Errorf("%w: %s", normalize.ErrUnknownProvider, cfg.Provider)
	}

	breaker := gobreaker.NewCircuitBreaker[[]models.RawRecord](gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.BackoffBase,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &HTTPAdapter{
		name:     cfg.Name,
		provider: cfg.Provider,
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		breaker:  breaker,
		split:    split,
	}, nil
}

// Name returns the configured source name.
func (a *HTTPAdapter) Name() string { return a.name }

// Provider returns the provider kind.
func (a *HTTPAdapter) Provider() string { return a.provider }

// Poll fetches the endpoint once through the circuit breaker.
func (a *HTTPAdapter) Poll(ctx context.Context) ([]models.RawRecord, error) {
	return a.breaker.Execute(func() ([]models.RawRecord, error) {
		return a.fetch(ctx)
	})
}

// fetch performs one HTTP GET and splits the response into records.
func (a *HTTPAdapter) fetch(ctx context.Context) ([]models.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "skysentry/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", a.name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	payloads, err := a.split(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", a.name, err)
	}

	now := time.Now().UTC()
	records := make([]models.RawRecord, len(payloads))
	for i, p := range payloads {
		records[i] = models.RawRecord{
			SourceID:   a.name,
			Provider:   a.provider,
			Payload:    p,
			ReceivedAt: now,
		}
	}
	return records, nil
}

// splitOpenSky splits an OpenSky /states/all response. Each element of
// "states" is a state vector array.
func splitOpenSky(body []byte) ([]json.RawMessage, error) {
	var resp struct {
		Time   int64             `json:"time"`
		States []json.RawMessage `json:"states"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.States, nil
}

// splitADSB splits an adsb.lol-style response with an "ac" array.
func splitADSB(body []byte) ([]json.RawMessage, error) {
	var resp struct {
		AC []json.RawMessage `json:"ac"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.AC, nil
}

// splitDump1090 splits a dump1090/readsb aircraft.json response.
func splitDump1090(body []byte) ([]json.RawMessage, error) {
	var resp struct {
		Now      float64           `json:"now"`
		Aircraft []json.RawMessage `json:"aircraft"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Aircraft, nil
}

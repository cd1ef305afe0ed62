// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/skysentry/internal/config"
	"github.com/tomtom215/skysentry/internal/models"
)

// fakeAdapter returns scripted results per poll.
type fakeAdapter struct {
	name    string
	results []error
	records int
	calls   int
}

func (f *fakeAdapter) Name() string     { return f.name }
func (f *fakeAdapter) Provider() string { return "adsb" }

func (f *fakeAdapter) Poll(ctx context.Context) ([]models.RawRecord, error) {
	var err error
	if f.calls < len(f.results) {
		err = f.results[f.calls]
	}
	f.calls++
	if err != nil {
		return nil, err
	}
	recs := make([]models.RawRecord, f.records)
	for i := range recs {
		recs[i] = models.RawRecord{SourceID: f.name, Provider: "adsb"}
	}
	return recs, nil
}

type fakeSink struct {
	records []models.RawRecord
}

func (s *fakeSink) Push(rec models.RawRecord) {
	s.records = append(s.records, rec)
}

func testSourceConfig() config.SourceConfig {
	return config.SourceConfig{
		Name:                 "test-feed",
		Provider:             "adsb",
		Endpoint:             "http://localhost/data.json",
		PollInterval:         time.Second,
		Timeout:              time.Second,
		MaxRequestsPerMinute: 30,
		MaxRetries:           5,
		BackoffBase:          time.Second,
		BackoffMax:           time.Minute,
	}
}

func repeatErr(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}

func TestPollerHealthDegradesAfterThreeFailures(t *testing.T) {
	failure := errors.New("connection refused")
	adapter := &fakeAdapter{name: "test-feed", results: repeatErr(failure, 10)}
	p := NewPoller(adapter, testSourceConfig(), &fakeSink{})
	ctx := context.Background()

	p.pollOnce(ctx)
	p.pollOnce(ctx)
	if got := p.Status().Health; got != models.HealthOnline {
		t.Fatalf("health after 2 failures = %q, want still online", got)
	}

	p.pollOnce(ctx)
	if got := p.Status().Health; got != models.HealthDegraded {
		t.Fatalf("health after 3 failures = %q, want degraded", got)
	}
}

func TestPollerHealthOfflineBeyondMaxRetries(t *testing.T) {
	failure := errors.New("connection refused")
	cfg := testSourceConfig()
	cfg.MaxRetries = 4
	adapter := &fakeAdapter{name: "test-feed", results: repeatErr(failure, 10)}
	p := NewPoller(adapter, cfg, &fakeSink{})
	ctx := context.Background()

	for i := 0; i < cfg.MaxRetries; i++ {
		p.pollOnce(ctx)
	}
	if got := p.Status().Health; got != models.HealthDegraded {
		t.Fatalf("health at max retries = %q, want degraded", got)
	}

	p.pollOnce(ctx)
	if got := p.Status().Health; got != models.HealthOffline {
		t.Fatalf("health beyond max retries = %q, want offline", got)
	}
}

func TestPollerSuccessRestoresOnline(t *testing.T) {
	failure := errors.New("connection refused")
	adapter := &fakeAdapter{
		name:    "test-feed",
		results: append(repeatErr(failure, 8), nil),
		records: 3,
	}
	sink := &fakeSink{}
	p := NewPoller(adapter, testSourceConfig(), sink)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		p.pollOnce(ctx)
	}
	if got := p.Status().Health; got != models.HealthOffline {
		t.Fatalf("health = %q, want offline before recovery", got)
	}

	p.pollOnce(ctx)
	status := p.Status()
	if status.Health != models.HealthOnline {
		t.Errorf("health after success = %q, want online", status.Health)
	}
	if status.ConsecutiveErrors != 0 {
		t.Errorf("ConsecutiveErrors = %d, want reset to 0", status.ConsecutiveErrors)
	}
	if len(sink.records) != 3 {
		t.Errorf("sink received %d records, want 3", len(sink.records))
	}
}

func TestPollerRateLimitSkipsWithoutError(t *testing.T) {
	cfg := testSourceConfig()
	cfg.MaxRequestsPerMinute = 2
	adapter := &fakeAdapter{name: "test-feed", records: 1}
	p := NewPoller(adapter, cfg, &fakeSink{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p.pollOnce(ctx)
	}

	status := p.Status()
	if adapter.calls != 2 {
		t.Errorf("adapter polled %d times, want budget of 2", adapter.calls)
	}
	if status.SkippedPolls != 3 {
		t.Errorf("SkippedPolls = %d, want 3", status.SkippedPolls)
	}
	if status.Health != models.HealthOnline {
		t.Errorf("health = %q, skipping must not affect health", status.Health)
	}
	if status.ConsecutiveErrors != 0 {
		t.Errorf("ConsecutiveErrors = %d, skipping is not an error", status.ConsecutiveErrors)
	}
}

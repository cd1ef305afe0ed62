// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package feed

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/skysentry/internal/cache"
	"github.com/tomtom215/skysentry/internal/config"
	"github.com/tomtom215/skysentry/internal/logging"
	"github.com/tomtom215/skysentry/internal/metrics"
	"github.com/tomtom215/skysentry/internal/models"
)

// degradedThreshold is the number of consecutive failures before an
// online source is marked degraded.
const degradedThreshold = 3

// RecordSink receives raw records from pollers. The ingest queue
// implements it.
type RecordSink interface {
	Push(rec models.RawRecord)
}

// Poller runs one adapter on its own timer loop as a suture service. It
// owns the source's health state: no other component writes it.
//
// Health transitions: online → degraded after 3 consecutive failures,
// degraded → offline once consecutive failures exceed MaxRetries. An
// offline source is retried on an exponential backoff schedule instead of
// its normal cadence; any successful poll restores online and resets the
// schedule.
type Poller struct {
	adapter SourceAdapter
	cfg     config.SourceConfig
	sink    RecordSink
	window  *cache.SlidingWindowCounter

	mu     sync.RWMutex
	status models.SourceStatus
}

// NewPoller creates a poller for one configured source.
func NewPoller(adapter SourceAdapter, cfg config.SourceConfig, sink RecordSink) *Poller {
	return &Poller{
		adapter: adapter,
		cfg:     cfg,
		sink:    sink,
		window:  cache.NewSlidingWindowCounter(time.Minute, 12),
		status: models.SourceStatus{
			Name:     cfg.Name,
			Provider: cfg.Provider,
			Health:   models.HealthOnline,
		},
	}
}

// Status returns a snapshot of the source's externally visible state.
func (p *Poller) Status() models.SourceStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// String names the service in supervisor logs.
func (p *Poller) String() string {
	return "feed-poller-" + p.cfg.Name
}

// Serve implements suture.Service. It polls at the configured cadence
// while the source is online or degraded, and on the backoff schedule
// while offline, until the context is canceled.
func (p *Poller) Serve(ctx context.Context) error {
	logging.Info().
		Str("source", p.cfg.Name).
		Str("provider", p.cfg.Provider).
		Dur("interval", p.cfg.PollInterval).
		Msg("feed poller started")

	metrics.SetFeedHealth(p.cfg.Name, string(models.HealthOnline))

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = p.cfg.BackoffBase
	retry.MaxInterval = p.cfg.BackoffMax
	retry.Multiplier = 2
	retry.RandomizationFactor = 0
	retry.MaxElapsedTime = 0
	retry.Reset()

	timer := time.NewTimer(p.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("source", p.cfg.Name).Msg("feed poller stopped")
			return ctx.Err()
		case <-timer.C:
		}

		p.pollOnce(ctx)

		if p.health() == models.HealthOffline {
			delay := retry.NextBackOff()
			logging.Warn().
				Str("source", p.cfg.Name).
				Dur("retry_in", delay).
				Msg("source offline, retrying on backoff")
			timer.Reset(delay)
		} else {
			retry.Reset()
			timer.Reset(p.cfg.PollInterval)
		}
	}
}

// pollOnce executes a single poll attempt, honoring the local rate limit.
func (p *Poller) pollOnce(ctx context.Context) {
	// Skipping is not an error: the poll simply does not happen this
	// cycle so the per-minute budget is preserved.
	if p.window.Count() >= int64(p.cfg.MaxRequestsPerMinute) {
		p.mu.Lock()
		p.status.SkippedPolls++
		p.mu.Unlock()
		metrics.FeedPolls.WithLabelValues(p.cfg.Name, "skipped").Inc()
		logging.Debug().Str("source", p.cfg.Name).Msg("poll skipped by rate limit")
		return
	}
	p.window.IncrementOne()

	pollCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	records, err := p.adapter.Poll(pollCtx)
	metrics.FeedPollDuration.WithLabelValues(p.cfg.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		p.recordFailure(err)
		return
	}

	p.recordSuccess(len(records))
	for _, rec := range records {
		p.sink.Push(rec)
	}
}

// recordSuccess resets the error counter and restores online health.
func (p *Poller) recordSuccess(count int) {
	p.mu.Lock()
	prev := p.status.Health
	p.status.Health = models.HealthOnline
	p.status.ConsecutiveErrors = 0
	p.status.LastError = ""
	p.status.LastSuccess = time.Now().UTC()
	p.status.PollCount++
	p.mu.Unlock()

	metrics.FeedPolls.WithLabelValues(p.cfg.Name, "success").Inc()
	metrics.FeedRecords.WithLabelValues(p.cfg.Name).Add(float64(count))

	if prev != models.HealthOnline {
		p.reportTransition(prev, models.HealthOnline)
	}
}

// recordFailure advances the health state machine.
func (p *Poller) recordFailure(err error) {
	p.mu.Lock()
	prev := p.status.Health
	p.status.ConsecutiveErrors++
	p.status.LastError = err.Error()
	p.status.PollCount++

	next := prev
	switch {
	case p.status.ConsecutiveErrors > p.cfg.MaxRetries:
		next = models.HealthOffline
	case p.status.ConsecutiveErrors >= degradedThreshold:
		next = models.HealthDegraded
	}
	p.status.Health = next
	consecutive := p.status.ConsecutiveErrors
	p.mu.Unlock()

	metrics.FeedPolls.WithLabelValues(p.cfg.Name, "error").Inc()
	logging.Warn().
		Err(err).
		Str("source", p.cfg.Name).
		Int("consecutive_errors", consecutive).
		Msg("poll failed")

	if next != prev {
		p.reportTransition(prev, next)
	}
}

// reportTransition publishes a health-state change to the status surface.
func (p *Poller) reportTransition(from, to models.SourceHealth) {
	metrics.SetFeedHealth(p.cfg.Name, string(to))
	logging.Info().
		Str("source", p.cfg.Name).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("source health changed")
}

// health returns the current health state.
func (p *Poller) health() models.SourceHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status.Health
}

// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package threat

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/skysentry/internal/config"
	"github.com/tomtom215/skysentry/internal/logging"
	"github.com/tomtom215/skysentry/internal/metrics"
	"github.com/tomtom215/skysentry/internal/models"
	"github.com/tomtom215/skysentry/internal/track"
)

// AlertPublisher receives alert events from the engine. The alert bus
// implements it; delivery is at-most-once.
type AlertPublisher interface {
	Publish(alert models.Alert) error
}

// Engine runs scoring passes on a fixed cadence, independent of
// ingestion. Each pass works over a point-in-time snapshot of all tracks
// and writes one whole recomputed assessment per track back through the
// store. Alerts fire only on upward level transitions into medium or
// above; downward transitions update the assessment silently.
type Engine struct {
	store      *track.Store
	cfg        config.ThreatConfig
	indicators []*Indicator
	zones      []*Zone
	publisher  AlertPublisher
}

// NewEngine compiles the configured indicators and zones into an engine.
func NewEngine(store *track.Store, cfg config.ThreatConfig, publisher AlertPublisher) (*Engine, error) {
	indicators, err := buildIndicators(cfg.Indicators)
	if err != nil {
		return nil, err
	}
	zones, err := buildZones(cfg.Zones)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:      store,
		cfg:        cfg,
		indicators: indicators,
		zones:      zones,
		publisher:  publisher,
	}, nil
}

// String names the service in supervisor logs.
func (e *Engine) String() string {
	return "threat-engine"
}

// Serve implements suture.Service and scores on the configured interval
// until the context is canceled.
func (e *Engine) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", e.cfg.Interval).
		Int("indicators", len(e.indicators)).
		Int("zones", len(e.zones)).
		Msg("threat engine started")

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("threat engine stopped")
			return ctx.Err()
		case now := <-ticker.C:
			e.Pass(now.UTC())
		}
	}
}

// Pass runs one scoring pass over a snapshot of all tracks at the given
// evaluation time.
func (e *Engine) Pass(now time.Time) {
	start := time.Now()
	snapshot := e.store.All()

	for _, t := range snapshot {
		assessment := e.Assess(t, now)

		prev := models.LevelNone
		if t.Assessment != nil {
			prev = t.Assessment.Level
		}

		if err := e.store.SetAssessment(t.ID, assessment); err != nil {
			// Evicted between snapshot and write-back; nothing to score.
			continue
		}

		if shouldAlert(prev, assessment.Level) {
			e.emit(t.ID, assessment, now)
		}
	}

	metrics.ScoringPasses.Inc()
	metrics.ScoringPassDuration.Observe(time.Since(start).Seconds())
}

// Assess computes one whole assessment for a track: every indicator
// predicate, plus the contextual zone and time-of-day indicators, summed
// and clamped to [0, max score].
func (e *Engine) Assess(t *models.Track, now time.Time) *models.ThreatAssessment {
	var matches []models.IndicatorMatch
	kinds := make(map[indicatorKind]struct{})

	for _, ind := range e.indicators {
		if ind.Match(t) {
			matches = append(matches, models.IndicatorMatch{Name: ind.Name(), Weight: ind.Weight()})
			kinds[ind.kind] = struct{}{}
		}
	}

	if !models.IsUnknownPosition(t.Latest.Latitude, t.Latest.Longitude) {
		for _, z := range e.zones {
			if z.Contains(t.Latest.Latitude, t.Latest.Longitude) {
				matches = append(matches, models.IndicatorMatch{Name: "zone:" + z.Name, Weight: z.Weight})
				kinds[kindContext] = struct{}{}
			}
		}
	}

	if e.cfg.SuspiciousHours.Weight > 0 && inSuspiciousHours(now.Hour(), e.cfg.SuspiciousHours) {
		matches = append(matches, models.IndicatorMatch{Name: "suspicious_hours", Weight: e.cfg.SuspiciousHours.Weight})
		kinds[kindContext] = struct{}{}
	}

	var score float64
	for _, m := range matches {
		score += m.Weight
	}
	score = math.Max(0, math.Min(score, e.cfg.MaxScore))

	return &models.ThreatAssessment{
		Score:       score,
		Level:       e.level(score),
		Indicators:  matches,
		Confidence:  confidence(len(matches), len(kinds)),
		EvaluatedAt: now,
	}
}

// level maps a score to its discrete level. The mapping is a monotonic
// step function of score: 0 is none, then low below the medium
// breakpoint, and so on upward.
func (e *Engine) level(score float64) models.ThreatLevel {
	bp := e.cfg.Breakpoints
	switch {
	case score >= bp.Critical:
		return models.LevelCritical
	case score >= bp.High:
		return models.LevelHigh
	case score >= bp.Medium:
		return models.LevelMedium
	case score > 0:
		return models.LevelLow
	default:
		return models.LevelNone
	}
}

// confidence derives assessment confidence from the count and kind
// diversity of matched indicators, not from score magnitude. Several
// independent kinds of evidence raise confidence faster than repeated
// matches of the same kind.
func confidence(count, distinctKinds int) float64 {
	if count == 0 {
		return 0
	}
	return math.Min(1, 0.1*float64(count)+0.2*float64(distinctKinds))
}

// shouldAlert reports whether the transition warrants an alert: upward
// only, into medium or above. Re-confirming an unchanged level never
// alerts, preventing storms from monotonic re-assertion.
func shouldAlert(prev, next models.ThreatLevel) bool {
	return next.Rank() > prev.Rank() && next.Rank() >= models.LevelMedium.Rank()
}

// emit publishes one alert for a track's new level.
func (e *Engine) emit(trackID string, a *models.ThreatAssessment, now time.Time) {
	alert := models.Alert{
		ID:         uuid.NewString(),
		TrackID:    trackID,
		Level:      a.Level,
		Indicators: a.IndicatorNames(),
		Timestamp:  now,
	}

	if err := e.publisher.Publish(alert); err != nil {
		logging.Error().
			Err(err).
			Str("track", trackID).
			Str("level", string(a.Level)).
			Msg("alert publish failed")
		return
	}

	metrics.AlertsEmitted.WithLabelValues(string(a.Level)).Inc()
	logging.Warn().
		Str("track", trackID).
		Str("level", string(a.Level)).
		Strs("indicators", alert.Indicators).
		Float64("score", a.Score).
		Msg("threat alert")
}

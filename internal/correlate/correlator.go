// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package correlate matches incoming detections against existing tracks,
// merging same-aircraft reports from different sources and creating new
// tracks for unmatched detections. The matching policy is evaluated in
// order, first match wins:
//
//  1. Provider-native identifier match against the same source.
//  2. Cross-source proximity match against tracks updated within the
//     correlation window, bounded by speed-derived plausible displacement.
//  3. No match, a new track is created.
//
// The tie-break between equally plausible proximity matches (prefer the
// most recently updated track) is a deliberately simple heuristic; it can
// misassociate identity under dense traffic. Ambiguous resolutions are
// counted, never raised as errors.
package correlate

import (
	"strings"
	"time"

	"github.com/tomtom215/skysentry/internal/cache"
	"github.com/tomtom215/skysentry/internal/classify"
	"github.com/tomtom215/skysentry/internal/config"
	"github.com/tomtom215/skysentry/internal/logging"
	"github.com/tomtom215/skysentry/internal/metrics"
	"github.com/tomtom215/skysentry/internal/models"
	"github.com/tomtom215/skysentry/internal/track"
)

const (
	// ktsToKmh converts knots to km/h for displacement bounds.
	ktsToKmh = 1.852

	// searchSpeedKts bounds the candidate search radius. No plausible
	// match can be farther than the fastest conventional traffic would
	// travel within the correlation window.
	searchSpeedKts = 700

	// distanceTieKm treats two candidate distances within this margin as
	// equally plausible, invoking the recency tie-break.
	distanceTieKm = 0.1
)

// Correlator assigns detections to tracks through the store.
type Correlator struct {
	store *track.Store
	cfg   config.CorrelationConfig
}

// New creates a correlator over the given store.
func New(store *track.Store, cfg config.CorrelationConfig) *Correlator {
	return &Correlator{store: store, cfg: cfg}
}

// Correlate matches one detection to a track, creating a new track when
// nothing matches. Returns the track id and whether a track was created.
func (c *Correlator) Correlate(det *models.Detection) (string, bool) {
	cls := classify.Classify(det)

	// Rule 1: the same source already reported this native identifier.
	if id, ok := c.store.FindByNativeID(det.SourceID, det.NativeID); ok {
		if err := c.store.Update(id, det, cls); err == nil {
			metrics.Correlations.WithLabelValues("native_id").Inc()
			return id, false
		}
	}

	// Rule 2: nearest recently-updated track within plausible displacement.
	if id, ok := c.matchByProximity(det); ok {
		if err := c.store.Update(id, det, cls); err == nil {
			metrics.Correlations.WithLabelValues("cross_source").Inc()
			return id, false
		}
	}

	// Rule 3: new track.
	id := c.store.Create(det, cls)
	metrics.Correlations.WithLabelValues("created").Inc()
	logging.Debug().
		Str("track", id).
		Str("source", det.SourceID).
		Str("callsign", det.Callsign).
		Msg("track created")
	return id, true
}

// matchByProximity implements the cross-source rule: among tracks updated
// within the window, find the nearest whose distance fits within the
// track's speed-derived maximum displacement plus slack, with a
// compatible callsign.
func (c *Correlator) matchByProximity(det *models.Detection) (string, bool) {
	if models.IsUnknownPosition(det.Latitude, det.Longitude) {
		return "", false
	}

	now := time.Now().UTC()
	since := now.Add(-c.cfg.Window)
	searchKm := searchSpeedKts*ktsToKmh*c.cfg.Window.Hours() + c.cfg.SlackKm

	candidates := c.store.Candidates(det.Latitude, det.Longitude, searchKm, since)
	if len(candidates) == 0 {
		return "", false
	}

	var (
		best     *models.Track
		bestDist float64
		tied     bool
	)
	for _, cand := range candidates {
		dist := cache.HaversineKm(det.Latitude, det.Longitude, cand.Latest.Latitude, cand.Latest.Longitude)
		if dist > c.maxDisplacementKm(cand, now) {
			continue
		}
		if !callsignCompatible(det.Callsign, cand.Latest.Callsign) {
			continue
		}

		switch {
		case best == nil:
			best, bestDist = cand, dist
		case dist < bestDist-distanceTieKm:
			best, bestDist, tied = cand, dist, false
		case dist <= bestDist+distanceTieKm:
			// Equally plausible. Prefer the most recently updated track.
			tied = true
			if cand.LastUpdated.After(best.LastUpdated) {
				best, bestDist = cand, dist
			}
		}
	}

	if best == nil {
		return "", false
	}
	if tied {
		metrics.CorrelationAmbiguities.Inc()
		logging.Debug().
			Str("track", best.ID).
			Str("source", det.SourceID).
			Msg("ambiguous correlation resolved by recency")
	}
	return best.ID, true
}

// maxDisplacementKm bounds how far a track could plausibly have moved
// since its last update, from its last known speed plus a fixed slack
// margin. An unknown speed falls back to the search bound so a slow
// refresh never splits a fast aircraft into two tracks.
func (c *Correlator) maxDisplacementKm(t *models.Track, now time.Time) float64 {
	elapsed := now.Sub(t.LastUpdated)
	if elapsed < 0 {
		elapsed = 0
	}

	speed := t.Latest.SpeedKts
	if speed <= 0 {
		speed = searchSpeedKts
	}
	return speed*ktsToKmh*elapsed.Hours() + c.cfg.SlackKm
}

// callsignCompatible reports whether two callsigns can describe the same
// aircraft: they match, or at least one side has none.
func callsignCompatible(a, b string) bool {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == "" || b == "" {
		return true
	}
	return a == b
}

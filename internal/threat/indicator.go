// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package threat implements the periodic scoring engine: weighted
// indicator evaluation over a snapshot of all tracks, score-to-level
// mapping via fixed breakpoints, and alert emission on upward level
// transitions.
package threat

import (
	"fmt"
	"time"

	"github.com/tomtom215/skysentry/internal/cache"
	"github.com/tomtom215/skysentry/internal/config"
	"github.com/tomtom215/skysentry/internal/models"
)

// indicatorKind groups indicators for confidence scoring. Matches across
// different kinds are stronger evidence than several matches of the same
// kind.
type indicatorKind int

const (
	kindClassification indicatorKind = iota
	kindIdentity
	kindBehavior
	kindContext
)

// Indicator is one named rule with a fixed weight and a predicate over a
// track and its history. Read-only after construction.
type Indicator struct {
	name      string
	weight    float64
	kind      indicatorKind
	predicate func(t *models.Track) bool
}

// Name returns the indicator's configured name.
func (i *Indicator) Name() string { return i.name }

// Weight returns the score contribution when matched.
func (i *Indicator) Weight() float64 { return i.weight }

// Match evaluates the predicate against a track.
func (i *Indicator) Match(t *models.Track) bool { return i.predicate(t) }

// Emergency transponder codes: hijack, radio failure, general emergency.
var emergencySquawks = map[string]struct{}{
	"7500": {},
	"7600": {},
	"7700": {},
}

// Behavior thresholds.
const (
	lowSlowMaxAltitudeFt = 1000
	lowSlowMaxSpeedKts   = 80
	rapidDescentFpm      = -3000

	loiterMinSamples = 10
	loiterMinSpan    = 4 * time.Minute
	loiterRadiusKm   = 5.0
)

// builtinPredicates maps configurable indicator names to their predicate
// and kind. Weights and enablement come from configuration.
var builtinPredicates = map[string]struct {
	kind      indicatorKind
	predicate func(t *models.Track) bool
}{
	"military_activity": {kindClassification, func(t *models.Track) bool {
		return t.Classification == models.CategoryMilitary
	}},
	"no_identity": {kindIdentity, func(t *models.Track) bool {
		return t.Latest.Callsign == "" && t.Latest.Squawk == ""
	}},
	"emergency_squawk": {kindIdentity, func(t *models.Track) bool {
		_, ok := emergencySquawks[t.Latest.Squawk]
		return ok
	}},
	"low_and_slow": {kindBehavior, func(t *models.Track) bool {
		return t.Latest.AltitudeFt > 0 && t.Latest.AltitudeFt <= lowSlowMaxAltitudeFt &&
			t.Latest.SpeedKts > 0 && t.Latest.SpeedKts <= lowSlowMaxSpeedKts
	}},
	"rapid_descent": {kindBehavior, func(t *models.Track) bool {
		return t.Latest.VerticalFpm <= rapidDescentFpm
	}},
	"loitering": {kindBehavior, isLoitering},
}

// buildIndicators compiles the enabled configured indicators against the
// built-in predicate set.
func buildIndicators(cfgs []config.IndicatorConfig) ([]*Indicator, error) {
	out := make([]*Indicator, 0, len(cfgs))
	for _, cfg := range cfgs {
		if !cfg.Enabled {
			continue
		}
		builtin, ok := builtinPredicates[cfg.Name]
		if !ok {
			return nil, fmt.Errorf("unknown indicator %q", cfg.Name)
		}
		out = append(out, &Indicator{
			name:      cfg.Name,
			weight:    cfg.Weight,
			kind:      builtin.kind,
			predicate: builtin.predicate,
		})
	}
	return out, nil
}

// isLoitering reports whether the track has stayed within a small radius
// for a sustained period: enough history samples, a long enough time
// span, and every recent position within loiterRadiusKm of the oldest
// considered one.
func isLoitering(t *models.Track) bool {
	if len(t.History) < loiterMinSamples {
		return false
	}

	oldest := t.History[len(t.History)-loiterMinSamples]
	span := t.Latest.CapturedAt.Sub(oldest.CapturedAt)
	if span < loiterMinSpan {
		return false
	}

	for _, d := range t.History[len(t.History)-loiterMinSamples:] {
		if cache.HaversineKm(oldest.Latitude, oldest.Longitude, d.Latitude, d.Longitude) > loiterRadiusKm {
			return false
		}
	}
	return cache.HaversineKm(oldest.Latitude, oldest.Longitude, t.Latest.Latitude, t.Latest.Longitude) <= loiterRadiusKm
}

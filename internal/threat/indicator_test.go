// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package threat

import (
	"testing"
	"time"

	"github.com/tomtom215/skysentry/internal/models"
)

func indicatorByName(t *testing.T, name string) *Indicator {
	t.Helper()
	builtin, ok := builtinPredicates[name]
	if !ok {
		t.Fatalf("no builtin indicator %q", name)
	}
	return &Indicator{name: name, weight: 1, kind: builtin.kind, predicate: builtin.predicate}
}

func TestEmergencySquawkIndicator(t *testing.T) {
	ind := indicatorByName(t, "emergency_squawk")

	for _, squawk := range []string{"7500", "7600", "7700"} {
		tr := &models.Track{Latest: models.Detection{Squawk: squawk}}
		if !ind.Match(tr) {
			t.Errorf("squawk %s not matched", squawk)
		}
	}

	tr := &models.Track{Latest: models.Detection{Squawk: "1200"}}
	if ind.Match(tr) {
		t.Error("VFR squawk 1200 matched as emergency")
	}
}

func TestNoIdentityIndicator(t *testing.T) {
	ind := indicatorByName(t, "no_identity")

	tests := []struct {
		name string
		det  models.Detection
		want bool
	}{
		{"silent target", models.Detection{}, true},
		{"callsign only", models.Detection{Callsign: "DLH441"}, false},
		{"squawk only", models.Detection{Squawk: "1000"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &models.Track{Latest: tt.det}
			if got := ind.Match(tr); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRapidDescentIndicator(t *testing.T) {
	ind := indicatorByName(t, "rapid_descent")

	if !ind.Match(&models.Track{Latest: models.Detection{VerticalFpm: -4500}}) {
		t.Error("steep descent not matched")
	}
	if ind.Match(&models.Track{Latest: models.Detection{VerticalFpm: -500}}) {
		t.Error("normal descent matched")
	}
	if ind.Match(&models.Track{Latest: models.Detection{VerticalFpm: 3500}}) {
		t.Error("climb matched as descent")
	}
}

// loiterTrack builds a track circling one point with the given number of
// history samples spaced one minute apart.
func loiterTrack(samples int, driftDeg float64) *models.Track {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tr := &models.Track{}
	for i := 0; i < samples; i++ {
		tr.History = append(tr.History, models.Detection{
			Latitude:   35.0 + driftDeg*float64(i),
			Longitude:  51.0,
			CapturedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	tr.Latest = models.Detection{
		Latitude:   35.0,
		Longitude:  51.0,
		CapturedAt: base.Add(time.Duration(samples) * time.Minute),
	}
	return tr
}

func TestLoiteringIndicator(t *testing.T) {
	ind := indicatorByName(t, "loitering")

	if !ind.Match(loiterTrack(12, 0)) {
		t.Error("stationary circling track not matched")
	}

	// 0.05 degrees per minute is roughly 5.5km per sample; the track is
	// transiting, not loitering.
	if ind.Match(loiterTrack(12, 0.05)) {
		t.Error("transiting track matched as loitering")
	}

	if ind.Match(loiterTrack(4, 0)) {
		t.Error("track with too little history matched")
	}
}

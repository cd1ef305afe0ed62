// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package cache

import (
	"math"
	"testing"
	"time"
)

func TestSpatialHashInsertAndQuery(t *testing.T) {
	g := NewSpatialHashGrid(25)
	now := time.Now()

	g.Insert("near", 35.0, 51.0, now)
	// "close" is ~1.4km out, "far" ~111km out.
	g.Insert("close", 35.01, 51.01, now)
	g.Insert("far", 36.0, 51.0, now)
	g.Insert("stale", 35.001, 51.001, now.Add(-time.Hour))

	results := g.QueryNearbyWithinTime(35.0, 51.0, 10, now.Add(-time.Minute))

	got := make(map[string]bool, len(results))
	for _, e := range results {
		got[e.ID] = true
	}
	if !got["near"] || !got["close"] {
		t.Errorf("results = %v, want near and close included", got)
	}
	if got["far"] {
		t.Error("entry 111km away returned for a 10km query")
	}
	if got["stale"] {
		t.Error("entry older than the time bound returned")
	}
}

func TestSpatialHashInsertReplacesSameID(t *testing.T) {
	g := NewSpatialHashGrid(25)
	now := time.Now()

	g.Insert("a1", 35.0, 51.0, now)
	g.Insert("a1", 45.0, 10.0, now) // moved far, old cell must be vacated

	if g.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 after re-insert", g.Size())
	}
	if res := g.QueryNearbyWithinTime(35.0, 51.0, 10, now.Add(-time.Minute)); len(res) != 0 {
		t.Error("old position still queryable after re-insert")
	}
	if res := g.QueryNearbyWithinTime(45.0, 10.0, 10, now.Add(-time.Minute)); len(res) != 1 {
		t.Error("new position not queryable after re-insert")
	}
}

func TestSpatialHashRemove(t *testing.T) {
	g := NewSpatialHashGrid(25)
	g.Insert("a1", 35.0, 51.0, time.Now())

	if !g.Remove("a1") {
		t.Error("Remove() existing entry = false, want true")
	}
	if g.Remove("a1") {
		t.Error("Remove() absent entry = true, want false")
	}
	if g.Size() != 0 {
		t.Errorf("Size() = %d, want 0", g.Size())
	}
}

func TestSpatialHashCleanupBefore(t *testing.T) {
	g := NewSpatialHashGrid(25)
	now := time.Now()
	g.Insert("old", 35.0, 51.0, now.Add(-time.Hour))
	g.Insert("new", 36.0, 51.0, now)

	if removed := g.CleanupBefore(now.Add(-time.Minute)); removed != 1 {
		t.Errorf("CleanupBefore() = %d, want 1", removed)
	}
	if g.Size() != 1 {
		t.Errorf("Size() = %d, want 1", g.Size())
	}
}

func TestSpatialHashLongitudeWrap(t *testing.T) {
	g := NewSpatialHashGrid(25)
	now := time.Now()
	g.Insert("wrapped", 10.0, 190.0, now) // normalized to -170

	if res := g.QueryNearbyWithinTime(10.0, -170.0, 10, now.Add(-time.Minute)); len(res) != 1 {
		t.Errorf("query at normalized longitude found %d entries, want 1", len(res))
	}
}

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 35, 51, 35, 51, 0, 0.001},
		{"one degree latitude", 35, 51, 36, 51, 111.2, 1},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 344, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineKm() = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
		})
	}
}

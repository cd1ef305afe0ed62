// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package correlate

import (
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/skysentry/internal/config"
	"github.com/tomtom215/skysentry/internal/models"
	"github.com/tomtom215/skysentry/internal/track"
)

func testCorrelator() (*Correlator, *track.Store) {
	store := track.NewStore(100, 5*time.Minute)
	c := New(store, config.CorrelationConfig{
		Window:  15 * time.Second,
		SlackKm: 2.0,
	})
	return c, store
}

func detection(source, native, callsign string, lat, lon float64) *models.Detection {
	return &models.Detection{
		SourceID:   source,
		NativeID:   native,
		Callsign:   callsign,
		Latitude:   lat,
		Longitude:  lon,
		CapturedAt: time.Now().UTC(),
	}
}

func TestCorrelateStableNativeIDsNoSplitting(t *testing.T) {
	// A sequence of detections from one source with stable identifiers
	// yields exactly one track per distinct identifier.
	c, store := testCorrelator()

	const aircraft = 5
	for round := 0; round < 4; round++ {
		for i := 0; i < aircraft; i++ {
			native := fmt.Sprintf("icao%02d", i)
			// Spread positions widely and move them each round.
			lat := float64(i)*10 + float64(round)*0.01
			c.Correlate(detection("src-a", native, "", lat, 30))
		}
	}

	if got := store.Count(); got != aircraft {
		t.Errorf("track count = %d, want %d distinct identifiers", got, aircraft)
	}
}

func TestCorrelateNativeIDMatch(t *testing.T) {
	c, _ := testCorrelator()

	id1, created := c.Correlate(detection("src-a", "abc123", "DLH441", 50.0, 8.5))
	if !created {
		t.Fatal("first detection should create a track")
	}

	id2, created := c.Correlate(detection("src-a", "abc123", "DLH441", 50.02, 8.53))
	if created {
		t.Error("same-source same-identifier detection created a new track")
	}
	if id2 != id1 {
		t.Errorf("track id = %q, want %q", id2, id1)
	}
}

func TestCorrelateCrossSourceMerge(t *testing.T) {
	// Source A reports with an identifier, source B reports the same
	// aircraft moments later without one, a kilometer away. One track
	// carries both source ids.
	c, store := testCorrelator()

	id1, _ := c.Correlate(detection("src-a", "ABC123", "", 35.0, 51.0))
	id2, created := c.Correlate(detection("src-b", "", "", 35.001, 51.001))

	if created || id2 != id1 {
		t.Fatalf("cross-source detection: (id=%q created=%v), want merge into %q", id2, created, id1)
	}

	tr, _ := store.Get(id1)
	if !tr.HasSource("src-a") || !tr.HasSource("src-b") {
		t.Errorf("Sources = %v, want both src-a and src-b", tr.Sources)
	}
}

func TestCorrelateCallsignMismatchBlocksMerge(t *testing.T) {
	c, _ := testCorrelator()

	id1, _ := c.Correlate(detection("src-a", "aaa111", "DLH441", 35.0, 51.0))
	id2, created := c.Correlate(detection("src-b", "bbb222", "UAL12", 35.001, 51.001))

	if !created || id2 == id1 {
		t.Error("conflicting callsigns at the same position must not merge")
	}
}

func TestCorrelateDistantDetectionCreatesTrack(t *testing.T) {
	c, _ := testCorrelator()

	// A slow aircraft cannot plausibly cover 100km between updates.
	c.Correlate(&models.Detection{
		SourceID: "src-a", NativeID: "aaa111",
		Latitude: 35.0, Longitude: 51.0,
		SpeedKts:   120,
		CapturedAt: time.Now().UTC(),
	})
	_, created := c.Correlate(detection("src-b", "", "", 35.9, 51.0))

	if !created {
		t.Error("implausibly distant detection merged instead of creating a track")
	}
}

func TestCorrelateTieBreakPrefersRecent(t *testing.T) {
	c, store := testCorrelator()

	older, _ := c.Correlate(detection("src-a", "aaa111", "", 35.0, 51.0))
	time.Sleep(5 * time.Millisecond)
	newer, _ := c.Correlate(detection("src-a", "bbb222", "", 35.0002, 51.0))

	if older == newer {
		t.Fatal("setup produced one track, want two")
	}

	// Equidistant-ish from both; the most recently updated track wins.
	id, created := c.Correlate(detection("src-b", "", "", 35.0001, 51.0))
	if created {
		t.Fatal("tie-break detection created a new track")
	}
	if id != newer {
		t.Errorf("tie-break chose %q, want most recently updated %q", id, newer)
	}

	tr, _ := store.Get(newer)
	if !tr.HasSource("src-b") {
		t.Error("winning track missing the merging source")
	}
}

func TestCorrelateUnknownPositionNeverProximityMatches(t *testing.T) {
	c, _ := testCorrelator()

	c.Correlate(detection("src-a", "aaa111", "", 0.0000001, 0.0000001))
	_, created := c.Correlate(detection("src-b", "", "", 0, 0))

	if !created {
		t.Error("unknown-position detections must not merge by proximity")
	}
}

func TestCorrelateReclassifiesOnUpdate(t *testing.T) {
	// The callsign appears mid-flight: classification follows.
	c, store := testCorrelator()

	id, _ := c.Correlate(detection("src-a", "ae01ce", "", 35.0, 51.0))
	tr, _ := store.Get(id)
	if tr.Classification != models.CategoryUnknown {
		t.Fatalf("initial classification = %q, want unknown", tr.Classification)
	}

	c.Correlate(detection("src-a", "ae01ce", "RCH4501", 35.01, 51.0))
	tr, _ = store.Get(id)
	if tr.Classification != models.CategoryMilitary {
		t.Errorf("classification after callsign = %q, want military", tr.Classification)
	}
}

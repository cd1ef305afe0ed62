// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package models defines the core data shapes shared across the ingestion
// pipeline: raw feed records, normalized detections, tracks, threat
// assessments, and alerts.
package models

import (
	"math"
	"time"

	"github.com/goccy/go-json"
)

// CoordinateEpsilon is the threshold for considering coordinates as
// effectively zero. A position is treated as "unknown" (sentinel 0,0) if
// both latitude and longitude are within this epsilon of zero.
//
// 1e-7 degrees is roughly 1.1cm at the equator, well below ADS-B position
// accuracy, but reliable for float comparison.
const CoordinateEpsilon = 1e-7

// IsUnknownPosition returns true if the coordinates represent an unknown
// position. Uses epsilon comparison instead of direct float equality.
func IsUnknownPosition(lat, lon float64) bool {
	return math.Abs(lat) < CoordinateEpsilon && math.Abs(lon) < CoordinateEpsilon
}

// RawRecord is one unparsed position report as received from a provider.
// Payload holds the provider-native JSON for a single aircraft; the
// normalizer interprets it according to Provider.
type RawRecord struct {
	SourceID   string          `json:"source_id"`
	Provider   string          `json:"provider"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Detection is one normalized position report from one source at one
// instant. Immutable once created. Canonical units: altitude in feet,
// ground speed in knots, vertical rate in feet per minute.
type Detection struct {
	SourceID     string    `json:"source_id"`
	NativeID     string    `json:"native_id,omitempty"` // provider identifier (e.g. ICAO hex); may be absent
	Callsign     string    `json:"callsign,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	AltitudeFt   float64   `json:"altitude_ft"`
	SpeedKts     float64   `json:"speed_kts"`
	HeadingDeg   float64   `json:"heading_deg"`
	VerticalFpm  float64   `json:"vertical_fpm"`
	Squawk       string    `json:"squawk,omitempty"`
	CapturedAt   time.Time `json:"captured_at"`
}

// Category is the derived aircraft classification.
type Category string

const (
	CategoryMilitary   Category = "military"
	CategoryCommercial Category = "commercial"
	CategoryPrivate    Category = "private"
	CategoryUnmanned   Category = "unmanned"
	CategoryUnknown    Category = "unknown"
)

// ThreatLevel is the discrete threat level derived from a score.
type ThreatLevel string

const (
	LevelNone     ThreatLevel = "none"
	LevelLow      ThreatLevel = "low"
	LevelMedium   ThreatLevel = "medium"
	LevelHigh     ThreatLevel = "high"
	LevelCritical ThreatLevel = "critical"
)

// Rank returns the ordinal position of the level for monotonic comparison.
// Unknown values rank below none.
func (l ThreatLevel) Rank() int {
	switch l {
	case LevelNone:
		return 0
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	default:
		return -1
	}
}

// IndicatorMatch records one matched indicator and the weight it
// contributed to a score.
type IndicatorMatch struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// ThreatAssessment is the output of one scoring pass for one track.
// It is recomputed whole on every pass, never patched incrementally.
type ThreatAssessment struct {
	Score       float64          `json:"score"`
	Level       ThreatLevel      `json:"level"`
	Indicators  []IndicatorMatch `json:"indicators,omitempty"`
	Confidence  float64          `json:"confidence"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}

// Clone returns a deep copy of the assessment.
func (a *ThreatAssessment) Clone() *ThreatAssessment {
	if a == nil {
		return nil
	}
	out := *a
	if a.Indicators != nil {
		out.Indicators = make([]IndicatorMatch, len(a.Indicators))
		copy(out.Indicators, a.Indicators)
	}
	return &out
}

// IndicatorNames returns the names of all matched indicators.
func (a *ThreatAssessment) IndicatorNames() []string {
	if a == nil || len(a.Indicators) == 0 {
		return nil
	}
	names := make([]string, len(a.Indicators))
	for i, m := range a.Indicators {
		names[i] = m.Name
	}
	return names
}

// Track is the system's belief about one physical aircraft, built from one
// or more detections. The track store exclusively owns all Track values;
// everything handed out through its API is a deep copy.
type Track struct {
	ID             string            `json:"id"`
	Sources        []string          `json:"sources"`
	Latest         Detection         `json:"latest"`
	Classification Category          `json:"classification"`
	History        []Detection       `json:"history,omitempty"`
	FirstSeen      time.Time         `json:"first_seen"`
	LastUpdated    time.Time         `json:"last_updated"`
	Assessment     *ThreatAssessment `json:"assessment,omitempty"`
}

// HasSource reports whether sourceID has contributed to this track.
func (t *Track) HasSource(sourceID string) bool {
	for _, s := range t.Sources {
		if s == sourceID {
			return true
		}
	}
	return false
}

// AddSource records sourceID as a contributor if not already present.
func (t *Track) AddSource(sourceID string) {
	if !t.HasSource(sourceID) {
		t.Sources = append(t.Sources, sourceID)
	}
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	out := *t
	out.Sources = make([]string, len(t.Sources))
	copy(out.Sources, t.Sources)
	if t.History != nil {
		out.History = make([]Detection, len(t.History))
		copy(out.History, t.History)
	}
	out.Assessment = t.Assessment.Clone()
	return &out
}

// Alert is one discrete threat-level-transition event published on the
// alert stream. Delivery is at-most-once.
type Alert struct {
	ID         string      `json:"id"`
	TrackID    string      `json:"track_id"`
	Level      ThreatLevel `json:"level"`
	Indicators []string    `json:"indicators"`
	Timestamp  time.Time   `json:"timestamp"`
}

// SourceHealth is the health state of one feed.
type SourceHealth string

const (
	HealthOnline   SourceHealth = "online"
	HealthDegraded SourceHealth = "degraded"
	HealthOffline  SourceHealth = "offline"
)

// SourceStatus is the externally visible state of one source adapter,
// served on the status API.
type SourceStatus struct {
	Name              string       `json:"name"`
	Provider          string       `json:"provider"`
	Health            SourceHealth `json:"health"`
	ConsecutiveErrors int          `json:"consecutive_errors"`
	LastSuccess       time.Time    `json:"last_success"`
	LastError         string       `json:"last_error,omitempty"`
	PollCount         int64        `json:"poll_count"`
	SkippedPolls      int64        `json:"skipped_polls"`
}

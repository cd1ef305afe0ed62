// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package normalize converts provider-native raw records into canonical
// detections. Normalization is a pure function per provider: no state, no
// side effects, safe to run in parallel across records.
//
// Canonical units are aviation-conventional: altitude in feet, ground
// speed in knots, vertical rate in feet per minute. Providers reporting
// metric values (OpenSky) are converted here so downstream components
// never see mixed units.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skysentry/internal/models"
)

// Provider names accepted in source configuration.
const (
	ProviderOpenSky  = "opensky"
	ProviderADSB     = "adsb"
	ProviderDump1090 = "dump1090"
)

var (
	// ErrMissingPosition marks records without a usable position pair.
	// Such records are dropped, not treated as feed failures.
	ErrMissingPosition = errors.New("record missing position")

	// ErrUnknownProvider marks records from an unconfigured provider.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Unit conversion factors.
const (
	metersToFeet    = 3.28084
	mpsToKnots      = 1.943844
	mpsToFeetPerMin = 196.850394
)

// Normalize converts one raw record into a detection. It returns
// ErrMissingPosition (possibly wrapped) when the record lacks the minimum
// required fields, and a parse error when the payload is not valid JSON
// for the provider's shape.
func Normalize(rec models.RawRecord) (*models.Detection, error) {
	switch rec.Provider {
	case ProviderOpenSky:
		return normalizeOpenSky(rec)
	case ProviderADSB, ProviderDump1090:
		return normalizeADSB(rec)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, rec.Provider)
	}
}

// normalizeOpenSky interprets one OpenSky state vector. The payload is a
// JSON array:
//
//	[icao24, callsign, origin_country, time_position, last_contact,
//	 longitude, latitude, baro_altitude, on_ground, velocity, true_track,
//	 vertical_rate, sensors, geo_altitude, squawk, spi, position_source]
//
// Altitude and rates are metric and converted to feet / knots / ft/min.
func normalizeOpenSky(rec models.RawRecord) (*models.Detection, error) {
	var state []any
	if err := json.Unmarshal(rec.Payload, &state); err != nil {
		return nil, fmt.Errorf("parse opensky state: %w", err)
	}
	if len(state) < 17 {
		return nil, fmt.Errorf("opensky state has %d fields: %w", len(state), ErrMissingPosition)
	}

	lon, lonOK := asFloat(state[5])
	lat, latOK := asFloat(state[6])
	if !lonOK || !latOK {
		return nil, ErrMissingPosition
	}

	det := &models.Detection{
		SourceID:   rec.SourceID,
		Latitude:   lat,
		Longitude:  lon,
		CapturedAt: rec.ReceivedAt,
	}

	if icao, ok := state[0].(string); ok {
		det.NativeID = strings.ToLower(strings.TrimSpace(icao))
	}
	if callsign, ok := state[1].(string); ok {
		det.Callsign = strings.TrimSpace(callsign)
	}
	if ts, ok := asFloat(state[3]); ok && ts > 0 {
		det.CapturedAt = time.Unix(int64(ts), 0).UTC()
	}
	if alt, ok := asFloat(state[7]); ok {
		det.AltitudeFt = alt * metersToFeet
	}
	if vel, ok := asFloat(state[9]); ok {
		det.SpeedKts = vel * mpsToKnots
	}
	if track, ok := asFloat(state[10]); ok {
		det.HeadingDeg = track
	}
	if vr, ok := asFloat(state[11]); ok {
		det.VerticalFpm = vr * mpsToFeetPerMin
	}
	if squawk, ok := state[14].(string); ok {
		det.Squawk = strings.TrimSpace(squawk)
	}

	return det, nil
}

// adsbRecord is the aircraft object shape shared by adsb.lol-style feeds
// and dump1090/readsb aircraft.json. Values are already in aviation
// units. alt_baro may be the string "ground", so it is decoded loosely.
type adsbRecord struct {
	Hex      string          `json:"hex"`
	Flight   string          `json:"flight"`
	Lat      *float64        `json:"lat"`
	Lon      *float64        `json:"lon"`
	AltBaro  json.RawMessage `json:"alt_baro"`
	GS       *float64        `json:"gs"`
	Track    *float64        `json:"track"`
	BaroRate *float64        `json:"baro_rate"`
	Squawk   string          `json:"squawk"`
}

// normalizeADSB interprets one aircraft object from an ADS-B JSON feed.
func normalizeADSB(rec models.RawRecord) (*models.Detection, error) {
	var ac adsbRecord
	if err := json.Unmarshal(rec.Payload, &ac); err != nil {
		return nil, fmt.Errorf("parse adsb record: %w", err)
	}

	if ac.Lat == nil || ac.Lon == nil {
		return nil, ErrMissingPosition
	}

	det := &models.Detection{
		SourceID:   rec.SourceID,
		NativeID:   strings.ToLower(strings.TrimSpace(ac.Hex)),
		Callsign:   strings.TrimSpace(ac.Flight),
		Latitude:   *ac.Lat,
		Longitude:  *ac.Lon,
		Squawk:     strings.TrimSpace(ac.Squawk),
		CapturedAt: rec.ReceivedAt,
	}

	if len(ac.AltBaro) > 0 {
		var alt float64
		// "ground" and other non-numeric markers leave altitude at 0.
		if err := json.Unmarshal(ac.AltBaro, &alt); err == nil {
			det.AltitudeFt = alt
		}
	}
	if ac.GS != nil {
		det.SpeedKts = *ac.GS
	}
	if ac.Track != nil {
		det.HeadingDeg = *ac.Track
	}
	if ac.BaroRate != nil {
		det.VerticalFpm = *ac.BaroRate
	}

	return det, nil
}

// asFloat extracts a float64 from a decoded JSON value, tolerating null.
func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

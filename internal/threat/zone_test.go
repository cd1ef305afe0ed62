// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package threat

import (
	"testing"

	"github.com/tomtom215/skysentry/internal/config"
)

func square(name string) config.ZoneConfig {
	return config.ZoneConfig{
		Name:   name,
		Weight: 5,
		Polygon: []config.LatLon{
			{Lat: 10, Lon: 10},
			{Lat: 20, Lon: 10},
			{Lat: 20, Lon: 20},
			{Lat: 10, Lon: 20},
		},
	}
}

func TestZoneContains(t *testing.T) {
	zones, err := buildZones([]config.ZoneConfig{square("test")})
	if err != nil {
		t.Fatalf("buildZones() error = %v", err)
	}
	z := zones[0]

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"center", 15, 15, true},
		{"near corner inside", 10.01, 10.01, true},
		{"outside north", 25, 15, false},
		{"outside west", 15, 5, false},
		{"far away", -40, 120, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := z.Contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Contains(%v,%v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestZoneConcavePolygon(t *testing.T) {
	// L-shaped: the notch at the upper right is outside.
	zones, err := buildZones([]config.ZoneConfig{{
		Name:   "l-shape",
		Weight: 1,
		Polygon: []config.LatLon{
			{Lat: 0, Lon: 0},
			{Lat: 10, Lon: 0},
			{Lat: 10, Lon: 5},
			{Lat: 5, Lon: 5},
			{Lat: 5, Lon: 10},
			{Lat: 0, Lon: 10},
		},
	}})
	if err != nil {
		t.Fatalf("buildZones() error = %v", err)
	}
	z := zones[0]

	if !z.Contains(2, 2) {
		t.Error("Contains(2,2) = false, want true (inside the L)")
	}
	if z.Contains(8, 8) {
		t.Error("Contains(8,8) = true, want false (inside the notch)")
	}
}

func TestBuildZonesRejectsDegeneratePolygon(t *testing.T) {
	_, err := buildZones([]config.ZoneConfig{{
		Name:    "line",
		Weight:  1,
		Polygon: []config.LatLon{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}},
	}})
	if err == nil {
		t.Error("buildZones() with 2 vertices expected error, got nil")
	}
}

func TestInSuspiciousHours(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.HoursConfig
		hour int
		want bool
	}{
		{"plain window inside", config.HoursConfig{Start: 1, End: 5}, 3, true},
		{"plain window start inclusive", config.HoursConfig{Start: 1, End: 5}, 1, true},
		{"plain window end exclusive", config.HoursConfig{Start: 1, End: 5}, 5, false},
		{"plain window outside", config.HoursConfig{Start: 1, End: 5}, 14, false},
		{"wrapping before midnight", config.HoursConfig{Start: 22, End: 5}, 23, true},
		{"wrapping after midnight", config.HoursConfig{Start: 22, End: 5}, 2, true},
		{"wrapping outside", config.HoursConfig{Start: 22, End: 5}, 12, false},
		{"wrapping end exclusive", config.HoursConfig{Start: 22, End: 5}, 5, false},
		{"empty window", config.HoursConfig{Start: 4, End: 4}, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inSuspiciousHours(tt.hour, tt.cfg); got != tt.want {
				t.Errorf("inSuspiciousHours(%d) = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}
}

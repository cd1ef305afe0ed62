// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package classify

import (
	"testing"

	"github.com/tomtom215/skysentry/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		det  models.Detection
		want models.Category
	}{
		{
			name: "military callsign prefix",
			det:  models.Detection{Callsign: "MIL1234", AltitudeFt: 25000, SpeedKts: 450},
			want: models.CategoryMilitary,
		},
		{
			name: "reach mission callsign",
			det:  models.Detection{NativeID: "ae01ce", Callsign: "RCH4501", AltitudeFt: 31000, SpeedKts: 430},
			want: models.CategoryMilitary,
		},
		{
			name: "airline designator",
			det:  models.Detection{NativeID: "3c6444", Callsign: "DLH441", AltitudeFt: 36000, SpeedKts: 470},
			want: models.CategoryCommercial,
		},
		{
			name: "airline designator with suffix letter",
			det:  models.Detection{Callsign: "AAL2310A", AltitudeFt: 34000, SpeedKts: 460},
			want: models.CategoryCommercial,
		},
		{
			name: "us registration callsign",
			det:  models.Detection{Callsign: "N425TB", AltitudeFt: 8500, SpeedKts: 155},
			want: models.CategoryPrivate,
		},
		{
			name: "lowercase callsign is normalized",
			det:  models.Detection{Callsign: "dlh441"},
			want: models.CategoryCommercial,
		},
		{
			name: "low and slow without callsign",
			det:  models.Detection{NativeID: "abc123", AltitudeFt: 250, SpeedKts: 25},
			want: models.CategoryUnmanned,
		},
		{
			name: "no callsign no identifier",
			det:  models.Detection{AltitudeFt: 12000, SpeedKts: 320},
			want: models.CategoryUnknown,
		},
		{
			name: "identifier only at cruise",
			det:  models.Detection{NativeID: "abc123", AltitudeFt: 12000, SpeedKts: 320},
			want: models.CategoryUnknown,
		},
		{
			name: "unmatched callsign falls back to private",
			det:  models.Detection{Callsign: "ZZ99ZZ", AltitudeFt: 9000, SpeedKts: 180},
			want: models.CategoryPrivate,
		},
		{
			name: "grounded target is not unmanned",
			det:  models.Detection{NativeID: "abc123", AltitudeFt: 0, SpeedKts: 10},
			want: models.CategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(&tt.det); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyMilitaryBeatsEnvelope(t *testing.T) {
	// Callsign rules run before the envelope: a slow military flight stays
	// military.
	det := models.Detection{Callsign: "NAVY102", AltitudeFt: 300, SpeedKts: 50}
	if got := Classify(&det); got != models.CategoryMilitary {
		t.Errorf("Classify() = %q, want military", got)
	}
}

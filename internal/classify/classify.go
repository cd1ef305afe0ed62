// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package classify derives an aircraft category from a detection's
// attributes. Classification is deterministic rule evaluation: ordered
// callsign patterns first, then an altitude-and-speed envelope for
// unmanned profiles, then identity presence. It is re-run on every
// correlated update because a callsign can appear mid-flight.
package classify

import (
	"regexp"
	"strings"

	"github.com/tomtom215/skysentry/internal/models"
)

// callsignRule maps a compiled callsign pattern to a category. Rules are
// evaluated in order, first match wins.
type callsignRule struct {
	name     string
	pattern  *regexp.Regexp
	category models.Category
}

// Default callsign rules. Military prefixes cover common US and NATO
// mission callsigns; the commercial pattern is the ICAO three-letter
// airline designator followed by a flight number; the private pattern
// matches common registration-as-callsign forms (US N-numbers and
// hyphenated registrations).
var callsignRules = []callsignRule{
	{
		name:     "military-prefix",
		pattern:  regexp.MustCompile(`^(?:MIL|RCH|REACH|NAVY|ARMY|AF[0-9]|SAM|CNV|PAT|EVAC|DUKE|HOBO|KING)`),
		category: models.CategoryMilitary,
	},
	{
		name:     "airline-designator",
		pattern:  regexp.MustCompile(`^[A-Z]{3}[0-9]{1,4}[A-Z]{0,2}$`),
		category: models.CategoryCommercial,
	},
	{
		name:     "registration",
		pattern:  regexp.MustCompile(`^(?:N[0-9]{1,5}[A-Z]{0,2}|[A-Z]{1,2}-[A-Z0-9]{3,5})$`),
		category: models.CategoryPrivate,
	},
}

// Unmanned envelope bounds. A target this low and slow with a position
// fix does not fly like crewed fixed-wing traffic.
const (
	unmannedMaxAltitudeFt = 400
	unmannedMaxSpeedKts   = 60
)

// Classify derives the category for a detection.
func Classify(det *models.Detection) models.Category {
	callsign := strings.ToUpper(strings.TrimSpace(det.Callsign))

	if callsign != "" {
		for _, rule := range callsignRules {
			if rule.pattern.MatchString(callsign) {
				return rule.category
			}
		}
	}

	if inUnmannedEnvelope(det) {
		return models.CategoryUnmanned
	}

	if callsign == "" && det.NativeID == "" {
		return models.CategoryUnknown
	}

	if callsign != "" {
		return models.CategoryPrivate
	}
	return models.CategoryUnknown
}

// inUnmannedEnvelope reports whether the detection's altitude and speed
// fit a low-and-slow unmanned profile. Both values must be present and
// positive; a grounded or unreported target is not evidence.
func inUnmannedEnvelope(det *models.Detection) bool {
	return det.AltitudeFt > 0 && det.AltitudeFt <= unmannedMaxAltitudeFt &&
		det.SpeedKts > 0 && det.SpeedKts <= unmannedMaxSpeedKts
}

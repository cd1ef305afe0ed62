// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package threat

import (
	"fmt"

	"github.com/tomtom215/skysentry/internal/config"
)

// Zone is one compiled sensitive-area polygon with its contextual weight.
type Zone struct {
	Name    string
	Weight  float64
	polygon []config.LatLon
}

// buildZones compiles the configured zone polygons.
func buildZones(cfgs []config.ZoneConfig) ([]*Zone, error) {
	out := make([]*Zone, 0, len(cfgs))
	for _, cfg := range cfgs {
		if len(cfg.Polygon) < 3 {
			return nil, fmt.Errorf("zone %q: polygon needs at least 3 vertices", cfg.Name)
		}
		out = append(out, &Zone{
			Name:    cfg.Name,
			Weight:  cfg.Weight,
			polygon: append([]config.LatLon(nil), cfg.Polygon...),
		})
	}
	return out, nil
}

// Contains reports whether the point is inside the zone polygon, using
// the even-odd ray casting rule. Points exactly on an edge may land on
// either side; zone boundaries are not treated as exact.
func (z *Zone) Contains(lat, lon float64) bool {
	inside := false
	n := len(z.polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := z.polygon[i], z.polygon[j]
		if (vi.Lat > lat) != (vj.Lat > lat) &&
			lon < (vj.Lon-vi.Lon)*(lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lon {
			inside = !inside
		}
	}
	return inside
}

// inSuspiciousHours reports whether the given hour falls inside the
// configured [Start, End) window. A window with Start > End wraps
// midnight; Start == End is an empty window.
func inSuspiciousHours(hour int, cfg config.HoursConfig) bool {
	if cfg.Start == cfg.End {
		return false
	}
	if cfg.Start < cfg.End {
		return hour >= cfg.Start && hour < cfg.End
	}
	return hour >= cfg.Start || hour < cfg.End
}

// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package cache provides the in-memory data structures used by the
// ingestion pipeline: a spatial hash grid for proximity queries over track
// positions and a sliding-window counter for feed rate limiting.
package cache

import (
	"math"
	"sync"
	"time"
)

// SpatialHashGrid divides geographic space into cells for fast proximity
// queries. Instead of O(n) comparisons to find tracks near a detection,
// only the cells around the query point are checked, reducing to O(k)
// where k = entries in nearby cells.
//
// Complexity:
//   - Insert: O(1)
//   - QueryNearby: O(k)
//   - Remove: O(1)
type SpatialHashGrid struct {
	mu       sync.RWMutex
	cells    map[CellKey]*cell
	cellSize float64 // cell size in degrees
	entries  map[string]*SpatialEntry
}

// CellKey represents a grid cell coordinate.
type CellKey struct {
	X, Y int
}

type cell struct {
	entries []*SpatialEntry
}

// SpatialEntry represents one positioned entry in the grid.
type SpatialEntry struct {
	ID        string
	Lat       float64
	Lon       float64
	Timestamp time.Time
	cellKey   CellKey // cached for fast removal
}

// NewSpatialHashGrid creates a grid with the given approximate cell size
// in kilometers. Smaller cells are more precise but mean more cells to
// check per query.
func NewSpatialHashGrid(cellSizeKm float64) *SpatialHashGrid {
	if cellSizeKm <= 0 {
		cellSizeKm = 50
	}

	// 1 degree ≈ 111km at the equator
	return &SpatialHashGrid{
		cells:    make(map[CellKey]*cell),
		cellSize: cellSizeKm / 111.0,
		entries:  make(map[string]*SpatialEntry),
	}
}

// getCellKey returns the cell key for a lat/lon coordinate.
func (g *SpatialHashGrid) getCellKey(lat, lon float64) CellKey {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}

	return CellKey{
		X: int(math.Floor(lon / g.cellSize)),
		Y: int(math.Floor(lat / g.cellSize)),
	}
}

// Insert adds an entry to the grid, replacing any existing entry with the
// same ID.
func (g *SpatialHashGrid) Insert(id string, lat, lon float64, timestamp time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.entries[id]; ok {
		g.removeFromCellUnlocked(existing)
	}

	cellKey := g.getCellKey(lat, lon)
	entry := &SpatialEntry{
		ID:        id,
		Lat:       lat,
		Lon:       lon,
		Timestamp: timestamp,
		cellKey:   cellKey,
	}

	c, exists := g.cells[cellKey]
	if !exists {
		c = &cell{entries: make([]*SpatialEntry, 0, 4)}
		g.cells[cellKey] = c
	}
	c.entries = append(c.entries, entry)
	g.entries[id] = entry
}

// Remove removes an entry by ID.
func (g *SpatialHashGrid) Remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.entries[id]
	if !exists {
		return false
	}

	g.removeFromCellUnlocked(entry)
	delete(g.entries, id)
	return true
}

// removeFromCellUnlocked removes an entry from its cell (caller holds lock).
func (g *SpatialHashGrid) removeFromCellUnlocked(entry *SpatialEntry) {
	c, exists := g.cells[entry.cellKey]
	if !exists {
		return
	}

	for i, e := range c.entries {
		if e.ID == entry.ID {
			c.entries[i] = c.entries[len(c.entries)-1]
			c.entries = c.entries[:len(c.entries)-1]
			break
		}
	}

	if len(c.entries) == 0 {
		delete(g.cells, entry.cellKey)
	}
}

// QueryNearbyWithinTime returns entries within radiusKm of the point that
// were stamped at or after since. This is the correlator's candidate
// search: tracks recently updated near an incoming detection.
func (g *SpatialHashGrid) QueryNearbyWithinTime(lat, lon, radiusKm float64, since time.Time) []*SpatialEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cellsToCheck := int(math.Ceil(radiusKm/111.0/g.cellSize)) + 1
	centerCell := g.getCellKey(lat, lon)

	var results []*SpatialEntry
	for dx := -cellsToCheck; dx <= cellsToCheck; dx++ {
		for dy := -cellsToCheck; dy <= cellsToCheck; dy++ {
			c, exists := g.cells[CellKey{X: centerCell.X + dx, Y: centerCell.Y + dy}]
			if !exists {
				continue
			}

			for _, entry := range c.entries {
				if entry.Timestamp.Before(since) {
					continue
				}
				if HaversineKm(lat, lon, entry.Lat, entry.Lon) <= radiusKm {
					entryCopy := *entry
					results = append(results, &entryCopy)
				}
			}
		}
	}

	return results
}

// Size returns the total number of entries.
func (g *SpatialHashGrid) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// CleanupBefore removes all entries older than the given time. Returns the
// number of entries removed.
func (g *SpatialHashGrid) CleanupBefore(before time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for id, entry := range g.entries {
		if entry.Timestamp.Before(before) {
			g.removeFromCellUnlocked(entry)
			delete(g.entries, id)
			removed++
		}
	}
	return removed
}

// HaversineKm calculates the great-circle distance between two lat/lon
// points in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

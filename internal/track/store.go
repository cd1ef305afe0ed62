// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package track holds the shared mutable state of all currently-known
// tracks. The store exclusively owns every Track value: mutations go
// through its API under a single coarse lock, and every read hands out
// deep copies, so neither the correlator, the scoring engine, nor the API
// ever sees a live reference.
package track

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/skysentry/internal/cache"
	"github.com/tomtom215/skysentry/internal/metrics"
	"github.com/tomtom215/skysentry/internal/models"
)

// ErrNotFound is returned when a track id is unknown.
var ErrNotFound = errors.New("track not found")

// gridCellKm sizes the spatial index cells. Correlation radii are a few
// kilometers, so small cells keep candidate sets tight.
const gridCellKm = 25

// entry pairs a track with its native-identifier index keys so eviction
// can clean the index without scanning it.
type entry struct {
	track *models.Track
	keys  []string
}

// Store is the track repository.
type Store struct {
	mu         sync.RWMutex
	tracks     map[string]*entry
	nativeIdx  map[string]string // "source\x00nativeID" -> trackID
	grid       *cache.SpatialHashGrid
	historyCap int
	ttl        time.Duration
}

// NewStore creates a store with the given per-track history capacity and
// staleness TTL.
func NewStore(historyCap int, ttl time.Duration) *Store {
	if historyCap <= 0 {
		historyCap = 100
	}
	return &Store{
		tracks:     make(map[string]*entry),
		nativeIdx:  make(map[string]string),
		grid:       cache.NewSpatialHashGrid(gridCellKm),
		historyCap: historyCap,
		ttl:        ttl,
	}
}

// nativeKey builds the identifier-index key for one source's native id.
func nativeKey(sourceID, nativeID string) string {
	return sourceID + "\x00" + nativeID
}

// Get returns a deep copy of the track with the given id.
func (s *Store) Get(id string) (*models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.tracks[id]
	if !ok {
		return nil, false
	}
	return e.track.Clone(), true
}

// All returns a point-in-time snapshot of every track as deep copies.
// The scoring engine iterates this snapshot without contending with
// ingestion.
func (s *Store) All() []*models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Track, 0, len(s.tracks))
	for _, e := range s.tracks {
		out = append(out, e.track.Clone())
	}
	return out
}

// Count returns the number of tracks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// FindByNativeID returns the track that already carries the given
// provider-native identifier from the given source.
func (s *Store) FindByNativeID(sourceID, nativeID string) (string, bool) {
	if nativeID == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nativeIdx[nativeKey(sourceID, nativeID)]
	return id, ok
}

// Candidates returns deep copies of tracks whose last position is within
// radiusKm of the given point and whose last update is at or after since.
func (s *Store) Candidates(lat, lon, radiusKm float64, since time.Time) []*models.Track {
	entries := s.grid.QueryNearbyWithinTime(lat, lon, radiusKm, since)
	if len(entries) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Track, 0, len(entries))
	for _, ge := range entries {
		if e, ok := s.tracks[ge.ID]; ok {
			out = append(out, e.track.Clone())
		}
	}
	return out
}

// Create makes a new track from an uncorrelated detection and returns its
// id.
func (s *Store) Create(det *models.Detection, cls models.Category) string {
	now := time.Now().UTC()
	t := &models.Track{
		ID:             uuid.NewString(),
		Sources:        []string{det.SourceID},
		Latest:         *det,
		Classification: cls,
		FirstSeen:      now,
		LastUpdated:    now,
	}

	e := &entry{track: t}

	s.mu.Lock()
	s.tracks[t.ID] = e
	if det.NativeID != "" {
		key := nativeKey(det.SourceID, det.NativeID)
		s.nativeIdx[key] = t.ID
		e.keys = append(e.keys, key)
	}
	count := len(s.tracks)
	s.mu.Unlock()

	s.grid.Insert(t.ID, det.Latitude, det.Longitude, now)
	metrics.TracksActive.Set(float64(count))
	return t.ID
}

// Update merges a correlated detection into an existing track: the
// previous latest detection is appended to history (ring semantics,
// oldest evicted at capacity), the new detection becomes latest
// field-by-field last-writer-wins, and the contributing source set grows
// by union.
func (s *Store) Update(id string, det *models.Detection, cls models.Category) error {
	now := time.Now().UTC()

	s.mu.Lock()
	e, ok := s.tracks[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}

	t := e.track
	t.History = append(t.History, t.Latest)
	if len(t.History) > s.historyCap {
		t.History = t.History[1:]
	}
	t.Latest = *det
	t.Classification = cls
	t.AddSource(det.SourceID)
	t.LastUpdated = now

	if det.NativeID != "" {
		key := nativeKey(det.SourceID, det.NativeID)
		if _, exists := s.nativeIdx[key]; !exists {
			s.nativeIdx[key] = id
			e.keys = append(e.keys, key)
		}
	}
	s.mu.Unlock()

	s.grid.Insert(id, det.Latitude, det.Longitude, now)
	return nil
}

// SetAssessment stores the latest threat assessment for a track. The
// assessment is cloned on the way in; the scoring engine keeps no live
// reference.
func (s *Store) SetAssessment(id string, a *models.ThreatAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tracks[id]
	if !ok {
		return ErrNotFound
	}
	e.track.Assessment = a.Clone()
	return nil
}

// EvictStale removes every track whose last update is older than the TTL
// relative to now. Returns the number of tracks evicted.
func (s *Store) EvictStale(now time.Time) int {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	var evicted []string
	for id, e := range s.tracks {
		if e.track.LastUpdated.Before(cutoff) {
			for _, key := range e.keys {
				delete(s.nativeIdx, key)
			}
			delete(s.tracks, id)
			evicted = append(evicted, id)
		}
	}
	count := len(s.tracks)
	s.mu.Unlock()

	for _, id := range evicted {
		s.grid.Remove(id)
	}

	if len(evicted) > 0 {
		metrics.TracksEvicted.Add(float64(len(evicted)))
		metrics.TracksActive.Set(float64(count))
	}
	return len(evicted)
}

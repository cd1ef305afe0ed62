// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package api serves the read-only HTTP surface: track snapshots, source
// status, recent alerts, health, and Prometheus metrics. Every response
// body is built from deep copies handed out by the owning components; no
// internal lock or mutable reference crosses this boundary.
package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/skysentry/internal/alert"
	"github.com/tomtom215/skysentry/internal/logging"
	"github.com/tomtom215/skysentry/internal/models"
	"github.com/tomtom215/skysentry/internal/track"
)

// SourceStatusProvider exposes one source's externally visible state.
// Implemented by feed.Poller.
type SourceStatusProvider interface {
	Status() models.SourceStatus
}

// Handler serves the API endpoints.
type Handler struct {
	store     *track.Store
	sources   []SourceStatusProvider
	recorder  *alert.Recorder
	startedAt time.Time
}

// NewHandler creates the API handler.
func NewHandler(store *track.Store, sources []SourceStatusProvider, recorder *alert.Recorder) *Handler {
	return &Handler{
		store:     store,
		sources:   sources,
		recorder:  recorder,
		startedAt: time.Now().UTC(),
	}
}

// Tracks serves GET /api/v1/tracks: the current set of tracks with
// classification and latest assessment.
func (h *Handler) Tracks(w http.ResponseWriter, r *http.Request) {
	tracks := h.store.All()
	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].LastUpdated.After(tracks[j].LastUpdated)
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(tracks),
		"tracks": tracks,
	})
}

// TrackByID serves GET /api/v1/tracks/{id}.
func (h *Handler) TrackByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Sources serves GET /api/v1/sources: per-source health and counters.
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	statuses := make([]models.SourceStatus, 0, len(h.sources))
	for _, s := range h.sources {
		statuses = append(statuses, s.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(statuses),
		"sources": statuses,
	})
}

// RecentAlerts serves GET /api/v1/alerts/recent, newest first.
func (h *Handler) RecentAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.recorder.Recent()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// Health serves GET /health. The process is healthy as long as it is
// serving; individual offline sources degrade coverage, not health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	online := 0
	for _, s := range h.sources {
		if s.Status().Health == models.HealthOnline {
			online++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"tracks":         h.store.Count(),
		"sources_online": online,
		"sources_total":  len(h.sources),
	})
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("write response")
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

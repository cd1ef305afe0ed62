// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package alert

import (
	"context"
	"sync"

	"github.com/tomtom215/skysentry/internal/logging"
	"github.com/tomtom215/skysentry/internal/models"
)

// Recorder keeps a bounded in-memory ring of recent alerts for the read
// API. It runs as a suture service subscribed to the bus.
type Recorder struct {
	bus *Bus

	mu     sync.RWMutex
	ring   []models.Alert
	next   int
	filled bool
}

// NewRecorder creates a recorder keeping the last capacity alerts.
func NewRecorder(bus *Bus, capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 100
	}
	return &Recorder{
		bus:  bus,
		ring: make([]models.Alert, capacity),
	}
}

// String names the service in supervisor logs.
func (r *Recorder) String() string {
	return "alert-recorder"
}

// Serve implements suture.Service and consumes alerts until the context
// is canceled.
func (r *Recorder) Serve(ctx context.Context) error {
	msgs, err := r.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	logging.Info().Int("capacity", len(r.ring)).Msg("alert recorder started")

	for msg := range msgs {
		alert, err := DecodeAlert(msg)
		msg.Ack()
		if err != nil {
			logging.Error().Err(err).Msg("undecodable alert on bus")
			continue
		}
		r.record(alert)
	}

	logging.Info().Msg("alert recorder stopped")
	return ctx.Err()
}

// record appends one alert, overwriting the oldest at capacity.
func (r *Recorder) record(alert models.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ring[r.next] = alert
	r.next++
	if r.next == len(r.ring) {
		r.next = 0
		r.filled = true
	}
}

// Recent returns the retained alerts, newest first.
func (r *Recorder) Recent() []models.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := r.next
	if r.filled {
		size = len(r.ring)
	}

	out := make([]models.Alert, 0, size)
	for i := 1; i <= size; i++ {
		idx := (r.next - i + len(r.ring)) % len(r.ring)
		out = append(out, r.ring[idx])
	}
	return out
}

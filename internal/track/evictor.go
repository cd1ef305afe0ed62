// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package track

import (
	"context"
	"time"

	"github.com/tomtom215/skysentry/internal/logging"
)

// Evictor periodically sweeps stale tracks out of the store. It runs as
// a suture service so a panic in a sweep restarts the loop without
// touching ingestion.
type Evictor struct {
	store    *Store
	interval time.Duration
}

// NewEvictor creates the sweeper for the given store.
func NewEvictor(store *Store, interval time.Duration) *Evictor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Evictor{store: store, interval: interval}
}

// String names the service in supervisor logs.
func (e *Evictor) String() string {
	return "track-evictor"
}

// Serve implements suture.Service and sweeps on the configured interval
// until the context is canceled.
func (e *Evictor) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", e.interval).
		Dur("ttl", e.store.ttl).
		Msg("track evictor started")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("track evictor stopped")
			return ctx.Err()
		case now := <-ticker.C:
			if n := e.store.EvictStale(now.UTC()); n > 0 {
				logging.Debug().
					Int("evicted", n).
					Int("remaining", e.store.Count()).
					Msg("stale tracks evicted")
			}
		}
	}
}

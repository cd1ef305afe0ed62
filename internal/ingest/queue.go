// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package ingest connects the source adapters to the correlator: a
// bounded queue fed by all pollers and a single consumer that normalizes
// and correlates records. Under pressure the queue drops its oldest
// pending record; ingestion favors freshness over completeness.
package ingest

import (
	"context"
	"sync"

	"github.com/tomtom215/skysentry/internal/metrics"
	"github.com/tomtom215/skysentry/internal/models"
)

// Queue is a bounded FIFO of raw records with drop-oldest overflow
// semantics. Push never blocks a poller.
type Queue struct {
	mu      sync.Mutex
	items   chan models.RawRecord
	dropped int64
}

// NewQueue creates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{items: make(chan models.RawRecord, capacity)}
}

// Push enqueues a record. If the queue is full the oldest pending record
// is discarded first and the backpressure counter incremented.
func (q *Queue) Push(rec models.RawRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case q.items <- rec:
	default:
		select {
		case <-q.items:
			q.dropped++
			metrics.IngestQueueDrops.Inc()
		default:
		}
		// Capacity freed above; a second failure is impossible while the
		// lock serializes pushers, but don't block if it happens.
		select {
		case q.items <- rec:
		default:
		}
	}
	metrics.IngestQueueDepth.Set(float64(len(q.items)))
}

// Pop blocks until a record is available or the context is canceled.
func (q *Queue) Pop(ctx context.Context) (models.RawRecord, error) {
	select {
	case rec := <-q.items:
		metrics.IngestQueueDepth.Set(float64(len(q.items)))
		return rec, nil
	case <-ctx.Done():
		return models.RawRecord{}, ctx.Err()
	}
}

// Len returns the number of pending records.
func (q *Queue) Len() int {
	return len(q.items)
}

// Dropped returns the backpressure counter.
func (q *Queue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package ingest

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/tomtom215/skysentry/internal/logging"
	"github.com/tomtom215/skysentry/internal/metrics"
	"github.com/tomtom215/skysentry/internal/models"
	"github.com/tomtom215/skysentry/internal/normalize"
)

// Correlator assigns detections to tracks. Implemented by
// correlate.Correlator.
type Correlator interface {
	Correlate(det *models.Detection) (trackID string, created bool)
}

// Pipeline is the single ingestion consumer: it pops raw records off the
// queue, normalizes them, and hands detections to the correlator. It runs
// as a suture service. A malformed record is dropped and counted; it
// never affects other records from the same poll.
type Pipeline struct {
	queue      *Queue
	correlator Correlator
	limiter    *rate.Limiter // nil when throughput is uncapped
}

// NewPipeline creates the ingestion consumer. maxRecordsPerSecond of 0
// leaves throughput uncapped.
func NewPipeline(queue *Queue, correlator Correlator, maxRecordsPerSecond int) *Pipeline {
	var limiter *rate.Limiter
	if maxRecordsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(maxRecordsPerSecond), maxRecordsPerSecond)
	}
	return &Pipeline{
		queue:      queue,
		correlator: correlator,
		limiter:    limiter,
	}
}

// String names the service in supervisor logs.
func (p *Pipeline) String() string {
	return "ingest-pipeline"
}

// Serve implements suture.Service and blocks until the context is
// canceled.
func (p *Pipeline) Serve(ctx context.Context) error {
	logging.Info().Msg("ingest pipeline started")

	for {
		rec, err := p.queue.Pop(ctx)
		if err != nil {
			logging.Info().Msg("ingest pipeline stopped")
			return err
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		p.process(rec)
	}
}

// process normalizes and correlates one record.
func (p *Pipeline) process(rec models.RawRecord) {
	det, err := normalize.Normalize(rec)
	if err != nil {
		metrics.RecordsMalformed.WithLabelValues(rec.SourceID).Inc()
		// Position-less records are routine (aircraft without a fix yet);
		// anything else is worth seeing at debug level.
		if !errors.Is(err, normalize.ErrMissingPosition) {
			logging.Debug().
				Err(err).
				Str("source", rec.SourceID).
				Msg("dropped malformed record")
		}
		return
	}

	metrics.RecordsNormalized.WithLabelValues(rec.SourceID).Inc()
	p.correlator.Correlate(det)
}

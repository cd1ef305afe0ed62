// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package metrics provides Prometheus instrumentation for the ingestion
// pipeline, the track store, and the threat scoring engine. Collectors are
// registered via promauto and served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed Metrics
	FeedPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_polls_total",
			Help: "Total number of feed polls by outcome",
		},
		[]string{"source", "outcome"}, // "success", "error", "skipped"
	)

	FeedPollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_poll_duration_seconds",
			Help:    "Duration of feed polls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	FeedHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_health",
			Help: "Feed health state (0=online, 1=degraded, 2=offline)",
		},
		[]string{"source"},
	)

	FeedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_records_total",
			Help: "Total number of raw records received per source",
		},
		[]string{"source"},
	)

	// Ingestion Metrics
	IngestQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_queue_depth",
			Help: "Current number of raw records pending in the ingest queue",
		},
	)

	IngestQueueDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_queue_drops_total",
			Help: "Total number of records dropped because the ingest queue was full",
		},
	)

	RecordsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_normalized_total",
			Help: "Total number of records normalized into detections",
		},
		[]string{"source"},
	)

	RecordsMalformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_malformed_total",
			Help: "Total number of records dropped during normalization",
		},
		[]string{"source"},
	)

	// Correlation Metrics
	Correlations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "correlations_total",
			Help: "Total number of correlation decisions by outcome",
		},
		[]string{"outcome"}, // "native_id", "cross_source", "created"
	)

	CorrelationAmbiguities = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "correlation_ambiguities_total",
			Help: "Total number of detections with more than one plausible track match",
		},
	)

	// Track Store Metrics
	TracksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracks_active",
			Help: "Current number of tracks in the store",
		},
	)

	TracksEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracks_evicted_total",
			Help: "Total number of tracks evicted for staleness",
		},
	)

	// Threat Scoring Metrics
	ScoringPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_pass_duration_seconds",
			Help:    "Duration of threat scoring passes in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	ScoringPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_passes_total",
			Help: "Total number of completed scoring passes",
		},
	)

	AlertsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_emitted_total",
			Help: "Total number of alerts emitted by threat level",
		},
		[]string{"level"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// healthValue maps a health state name to its gauge value.
var healthValue = map[string]float64{
	"online":   0,
	"degraded": 1,
	"offline":  2,
}

// SetFeedHealth records the health state of a source on the health gauge.
func SetFeedHealth(source, health string) {
	if v, ok := healthValue[health]; ok {
		FeedHealth.WithLabelValues(source).Set(v)
	}
}

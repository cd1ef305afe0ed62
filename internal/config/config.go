// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package config loads and validates SkySentry configuration via Koanf v2
// with layered sources: built-in defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the SkySentry server.
type Config struct {
	Sources     []SourceConfig    `koanf:"sources" validate:"min=1,dive"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Tracks      TrackStoreConfig  `koanf:"tracks"`
	Correlation CorrelationConfig `koanf:"correlation"`
	Threat      ThreatConfig      `koanf:"threat"`
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// SourceConfig describes one external position feed.
type SourceConfig struct {
	// Name identifies the source; it is attached to every record and used
	// as the metric label.
	Name string `koanf:"name" validate:"required"`

	// Provider selects the normalization for this feed: opensky, adsb, or
	// dump1090.
	Provider string `koanf:"provider" validate:"required,oneof=opensky adsb dump1090"`

	// Endpoint is the provider-specific HTTP GET URL.
	Endpoint string `koanf:"endpoint" validate:"required,url"`

	// PollInterval is the normal polling cadence.
	PollInterval time.Duration `koanf:"poll_interval" validate:"min=1s"`

	// Timeout bounds one HTTP poll. A timed-out poll counts as a failure.
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	// MaxRequestsPerMinute caps outbound requests; a poll that would
	// exceed it is skipped without error.
	MaxRequestsPerMinute int `koanf:"max_requests_per_minute" validate:"min=1"`

	// MaxRetries is the number of consecutive failures tolerated while
	// degraded before the source goes offline.
	MaxRetries int `koanf:"max_retries" validate:"min=1"`

	// BackoffBase and BackoffMax bound the exponential retry schedule for
	// an offline source (base × 2^attempt, capped at max).
	BackoffBase time.Duration `koanf:"backoff_base" validate:"min=1s"`
	BackoffMax  time.Duration `koanf:"backoff_max"`
}

// IngestConfig configures the queue between adapters and the correlator.
type IngestConfig struct {
	// QueueCapacity bounds the raw-record queue. When full, the oldest
	// pending record is dropped (ingestion favors freshness).
	QueueCapacity int `koanf:"queue_capacity" validate:"min=1"`

	// MaxRecordsPerSecond optionally caps pipeline throughput.
	// 0 disables the cap.
	MaxRecordsPerSecond int `koanf:"max_records_per_second" validate:"min=0"`
}

// TrackStoreConfig configures track retention.
type TrackStoreConfig struct {
	// TTL is the staleness window: a track not updated for longer is
	// removed by the next eviction sweep.
	TTL time.Duration `koanf:"ttl" validate:"min=10s"`

	// EvictionInterval is the sweep cadence, independent of ingestion.
	EvictionInterval time.Duration `koanf:"eviction_interval" validate:"min=1s"`

	// HistoryCap bounds per-track detection history (ring semantics).
	HistoryCap int `koanf:"history_cap" validate:"min=1"`
}

// CorrelationConfig configures cross-source track matching.
type CorrelationConfig struct {
	// Window is how recently a track must have been updated to be a
	// cross-source match candidate.
	Window time.Duration `koanf:"window" validate:"min=1s"`

	// SlackKm is the fixed margin added to the speed-derived maximum
	// plausible displacement.
	SlackKm float64 `koanf:"slack_km" validate:"min=0"`
}

// IndicatorConfig enables one scoring indicator with its weight.
type IndicatorConfig struct {
	Name    string  `koanf:"name" validate:"required"`
	Weight  float64 `koanf:"weight" validate:"min=0"`
	Enabled bool    `koanf:"enabled"`
}

// LatLon is one polygon vertex.
type LatLon struct {
	Lat float64 `koanf:"lat" validate:"min=-90,max=90"`
	Lon float64 `koanf:"lon" validate:"min=-180,max=180"`
}

// ZoneConfig is one sensitive-zone polygon with its contextual weight.
type ZoneConfig struct {
	Name    string   `koanf:"name" validate:"required"`
	Weight  float64  `koanf:"weight" validate:"min=0"`
	Polygon []LatLon `koanf:"polygon" validate:"min=3,dive"`
}

// HoursConfig is the suspicious-hours window in local hours [Start, End).
// A window wrapping midnight (e.g. 22 to 5) is allowed.
type HoursConfig struct {
	Start  int     `koanf:"start" validate:"min=0,max=23"`
	End    int     `koanf:"end" validate:"min=0,max=23"`
	Weight float64 `koanf:"weight" validate:"min=0"`
}

// BreakpointsConfig maps scores to levels: score 0 is none, then
// low < Medium ≤ medium < High ≤ high < Critical ≤ critical.
type BreakpointsConfig struct {
	Medium   float64 `koanf:"medium" validate:"gt=0"`
	High     float64 `koanf:"high" validate:"gt=0"`
	Critical float64 `koanf:"critical" validate:"gt=0"`
}

// ThreatConfig configures the scoring engine.
type ThreatConfig struct {
	// Interval is the scoring cadence, independent of ingestion.
	Interval time.Duration `koanf:"interval" validate:"min=1s"`

	// MaxScore clamps the summed indicator weights.
	MaxScore float64 `koanf:"max_score" validate:"gt=0"`

	Breakpoints     BreakpointsConfig `koanf:"breakpoints"`
	Indicators      []IndicatorConfig `koanf:"indicators" validate:"dive"`
	Zones           []ZoneConfig      `koanf:"zones" validate:"dive"`
	SuspiciousHours HoursConfig       `koanf:"suspicious_hours"`

	// Webhook optionally forwards alerts to an external endpoint.
	Webhook WebhookConfig `koanf:"webhook"`
}

// WebhookConfig configures the outbound alert webhook notifier.
type WebhookConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url" validate:"omitempty,url"`
}

// ServerConfig configures the HTTP read API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"min=1s"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Sources have
// no default; at least one must come from file or environment.
func defaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			QueueCapacity:       4096,
			MaxRecordsPerSecond: 0,
		},
		Tracks: TrackStoreConfig{
			TTL:              5 * time.Minute,
			EvictionInterval: 30 * time.Second,
			HistoryCap:       100,
		},
		Correlation: CorrelationConfig{
			Window:  15 * time.Second,
			SlackKm: 2.0,
		},
		Threat: ThreatConfig{
			Interval: 10 * time.Second,
			MaxScore: 100,
			Breakpoints: BreakpointsConfig{
				Medium:   10,
				High:     30,
				Critical: 60,
			},
			Indicators: []IndicatorConfig{
				{Name: "military_activity", Weight: 3, Enabled: true},
				{Name: "no_identity", Weight: 2, Enabled: true},
				{Name: "emergency_squawk", Weight: 5, Enabled: true},
				{Name: "low_and_slow", Weight: 2, Enabled: true},
				{Name: "rapid_descent", Weight: 2, Enabled: true},
				{Name: "loitering", Weight: 2, Enabled: true},
			},
			SuspiciousHours: HoursConfig{
				Start:  1,
				End:    5,
				Weight: 1,
			},
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8424,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// applySourceDefaults fills zero values on a source definition. Sources
// come entirely from file/env, so struct-provider defaults don't reach
// them.
func applySourceDefaults(s *SourceConfig) {
	if s.PollInterval == 0 {
		s.PollInterval = 10 * time.Second
	}
	if s.Timeout == 0 {
		s.Timeout = 10 * time.Second
	}
	if s.MaxRequestsPerMinute == 0 {
		s.MaxRequestsPerMinute = 30
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = 5
	}
	if s.BackoffBase == 0 {
		s.BackoffBase = 5 * time.Second
	}
	if s.BackoffMax == 0 {
		s.BackoffMax = 5 * time.Minute
	}
}

// Validate checks the configuration for structural and cross-field
// consistency.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		s := &c.Sources[i]
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.BackoffMax < s.BackoffBase {
			return fmt.Errorf("source %q: backoff_max %v below backoff_base %v", s.Name, s.BackoffMax, s.BackoffBase)
		}
	}

	bp := c.Threat.Breakpoints
	if !(bp.Medium < bp.High && bp.High < bp.Critical) {
		return fmt.Errorf("threat breakpoints must be strictly increasing: medium=%v high=%v critical=%v",
			bp.Medium, bp.High, bp.Critical)
	}
	if bp.Critical > c.Threat.MaxScore {
		return fmt.Errorf("critical breakpoint %v above max_score %v", bp.Critical, c.Threat.MaxScore)
	}

	if c.Threat.Webhook.Enabled && c.Threat.Webhook.URL == "" {
		return fmt.Errorf("threat webhook enabled without url")
	}

	return nil
}

// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Command server runs the SkySentry daemon: feed pollers, the ingestion
// pipeline, the track store with eviction, the threat scoring engine, the
// alert stream, and the read API, all under one supervision tree.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/skysentry/internal/alert"
	"github.com/tomtom215/skysentry/internal/api"
	"github.com/tomtom215/skysentry/internal/config"
	"github.com/tomtom215/skysentry/internal/correlate"
	"github.com/tomtom215/skysentry/internal/feed"
	"github.com/tomtom215/skysentry/internal/ingest"
	"github.com/tomtom215/skysentry/internal/logging"
	"github.com/tomtom215/skysentry/internal/supervisor"
	"github.com/tomtom215/skysentry/internal/threat"
	"github.com/tomtom215/skysentry/internal/track"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("configuration load failed")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Int("sources", len(cfg.Sources)).
		Msg("skysentry starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared state and pipeline wiring.
	store := track.NewStore(cfg.Tracks.HistoryCap, cfg.Tracks.TTL)
	correlator := correlate.New(store, cfg.Correlation)
	queue := ingest.NewQueue(cfg.Ingest.QueueCapacity)
	pipeline := ingest.NewPipeline(queue, correlator, cfg.Ingest.MaxRecordsPerSecond)

	bus := alert.NewBus()
	defer bus.Close()
	recorder := alert.NewRecorder(bus, 100)

	engine, err := threat.NewEngine(store, cfg.Threat, bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("threat engine configuration invalid")
	}

	// One poller per configured source.
	pollers := make([]*feed.Poller, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		adapter, err := feed.NewHTTPAdapter(src)
		if err != nil {
			logging.Fatal().Err(err).Str("source", src.Name).Msg("source configuration invalid")
		}
		pollers = append(pollers, feed.NewPoller(adapter, src, queue))
	}

	// Read API.
	statusProviders := make([]api.SourceStatusProvider, len(pollers))
	for i, p := range pollers {
		statusProviders[i] = p
	}
	handler := api.NewHandler(store, statusProviders, recorder)
	server := api.NewServer(cfg.Server, api.NewRouter(handler, cfg.Server))

	// Supervision tree.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	for _, p := range pollers {
		tree.AddFeedService(p)
	}
	tree.AddPipelineService(pipeline)
	tree.AddPipelineService(track.NewEvictor(store, cfg.Tracks.EvictionInterval))
	tree.AddPipelineService(engine)
	tree.AddPipelineService(recorder)
	if cfg.Threat.Webhook.Enabled {
		tree.AddPipelineService(alert.NewWebhookNotifier(bus, cfg.Threat.Webhook))
	}
	tree.AddAPIService(server)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("service failed to stop within timeout")
	}

	logging.Info().Msg("skysentry stopped")
}

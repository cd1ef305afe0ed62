// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skysentry/internal/models"
)

type countingCorrelator struct {
	mu         sync.Mutex
	detections []*models.Detection
}

func (c *countingCorrelator) Correlate(det *models.Detection) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detections = append(c.detections, det)
	return "track-1", len(c.detections) == 1
}

func (c *countingCorrelator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.detections)
}

func adsbRecord(payload string) models.RawRecord {
	return models.RawRecord{
		SourceID:   "src-a",
		Provider:   "adsb",
		Payload:    json.RawMessage(payload),
		ReceivedAt: time.Now().UTC(),
	}
}

func TestPipelineProcessValidRecord(t *testing.T) {
	correlator := &countingCorrelator{}
	p := NewPipeline(NewQueue(16), correlator, 0)

	p.process(adsbRecord(`{"hex":"abc123","lat":35.0,"lon":51.0,"gs":250}`))

	if correlator.count() != 1 {
		t.Fatalf("correlator received %d detections, want 1", correlator.count())
	}
	det := correlator.detections[0]
	if det.NativeID != "abc123" || det.SpeedKts != 250 {
		t.Errorf("detection = %+v, want normalized fields", det)
	}
}

func TestPipelineDropsMalformedRecord(t *testing.T) {
	correlator := &countingCorrelator{}
	p := NewPipeline(NewQueue(16), correlator, 0)

	// One record with no position, one unparseable. Neither reaches the
	// correlator and neither disturbs the valid record after them.
	p.process(adsbRecord(`{"hex":"abc123","gs":250}`))
	p.process(adsbRecord(`{{{`))
	p.process(adsbRecord(`{"hex":"def456","lat":35.0,"lon":51.0}`))

	if correlator.count() != 1 {
		t.Errorf("correlator received %d detections, want only the valid one", correlator.count())
	}
}

func TestPipelineServeConsumesQueue(t *testing.T) {
	correlator := &countingCorrelator{}
	queue := NewQueue(16)
	p := NewPipeline(queue, correlator, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Serve(ctx)
	}()

	for i := 0; i < 3; i++ {
		queue.Push(adsbRecord(`{"hex":"abc123","lat":35.0,"lon":51.0}`))
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && correlator.count() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	if correlator.count() != 3 {
		t.Errorf("correlator received %d detections, want 3", correlator.count())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("pipeline did not stop on context cancel")
	}
}

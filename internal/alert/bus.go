// SkySentry - Airspace Monitoring and Threat Assessment
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysentry

// Package alert carries threat alerts from the scoring engine to their
// consumers over a Watermill in-process pub/sub. Delivery is
// at-most-once: consumers that are not subscribed when an alert is
// published never see it, and no consumer acknowledgment is required.
package alert

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/skysentry/internal/logging"
	"github.com/tomtom215/skysentry/internal/models"
)

// TopicAlerts is the alert stream topic.
const TopicAlerts = "threat.alerts"

// Bus is the in-process alert stream. It fans published alerts out to
// every active subscriber.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the alert bus.
func NewBus() *Bus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, newWatermillLogger())
	return &Bus{pubsub: pubsub}
}

// Publish emits one alert to all current subscribers.
func (b *Bus) Publish(alert models.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	msg := message.NewMessage(alert.ID, payload)
	return b.pubsub.Publish(TopicAlerts, msg)
}

// Subscribe returns the alert message stream. The channel closes when
// the context is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicAlerts)
}

// Close shuts the bus down, closing all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// DecodeAlert unmarshals an alert message payload.
func DecodeAlert(msg *message.Message) (models.Alert, error) {
	var alert models.Alert
	err := json.Unmarshal(msg.Payload, &alert)
	return alert, err
}

// wmLogger adapts the global zerolog logger to Watermill's logging
// contract.
type wmLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return wmLogger{}
}

func (l wmLogger) Error(msg string, err error, fields watermill.LogFields) {
	logging.Error().Err(err).Fields(map[string]any(l.fields.Add(fields))).Msg(msg)
}

func (l wmLogger) Info(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]any(l.fields.Add(fields))).Msg(msg)
}

func (l wmLogger) Debug(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]any(l.fields.Add(fields))).Msg(msg)
}

func (l wmLogger) Trace(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]any(l.fields.Add(fields))).Msg(msg)
}

func (l wmLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return wmLogger{fields: l.fields.Add(fields)}
}

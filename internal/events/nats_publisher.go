// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

//go:build nats

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/agoranet/agora/internal/metrics"
)

// NATSPublisher delivers feed generation events to a NATS JetStream subject.
// It handles reconnection and uses the event UUID as Nats-Msg-Id so redelivered
// publishes deduplicate server-side.
type NATSPublisher struct {
	publisher message.Publisher
	topic     string
	logger    watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewNATSPublisher creates a Watermill NATS publisher from the config.
func NewNATSPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*NATSPublisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &NATSPublisher{
		publisher: pub,
		topic:     topic,
		logger:    logger,
	}, nil
}

// PublishFeedGenerated serializes and publishes the event to the configured subject.
func (p *NATSPublisher) PublishFeedGenerated(ctx context.Context, event *FeedGeneratedEvent) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	data, err := SerializeEvent(event)
	if err != nil {
		metrics.AnalyticsEventsPublished.WithLabelValues("failed").Inc()
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set(natsgo.MsgIdHdr, event.EventID)
	msg.Metadata.Set("algorithm", event.Algorithm)
	msg.Metadata.Set("viewer_class", event.ViewerClass)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		metrics.AnalyticsEventsPublished.WithLabelValues("failed").Inc()
		return fmt.Errorf("publish event: %w", err)
	}

	metrics.AnalyticsEventsPublished.WithLabelValues("published").Inc()
	return nil
}

// Close gracefully shuts down the publisher.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}

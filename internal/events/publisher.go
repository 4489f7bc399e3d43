// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/agoranet/agora/internal/metrics"
)

// Publisher sends feed generation events to an analytics transport.
// Implementations must be safe for concurrent use and must never block
// the feed serving path for longer than the publish itself.
type Publisher interface {
	PublishFeedGenerated(ctx context.Context, event *FeedGeneratedEvent) error
	Close() error
}

// NopPublisher discards all events. Used when analytics is disabled.
type NopPublisher struct{}

// PublishFeedGenerated discards the event.
func (NopPublisher) PublishFeedGenerated(ctx context.Context, event *FeedGeneratedEvent) error {
	return nil
}

// Close is a no-op.
func (NopPublisher) Close() error { return nil }

// ChannelPublisher delivers events over an in-process Watermill channel.
// It backs single-process deployments where an analytics consumer runs in
// the same binary, and doubles as the transport for tests.
type ChannelPublisher struct {
	pubSub *gochannel.GoChannel
	topic  string
}

// NewChannelPublisher creates an in-process publisher for the given topic.
func NewChannelPublisher(topic string, logger watermill.LoggerAdapter) *ChannelPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &ChannelPublisher{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, logger),
		topic: topic,
	}
}

// PublishFeedGenerated serializes and publishes the event.
func (p *ChannelPublisher) PublishFeedGenerated(ctx context.Context, event *FeedGeneratedEvent) error {
	data, err := SerializeEvent(event)
	if err != nil {
		metrics.AnalyticsEventsPublished.WithLabelValues("failed").Inc()
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.SetContext(ctx)

	if err := p.pubSub.Publish(p.topic, msg); err != nil {
		metrics.AnalyticsEventsPublished.WithLabelValues("failed").Inc()
		return fmt.Errorf("publish event: %w", err)
	}

	metrics.AnalyticsEventsPublished.WithLabelValues("published").Inc()
	return nil
}

// Subscribe returns a channel of messages published to the configured topic.
// Consumers must ack each message.
func (p *ChannelPublisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return p.pubSub.Subscribe(ctx, p.topic)
}

// Close shuts down the underlying channel and all subscribers.
func (p *ChannelPublisher) Close() error {
	return p.pubSub.Close()
}

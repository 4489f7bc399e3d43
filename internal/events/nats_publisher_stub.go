// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

//go:build !nats

package events

import (
	"context"
	"fmt"
)

// NATSPublisher is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable the Watermill NATS publisher.
type NATSPublisher struct{}

// NewNATSPublisher returns an error when NATS support is not compiled in.
func NewNATSPublisher(cfg PublisherConfig, logger interface{}) (*NATSPublisher, error) {
	return nil, fmt.Errorf("NATS publisher not available: build with -tags=nats")
}

// PublishFeedGenerated is a stub that returns an error.
func (p *NATSPublisher) PublishFeedGenerated(ctx context.Context, event *FeedGeneratedEvent) error {
	return fmt.Errorf("NATS publisher not available: build with -tags=nats")
}

// Close is a no-op stub.
func (p *NATSPublisher) Close() error { return nil }

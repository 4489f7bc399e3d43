// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package supervisor

import (
	"context"
	"fmt"

	"github.com/agoranet/agora/internal/events"
)

// PublisherService ties an analytics publisher's lifetime to the
// supervision tree: it holds the publisher open while supervised and
// closes it on shutdown so buffered events are flushed exactly once.
type PublisherService struct {
	publisher events.Publisher
	name      string
}

// NewPublisherService wraps a publisher as a supervised service.
func NewPublisherService(publisher events.Publisher) *PublisherService {
	return &PublisherService{
		publisher: publisher,
		name:      "analytics-publisher",
	}
}

// Serve implements suture.Service. The publisher itself is passive, so
// this blocks until shutdown and then closes it.
func (p *PublisherService) Serve(ctx context.Context) error {
	<-ctx.Done()

	if err := p.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (p *PublisherService) String() string {
	return p.name
}

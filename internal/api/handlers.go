// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package api

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/agoranet/agora/internal/events"
	"github.com/agoranet/agora/internal/feed"
)

// eventPublishTimeout bounds the fire-and-forget analytics publish so a
// stalled transport never leaks goroutines indefinitely.
const eventPublishTimeout = 5 * time.Second

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	orchestrator *feed.Orchestrator
	db           *sql.DB
	publisher    events.Publisher
	logger       zerolog.Logger
	startTime    time.Time
}

// NewHandler creates a handler. db may be nil in tests; publisher may be
// nil when analytics is disabled.
func NewHandler(orchestrator *feed.Orchestrator, db *sql.DB, publisher events.Publisher, logger zerolog.Logger) *Handler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Handler{
		orchestrator: orchestrator,
		db:           db,
		publisher:    publisher,
		logger:       logger,
		startTime:    time.Now(),
	}
}

// publishFeedEvent emits a feed.generated analytics event in the background.
// The serving path never waits on the analytics transport.
func (h *Handler) publishFeedEvent(requestID string, viewerID int64, result *feed.FeedResult) {
	event := events.NewFeedGeneratedEvent()
	event.RequestID = requestID
	event.ViewerID = viewerID
	event.ViewerClass = "anonymous"
	if viewerID != 0 {
		event.ViewerClass = "authenticated"
	}
	event.Algorithm = result.Algorithm
	event.PostsReturned = len(result.Posts)
	event.SlotsRequested = result.Stats.TotalSlots
	event.SlotsUnfilled = result.Stats.TotalSlots - result.Stats.FilledSlots
	event.PoolCounts = result.Stats.PoolDistribution
	event.Degraded = result.Degraded
	event.DegradedReason = result.Error
	event.DurationMillis = result.LatencyMS
	event.GeneratedAt = result.GeneratedAt

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		defer cancel()

		if err := h.publisher.PublishFeedGenerated(ctx, event); err != nil {
			h.logger.Warn().Err(err).
				Str("request_id", requestID).
				Msg("Failed to publish feed.generated event")
		}
	}()
}

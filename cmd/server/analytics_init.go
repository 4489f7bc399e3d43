// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

//go:build nats

package main

import (
	"context"
	"fmt"

	"github.com/agoranet/agora/internal/config"
	"github.com/agoranet/agora/internal/events"
	"github.com/agoranet/agora/internal/logging"
	"github.com/agoranet/agora/internal/supervisor"
)

// AnalyticsComponents holds the NATS-backed analytics transport: an
// optional embedded server plus the feed.generated publisher.
type AnalyticsComponents struct {
	embedded  *events.EmbeddedServer
	publisher events.Publisher
}

// InitAnalytics starts the analytics transport if enabled.
// Returns nil when analytics is disabled.
func InitAnalytics(cfg *config.Config) (*AnalyticsComponents, error) {
	if !cfg.Analytics.Enabled {
		logging.Info().Msg("Analytics publishing disabled")
		return nil, nil
	}

	components := &AnalyticsComponents{}

	url := cfg.Analytics.URL
	if cfg.Analytics.EmbeddedServer {
		serverCfg := events.DefaultServerConfig()
		if cfg.Analytics.StoreDir != "" {
			serverCfg.StoreDir = cfg.Analytics.StoreDir
		}

		embedded, err := events.NewEmbeddedServer(serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		components.embedded = embedded
		url = embedded.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	pubCfg := events.DefaultPublisherConfig()
	pubCfg.URL = url
	if cfg.Analytics.Topic != "" {
		pubCfg.Topic = cfg.Analytics.Topic
	}

	publisher, err := events.NewNATSPublisher(pubCfg, events.NewZerologAdapter(logging.Logger()))
	if err != nil {
		if components.embedded != nil {
			_ = components.embedded.Shutdown(context.Background())
		}
		return nil, fmt.Errorf("create analytics publisher: %w", err)
	}
	components.publisher = publisher

	logging.Info().Str("topic", pubCfg.Topic).Msg("Analytics publisher connected")
	return components, nil
}

// Publisher returns the feed.generated publisher, or nil when analytics
// is disabled.
func (c *AnalyticsComponents) Publisher() events.Publisher {
	if c == nil {
		return nil
	}
	return c.publisher
}

// Shutdown stops the embedded server after the publisher has closed.
func (c *AnalyticsComponents) Shutdown(ctx context.Context) {
	if c == nil || c.embedded == nil {
		return
	}
	if err := c.embedded.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Embedded NATS server shutdown failed")
	}
}

// AddAnalyticsToSupervisor ties the publisher lifecycle to the tree so
// it closes during supervised shutdown.
func AddAnalyticsToSupervisor(tree *supervisor.Tree, c *AnalyticsComponents) {
	if c == nil || c.publisher == nil {
		return
	}
	tree.AddAnalyticsService(supervisor.NewPublisherService(c.publisher))
	logging.Info().Msg("Analytics publisher added to supervisor tree")
}

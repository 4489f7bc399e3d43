// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

//go:build !nats

package main

import (
	"context"

	"github.com/agoranet/agora/internal/config"
	"github.com/agoranet/agora/internal/events"
	"github.com/agoranet/agora/internal/logging"
	"github.com/agoranet/agora/internal/supervisor"
)

// AnalyticsComponents is a stub when NATS support is not compiled in.
type AnalyticsComponents struct{}

// InitAnalytics warns when analytics is requested without NATS support.
func InitAnalytics(cfg *config.Config) (*AnalyticsComponents, error) {
	if cfg.Analytics.Enabled {
		logging.Warn().Msg("ANALYTICS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// Publisher returns nil; the API layer falls back to a no-op publisher.
func (c *AnalyticsComponents) Publisher() events.Publisher { return nil }

// Shutdown is a no-op stub.
func (c *AnalyticsComponents) Shutdown(ctx context.Context) {}

// AddAnalyticsToSupervisor is a no-op stub.
func AddAnalyticsToSupervisor(tree *supervisor.Tree, c *AnalyticsComponents) {}

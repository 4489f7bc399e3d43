// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

// Package metrics provides Prometheus instrumentation for the feed
// service. All collectors are registered on the default registry via
// promauto and exposed on /metrics by the API router.
package metrics

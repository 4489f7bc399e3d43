// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the payload for health endpoints.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Version is the reported application version.
// Overridden at build time with -ldflags "-X ...api.Version=v1.2.3".
var Version = "dev"

// HealthLive handles GET /api/v1/health/live.
// It reports process liveness only and never touches collaborators.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready.
// Readiness requires database connectivity; a failed ping returns 503 so
// load balancers stop routing traffic here.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.db == nil || h.db.PingContext(r.Context()) != nil {
		rw.ServiceUnavailable("database not reachable")
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}

// Health handles GET /api/v1/health with a full status report.
// Degraded status still returns 200; clients inspect the payload.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbConnected := h.db != nil && h.db.PingContext(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	rw.Success(HealthStatus{
		Status:            status,
		Version:           Version,
		DatabaseConnected: dbConnected,
		UptimeSeconds:     time.Since(h.startTime).Seconds(),
	})
}

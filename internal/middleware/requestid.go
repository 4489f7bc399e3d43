// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

// Package middleware provides HTTP middleware shared across the API:
// request IDs, Prometheus instrumentation, and viewer identity.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/agoranet/agora/internal/logging"
)

type contextKey string

// RequestIDKey is the context key holding the request ID.
const RequestIDKey contextKey = "request_id"

// RequestID assigns each request a unique ID, honoring an upstream
// X-Request-ID header when present. The ID is echoed on the response
// and propagated through the context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from context, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

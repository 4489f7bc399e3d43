// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package middleware

import (
	"net/http"
	"time"

	"github.com/agoranet/agora/internal/metrics"
)

// PrometheusMetrics records request count, duration and in-flight gauge
// for every API request.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.APIActiveRequests.Inc()
		defer metrics.APIActiveRequests.Dec()

		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		metrics.ObserveAPIRequest(r.Method, r.URL.Path, wrapper.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

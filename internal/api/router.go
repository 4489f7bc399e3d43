// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agoranet/agora/internal/auth"
	"github.com/agoranet/agora/internal/middleware"
)

// RouterConfig holds routing and middleware settings.
type RouterConfig struct {
	// CORSOrigins lists allowed origins. Empty means same-origin only.
	CORSOrigins []string

	// RateLimitRequests is the per-IP request budget per window for
	// feed endpoints. Zero disables rate limiting.
	RateLimitRequests int

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration
}

// Router wires handlers and middleware into an http.Handler.
type Router struct {
	handler  *Handler
	verifier *auth.TokenVerifier
	config   RouterConfig
}

// NewRouter creates a router. verifier may be nil, which makes every
// request anonymous.
func NewRouter(handler *Handler, verifier *auth.TokenVerifier, config RouterConfig) *Router {
	return &Router{
		handler:  handler,
		verifier: verifier,
		config:   config,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if len(router.config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   router.config.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health endpoints get a permissive per-IP limit so monitoring can
	// poll frequently without opening an abuse vector.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Feed endpoints. Anonymous requests are allowed; a Bearer token
	// identifies the viewer and unlocks the personalized pool.
	r.Route("/api/v1/feed", func(r chi.Router) {
		if router.config.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(router.config.RateLimitRequests, router.config.RateLimitWindow))
		}
		r.Use(middleware.PrometheusMetrics)
		r.Use(auth.Middleware(router.verifier))

		r.Get("/", router.handler.Feed)
		r.Post("/ranked", router.handler.RankedFeed)
	})

	// Prometheus scrape endpoint, outside the API envelope.
	r.Handle("/metrics", promhttp.Handler())

	return r
}

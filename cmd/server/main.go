// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

// Package main is the entry point for the Agora feed engine server.
//
// Agora serves ranked and slot-rolled feed pages for a civic social
// network. Candidates come from three pools (random, trending,
// personalized), get filtered by audience visibility, and are selected
// stochastically so repeated requests surface different posts.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, config file, and
//     environment variables (Koanf v2)
//  2. Database: PostgreSQL connection pool via pgx stdlib driver
//  3. Feed engine: pool providers, scorer, selectors, orchestrator
//  4. Analytics (optional): NATS JetStream publisher for feed.generated
//     events, requires build with -tags nats
//  5. HTTP server: Chi router under a Suture supervision tree
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults. Common variables:
//
//   - HTTP_PORT: listen port (default 8372)
//   - DATABASE_DSN: PostgreSQL DSN
//   - JWT_SECRET: enables authenticated viewers; empty means all
//     requests are anonymous
//   - ANALYTICS_ENABLED: publish feed.generated events
//   - LOG_LEVEL: zerolog level (debug, info, warn, error)
//
// # Build Tags
//
//	go build ./cmd/server              # core feed engine
//	go build -tags nats ./cmd/server   # enable NATS analytics publishing
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP
// server drains in-flight requests, the analytics publisher flushes,
// and the database pool closes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agoranet/agora/internal/api"
	"github.com/agoranet/agora/internal/auth"
	"github.com/agoranet/agora/internal/config"
	"github.com/agoranet/agora/internal/feed"
	"github.com/agoranet/agora/internal/logging"
	"github.com/agoranet/agora/internal/store"
	"github.com/agoranet/agora/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Agora feed engine")
	logging.Info().
		Int("port", cfg.Server.Port).
		Bool("analytics", cfg.Analytics.Enabled).
		Bool("auth", cfg.Auth.JWTSecret != "").
		Msg("Configuration loaded")

	// Hot-reload the log level when the config file changes. Other
	// settings require a restart.
	if path := config.SourceFile(); path != "" {
		err := config.WatchConfigFile(path, func() {
			reloaded, err := config.Load()
			if err != nil {
				logging.Warn().Err(err).Msg("Config reload failed, keeping current settings")
				return
			}
			logging.SetLevelString(reloaded.Logging.Level)
			logging.Info().Str("level", reloaded.Logging.Level).Msg("Log level reloaded from config file")
		})
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config file watching unavailable")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection pool.
	db, err := store.Open(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database connected")

	posts := store.New(db, store.Options{
		QueriesPerSecond: cfg.Database.QueriesPerSecond,
		BreakerEnabled:   cfg.Database.BreakerEnabled,
	}, logging.Logger())

	// Feed engine assembly. The default signal weights apply; only the
	// decay half-life is configurable.
	scorerCfg := feed.DefaultScorerConfig()
	if cfg.Feed.HalfLifeHours > 0 {
		scorerCfg.HalfLifeHours = cfg.Feed.HalfLifeHours
	}
	scorer := feed.NewEngagementScorer(scorerCfg)

	providers := []feed.Provider{
		feed.NewRandomProvider(posts, cfg.Feed.RandomLookback),
		feed.NewTrendingProvider(posts, scorer, cfg.Feed.TrendingLookback, cfg.Feed.TrendingTags),
		feed.NewPersonalizedProvider(posts, scorer, cfg.Feed.RandomLookback),
	}

	orchestrator, err := feed.NewOrchestrator(
		cfg.Feed.OrchestratorConfig(),
		providers,
		posts,
		posts,
		feed.NewCloudSelector(scorer, nil),
		feed.NewSlotRollSelector(nil),
		logging.Logger(),
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create feed orchestrator")
	}

	// Viewer identity. An empty secret disables authenticated viewers.
	var verifier *auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier, err = auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize token verifier")
		}
		logging.Info().Msg("JWT viewer authentication enabled")
	} else {
		logging.Warn().Msg("JWT_SECRET not set, all requests are anonymous")
	}

	// Supervision tree. The slog bridge routes suture events through zerolog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	// Analytics publishing (optional, requires build with -tags nats).
	analytics, err := InitAnalytics(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize analytics")
	}
	AddAnalyticsToSupervisor(tree, analytics)

	handler := api.NewHandler(orchestrator, db, analytics.Publisher(), logging.Logger())
	router := api.NewRouter(handler, verifier, api.RouterConfig{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Shut down on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	analytics.Shutdown(shutdownCtx)

	logging.Info().Msg("Application stopped gracefully")
}

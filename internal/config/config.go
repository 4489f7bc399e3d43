// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

// Package config defines the Agora configuration model and its layered
// loader. Precedence is ENV > config file > built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/agoranet/agora/internal/feed"
)

// Config is the root configuration for the feed engine service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Feed      FeedConfig      `koanf:"feed"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Auth      AuthConfig      `koanf:"auth"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`

	// RateLimitReqs is the per-IP request budget per RateLimitWindow.
	// Zero disables rate limiting.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`

	// QueriesPerSecond caps store query throughput. Zero disables the
	// limiter.
	QueriesPerSecond float64 `koanf:"queries_per_second"`

	// BreakerEnabled wraps store queries in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// FeedConfig holds the feed engine tunables.
type FeedConfig struct {
	PoolTimeout     time.Duration `koanf:"pool_timeout"`
	OverfetchFactor int           `koanf:"overfetch_factor"`
	DefaultSlots    int           `koanf:"default_slots"`
	MaxRankedCount  int           `koanf:"max_ranked_count"`

	RandomLookback   time.Duration `koanf:"random_lookback"`
	TrendingLookback time.Duration `koanf:"trending_lookback"`

	// TrendingTags restricts the trending pool to broadly-public topic
	// categories. Empty means no restriction.
	TrendingTags []string `koanf:"trending_tags"`

	// HalfLifeHours is the engagement score decay half-life.
	HalfLifeHours float64 `koanf:"half_life_hours"`

	RecencyWeight      float64 `koanf:"recency_weight"`
	RelationshipWeight float64 `koanf:"relationship_weight"`
	EngagementWeight   float64 `koanf:"engagement_weight"`
	ReputationWeight   float64 `koanf:"reputation_weight"`
	DiversityWeight    float64 `koanf:"diversity_weight"`
}

// AnalyticsConfig holds feed.generated event publishing settings.
type AnalyticsConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server instead of
	// connecting to URL.
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`

	Topic string `koanf:"topic"`
}

// AuthConfig holds JWT verification settings for viewer identity.
type AuthConfig struct {
	// JWTSecret signs and verifies viewer tokens. Empty disables
	// authenticated viewers; all requests are treated as anonymous.
	JWTSecret string `koanf:"jwt_secret"`

	// Issuer, when set, is required to match the token's iss claim.
	Issuer string `koanf:"issuer"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// OrchestratorConfig maps the feed section onto the engine's config.
func (c *FeedConfig) OrchestratorConfig() feed.OrchestratorConfig {
	return feed.OrchestratorConfig{
		PoolTimeout:     c.PoolTimeout,
		OverfetchFactor: c.OverfetchFactor,
		DefaultSlots:    c.DefaultSlots,
		MaxRankedCount:  c.MaxRankedCount,
		Weights: feed.WeightConfig{
			Recency:      c.RecencyWeight,
			Relationship: c.RelationshipWeight,
			Engagement:   c.EngagementWeight,
			Reputation:   c.ReputationWeight,
			Diversity:    c.DiversityWeight,
		},
	}
}

// Validate checks the configuration for errors. It is called once at
// load time so a bad deployment fails at startup instead of at the
// first request.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("server.rate_limit_reqs must not be negative, got %d", c.Server.RateLimitReqs)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if !strings.HasPrefix(c.Database.DSN, "postgres://") && !strings.HasPrefix(c.Database.DSN, "postgresql://") {
		return fmt.Errorf("database.dsn must be a postgres:// URL")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be positive, got %d", c.Database.MaxOpenConns)
	}
	if c.Feed.HalfLifeHours <= 0 {
		return fmt.Errorf("feed.half_life_hours must be positive, got %f", c.Feed.HalfLifeHours)
	}
	if c.Feed.RandomLookback <= 0 || c.Feed.TrendingLookback <= 0 {
		return fmt.Errorf("feed lookback windows must be positive")
	}
	if err := c.Feed.OrchestratorConfig().Validate(); err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	if c.Analytics.Enabled && !c.Analytics.EmbeddedServer && c.Analytics.URL == "" {
		return fmt.Errorf("analytics.url is required when analytics is enabled without an embedded server")
	}
	if c.Analytics.Enabled && c.Analytics.Topic == "" {
		return fmt.Errorf("analytics.topic is required when analytics is enabled")
	}
	return nil
}

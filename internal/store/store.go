// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/agoranet/agora/internal/metrics"
)

// Options configure the store's protective wrappers.
type Options struct {
	// QueriesPerSecond caps query throughput. Zero disables the
	// limiter.
	QueriesPerSecond float64

	// BreakerEnabled wraps queries in a circuit breaker that opens
	// after consecutive failures and probes recovery.
	BreakerEnabled bool
}

// breaker tuning. Five consecutive failures open the circuit; a probe
// is allowed after 30 seconds.
const (
	breakerFailureThreshold = 5
	breakerTimeout          = 30 * time.Second
	breakerMaxRequests      = 2
)

// Store is the Postgres query layer. It implements feed.PostStore,
// feed.GraphService and feed.EngagementStatusStore.
type Store struct {
	db      *sql.DB
	breaker *gobreaker.CircuitBreaker[interface{}]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a store over an open database handle.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(db *sql.DB, opts Options, logger zerolog.Logger) *Store {
	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}

	if opts.QueriesPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.QueriesPerSecond), int(opts.QueriesPerSecond)+1)
	}

	if opts.BreakerEnabled {
		settings := gobreaker.Settings{
			Name:        "store",
			MaxRequests: breakerMaxRequests,
			Timeout:     breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
				metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
				s.logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state change")
			},
		}
		s.breaker = gobreaker.NewCircuitBreaker[interface{}](settings)
	}
	return s
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// execute runs one named query through the limiter and breaker, and
// records its duration and outcome.
func (s *Store) execute(ctx context.Context, operation string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limiter: %w", operation, err)
		}
	}

	start := time.Now()
	var out interface{}
	var err error
	if s.breaker != nil {
		out, err = s.breaker.Execute(func() (interface{}, error) {
			return fn(ctx)
		})
	} else {
		out, err = fn(ctx)
	}
	metrics.ObserveDBQuery(operation, time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// ZerologAdapter routes Watermill log output through zerolog so event
// transport logs share the application's structured format.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps a zerolog logger as a watermill.LoggerAdapter.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Error logs an error message.
func (a *ZerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.event(a.logger.Error().Err(err), fields).Msg(msg)
}

// Info logs an informational message.
func (a *ZerologAdapter) Info(msg string, fields watermill.LogFields) {
	a.event(a.logger.Info(), fields).Msg(msg)
}

// Debug logs a debug message.
func (a *ZerologAdapter) Debug(msg string, fields watermill.LogFields) {
	a.event(a.logger.Debug(), fields).Msg(msg)
}

// Trace logs at trace level.
func (a *ZerologAdapter) Trace(msg string, fields watermill.LogFields) {
	a.event(a.logger.Trace(), fields).Msg(msg)
}

// With returns a logger with the fields attached to every message.
func (a *ZerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := a.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &ZerologAdapter{logger: ctx.Logger()}
}

func (a *ZerologAdapter) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

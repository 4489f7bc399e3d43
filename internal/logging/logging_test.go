// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetLevelString(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	SetLevelString("warn")
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("GlobalLevel() = %v after SetLevelString(warn), want %v", got, zerolog.WarnLevel)
	}

	SetLevelString("debug")
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Errorf("GlobalLevel() = %v after SetLevelString(debug), want %v", got, zerolog.DebugLevel)
	}
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("key", "value").Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("timestamp field missing")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("empty context request ID = %q, want empty", got)
	}

	ctx = ContextWithRequestID(ctx, "req-abc")
	if got := RequestIDFromContext(ctx); got != "req-abc" {
		t.Errorf("request ID = %q, want req-abc", got)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Error("consecutive request IDs collide")
	}
	if len(a) != 36 {
		t.Errorf("request ID length = %d, want 36 (UUID)", len(a))
	}
}

func TestCtxAttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-xyz")

	Ctx(ctx).Info().Msg("with context")

	if !strings.Contains(buf.String(), `"request_id":"req-xyz"`) {
		t.Errorf("request_id missing from output: %s", buf.String())
	}
}

func TestLoggerFromContextFallback(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	// Must not panic and must be usable.
	logger.Debug().Msg("fallback")
}

func TestSlogHandlerRoutesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	slogger := slog.New(NewSlogHandler())
	slogger.Info("supervisor event", "service", "http", "restarts", int64(2))

	out := buf.String()
	if !strings.Contains(out, `"message":"supervisor event"`) {
		t.Errorf("message missing: %s", out)
	}
	if !strings.Contains(out, `"service":"http"`) {
		t.Errorf("string attr missing: %s", out)
	}
	if !strings.Contains(out, `"restarts":2`) {
		t.Errorf("int attr missing: %s", out)
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	slogger := slog.New(NewSlogHandler()).WithGroup("feed")
	slogger.Warn("degraded", "pool", "trending")

	if !strings.Contains(buf.String(), `"feed.pool":"trending"`) {
		t.Errorf("grouped attr missing: %s", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	logger := WithComponent("feed")
	logger.Info().Msg("ready")

	if !strings.Contains(buf.String(), `"component":"feed"`) {
		t.Errorf("component field missing: %s", buf.String())
	}
}

// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

//go:build !nats

package events

import (
	"context"
	"fmt"
)

// EmbeddedServer is a stub when NATS dependencies are not compiled in.
type EmbeddedServer struct{}

// NewEmbeddedServer returns an error when NATS support is not compiled in.
func NewEmbeddedServer(cfg ServerConfig) (*EmbeddedServer, error) {
	return nil, fmt.Errorf("embedded NATS server not available: build with -tags=nats")
}

// ClientURL returns an empty string for the stub.
func (s *EmbeddedServer) ClientURL() string { return "" }

// Shutdown is a no-op stub.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error { return nil }

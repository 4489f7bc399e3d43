// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package events

import "time"

// DefaultTopic is the NATS subject feed generation events are published to.
const DefaultTopic = "feed.generated"

// PublisherConfig holds connection settings for the NATS publisher.
type PublisherConfig struct {
	URL             string
	Topic           string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultPublisherConfig returns publisher settings suitable for a local
// or embedded NATS server.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		URL:             "nats://127.0.0.1:4222",
		Topic:           DefaultTopic,
		MaxReconnects:   -1, // retry forever
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024,
	}
}

// ServerConfig holds settings for the embedded NATS server.
type ServerConfig struct {
	Host     string
	Port     int
	StoreDir string
}

// DefaultServerConfig returns embedded server settings bound to loopback.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:     "127.0.0.1",
		Port:     4222,
		StoreDir: "./data/nats",
	}
}

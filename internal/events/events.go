// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to FeedGeneratedEvent.
const SchemaVersion = 1

// FeedGeneratedEvent is published after every feed generation, successful
// or degraded. Analytics consumers use it to track pool health, fill rates,
// and degradation frequency without touching the serving path.
type FeedGeneratedEvent struct {
	SchemaVersion int    `json:"schema_version,omitempty"`
	EventID       string `json:"event_id"`
	RequestID     string `json:"request_id,omitempty"`

	// Viewer information. ViewerID is 0 for anonymous requests.
	ViewerID    int64  `json:"viewer_id"`
	ViewerClass string `json:"viewer_class"` // anonymous, authenticated

	// Generation outcome
	Algorithm      string         `json:"algorithm"` // slot_roll, probability_cloud
	PostsReturned  int            `json:"posts_returned"`
	SlotsRequested int            `json:"slots_requested,omitempty"`
	SlotsUnfilled  int            `json:"slots_unfilled,omitempty"`
	PoolCounts     map[string]int `json:"pool_counts,omitempty"`
	Degraded       bool           `json:"degraded"`
	DegradedReason string         `json:"degraded_reason,omitempty"`
	DurationMillis int64          `json:"duration_ms"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// NewFeedGeneratedEvent creates an event with a fresh UUID and the current
// schema version. Callers fill in the outcome fields before publishing.
func NewFeedGeneratedEvent() *FeedGeneratedEvent {
	return &FeedGeneratedEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		GeneratedAt:   time.Now().UTC(),
	}
}

// Validate checks that the event carries enough information to be useful
// to consumers.
func (e *FeedGeneratedEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.Algorithm == "" {
		return fmt.Errorf("algorithm is required")
	}
	if e.GeneratedAt.IsZero() {
		return fmt.Errorf("generated_at is required")
	}
	return nil
}

// SerializeEvent marshals an event to JSON after validating it.
func SerializeEvent(event *FeedGeneratedEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DeserializeEvent unmarshals JSON to an event.
func DeserializeEvent(data []byte) (*FeedGeneratedEvent, error) {
	var event FeedGeneratedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}

// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/agoranet/agora/internal/feed"
)

// maxRequestBodyBytes caps JSON request bodies.
const maxRequestBodyBytes = 64 * 1024

// SlotFeedParams are the query parameters accepted by GET /api/v1/feed.
type SlotFeedParams struct {
	Slots      int
	ExcludeIDs []int64
}

// parseSlotFeedParams extracts and validates slot feed query parameters.
// A missing slots parameter means the server default; out-of-range values
// are rejected rather than silently clamped so clients notice bad input.
func parseSlotFeedParams(r *http.Request) (SlotFeedParams, error) {
	var params SlotFeedParams

	if raw := r.URL.Query().Get("slots"); raw != "" {
		slots, err := strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("slots must be an integer, got %q", raw)
		}
		if slots < 1 || slots > feed.MaxSlots {
			return params, fmt.Errorf("slots must be in [1, %d], got %d", feed.MaxSlots, slots)
		}
		params.Slots = slots
	}

	excludeIDs, err := parseExcludeIDs(r.URL.Query().Get("exclude"))
	if err != nil {
		return params, err
	}
	params.ExcludeIDs = excludeIDs

	return params, nil
}

// parseExcludeIDs splits a comma-separated list of post IDs.
// Empty segments are ignored so trailing commas are harmless.
func parseExcludeIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("exclude contains invalid post ID %q", part)
		}
		if id <= 0 {
			return nil, fmt.Errorf("exclude contains non-positive post ID %d", id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RankedFeedBody is the JSON body accepted by POST /api/v1/feed/ranked.
type RankedFeedBody struct {
	// Count is the number of posts to return. Zero means the server default.
	Count int `json:"count" validate:"omitempty,gte=1,lte=100"`

	// ExcludeIDs lists previously shown post IDs.
	ExcludeIDs []int64 `json:"exclude_ids" validate:"omitempty,dive,gt=0"`

	// Weights optionally overrides the scoring weight profile.
	Weights *feed.WeightOverrides `json:"weights"`
}

// decodeJSONBody decodes a request body into dst, rejecting unknown fields
// and oversized payloads.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

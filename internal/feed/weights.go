// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import "fmt"

// WeightConfig holds the named multipliers fed into the probability-cloud
// composite weight. All values must be strictly positive. A config is
// transient and scoped to a single request.
type WeightConfig struct {
	// Recency scales the time-decay term.
	Recency float64 `json:"recency_weight"`

	// Relationship scales the relationship-multiplier term.
	Relationship float64 `json:"relationship_weight"`

	// Engagement scales the engagement-score term.
	Engagement float64 `json:"engagement_weight"`

	// Reputation scales the author-reputation term.
	Reputation float64 `json:"reputation_weight"`

	// Diversity scales the tag-rarity term.
	Diversity float64 `json:"diversity_weight"`
}

// DefaultWeightConfig returns the built-in weight profile.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		Recency:      1.0,
		Relationship: 1.5,
		Engagement:   1.0,
		Reputation:   0.5,
		Diversity:    0.5,
	}
}

// Validate checks that every weight is strictly positive.
func (w WeightConfig) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"recency_weight", w.Recency},
		{"relationship_weight", w.Relationship},
		{"engagement_weight", w.Engagement},
		{"reputation_weight", w.Reputation},
		{"diversity_weight", w.Diversity},
	} {
		if f.value <= 0 {
			return fmt.Errorf("%s must be positive, got %f", f.name, f.value)
		}
	}
	return nil
}

// WeightOverrides is a full or partial caller-supplied override of the
// default weight profile. Nil fields fall back to the profile value.
// Supplied values must be strictly positive.
type WeightOverrides struct {
	Recency      *float64 `json:"recency_weight,omitempty" validate:"omitempty,gt=0"`
	Relationship *float64 `json:"relationship_weight,omitempty" validate:"omitempty,gt=0"`
	Engagement   *float64 `json:"engagement_weight,omitempty" validate:"omitempty,gt=0"`
	Reputation   *float64 `json:"reputation_weight,omitempty" validate:"omitempty,gt=0"`
	Diversity    *float64 `json:"diversity_weight,omitempty" validate:"omitempty,gt=0"`
}

// Apply returns a copy of base with non-nil overrides applied.
func (o *WeightOverrides) Apply(base WeightConfig) WeightConfig {
	if o == nil {
		return base
	}
	if o.Recency != nil {
		base.Recency = *o.Recency
	}
	if o.Relationship != nil {
		base.Relationship = *o.Relationship
	}
	if o.Engagement != nil {
		base.Engagement = *o.Engagement
	}
	if o.Reputation != nil {
		base.Reputation = *o.Reputation
	}
	if o.Diversity != nil {
		base.Diversity = *o.Diversity
	}
	return base
}

// Validate rejects malformed overrides. An override is caller-supplied
// and correctable, so errors here surface as validation failures.
func (o *WeightOverrides) Validate() error {
	if o == nil {
		return nil
	}
	for _, f := range []struct {
		name  string
		value *float64
	}{
		{"recency_weight", o.Recency},
		{"relationship_weight", o.Relationship},
		{"engagement_weight", o.Engagement},
		{"reputation_weight", o.Reputation},
		{"diversity_weight", o.Diversity},
	} {
		if f.value != nil && *f.value <= 0 {
			return fmt.Errorf("%s must be positive, got %f", f.name, *f.value)
		}
	}
	return nil
}

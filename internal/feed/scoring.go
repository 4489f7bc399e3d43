// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import (
	"math"
	"time"
)

// DefaultHalfLifeHours is the engagement half-life: a post's score
// influence halves every 24 hours.
const DefaultHalfLifeHours = 24.0

// Reputation multiplier bounds. Low-reputation authors are suppressed
// but never zeroed; high-reputation authors are capped to prevent
// runaway amplification.
const (
	reputationFloor   = 0.1
	reputationCeiling = 1.5
)

// ScorerConfig holds the signal weights for the engagement scorer.
type ScorerConfig struct {
	// HalfLifeHours is the time-decay half-life in hours.
	// Default: 24.
	HalfLifeHours float64 `json:"half_life_hours"`

	// LikeWeight is the weight of a post like.
	LikeWeight float64 `json:"like_weight"`

	// CommentWeight is the weight of a comment.
	CommentWeight float64 `json:"comment_weight"`

	// ShareWeight is the weight of a share.
	ShareWeight float64 `json:"share_weight"`

	// AgreeWeight is the weight of an agree reaction.
	AgreeWeight float64 `json:"agree_weight"`

	// CommentLikeWeight is the weight of a like on a comment.
	CommentLikeWeight float64 `json:"comment_like_weight"`

	// CommentAgreeWeight is the weight of an agree on a comment.
	CommentAgreeWeight float64 `json:"comment_agree_weight"`

	// DislikeWeight is the weight of a dislike (negative signal).
	DislikeWeight float64 `json:"dislike_weight"`

	// DisagreeWeight is the weight of a disagree reaction (negative signal).
	DisagreeWeight float64 `json:"disagree_weight"`

	// ReportWeight is the weight of a report (negative signal).
	ReportWeight float64 `json:"report_weight"`

	// NegativeDampening scales the combined negative signal before it
	// is subtracted, so hostile engagement cannot fully cancel genuine
	// positive engagement.
	NegativeDampening float64 `json:"negative_dampening"`
}

// DefaultScorerConfig returns the production signal weights.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		HalfLifeHours:      DefaultHalfLifeHours,
		LikeWeight:         1.0,
		CommentWeight:      1.5,
		ShareWeight:        2.0,
		AgreeWeight:        0.8,
		CommentLikeWeight:  0.5,
		CommentAgreeWeight: 0.4,
		DislikeWeight:      1.0,
		DisagreeWeight:     0.8,
		ReportWeight:       3.0,
		NegativeDampening:  0.5,
	}
}

// EngagementScorer computes a non-negative scalar engagement score for a
// post. It is a pure function of its inputs: no I/O, no side effects,
// deterministic given identical inputs and the same now.
type EngagementScorer struct {
	cfg ScorerConfig
}

// NewEngagementScorer creates a scorer, applying defaults for zero values.
// A config that sets no signal weights at all gets the full default
// profile, so a caller overriding only the half-life still scores posts.
func NewEngagementScorer(cfg ScorerConfig) *EngagementScorer {
	if !cfg.hasSignalWeights() {
		def := DefaultScorerConfig()
		def.HalfLifeHours = cfg.HalfLifeHours
		def.NegativeDampening = cfg.NegativeDampening
		cfg = def
	}
	if cfg.HalfLifeHours <= 0 {
		cfg.HalfLifeHours = DefaultHalfLifeHours
	}
	if cfg.NegativeDampening <= 0 {
		cfg.NegativeDampening = 0.5
	}
	return &EngagementScorer{cfg: cfg}
}

// hasSignalWeights reports whether any engagement signal weight is set.
func (c ScorerConfig) hasSignalWeights() bool {
	return c.LikeWeight != 0 || c.CommentWeight != 0 || c.ShareWeight != 0 ||
		c.AgreeWeight != 0 || c.CommentLikeWeight != 0 || c.CommentAgreeWeight != 0 ||
		c.DislikeWeight != 0 || c.DisagreeWeight != 0 || c.ReportWeight != 0
}

// Score computes the engagement score for a post snapshot at now.
// Positive signals minus dampened negative signals, multiplied by time
// decay and the author reputation multiplier, clamped to >= 0.
func (s *EngagementScorer) Score(metrics EngagementMetrics, comments CommentEngagement, createdAt time.Time, authorReputation int, now time.Time) float64 {
	positive := s.cfg.LikeWeight*float64(metrics.Likes) +
		s.cfg.CommentWeight*float64(metrics.Comments) +
		s.cfg.ShareWeight*float64(metrics.Shares) +
		s.cfg.AgreeWeight*float64(metrics.Agrees) +
		s.cfg.CommentLikeWeight*float64(comments.Likes) +
		s.cfg.CommentAgreeWeight*float64(comments.Agrees)

	negative := s.cfg.DislikeWeight*float64(metrics.Dislikes) +
		s.cfg.DisagreeWeight*float64(metrics.Disagrees) +
		s.cfg.ReportWeight*float64(metrics.Reports)

	raw := positive - s.cfg.NegativeDampening*negative

	score := raw * s.Decay(createdAt, now) * ReputationMultiplier(authorReputation)
	if score < 0 {
		return 0
	}
	return score
}

// ScorePost is a convenience wrapper over Score for candidate snapshots.
func (s *EngagementScorer) ScorePost(post CandidatePost, now time.Time) float64 {
	return s.Score(post.Metrics, post.CommentEngagement, post.CreatedAt, post.AuthorReputation, now)
}

// Decay returns the time-decay factor 0.5^(ageHours/halfLife).
// Age zero yields exactly 1.0; negative ages (clock skew) clamp to 1.0.
// The factor is asymptotic to zero and never negative.
func (s *EngagementScorer) Decay(createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours <= 0 {
		return 1.0
	}
	return math.Pow(0.5, ageHours/s.cfg.HalfLifeHours)
}

// ReputationMultiplier maps an author reputation in [0,100] to a score
// multiplier. Monotonically non-decreasing, clamped to
// [reputationFloor, reputationCeiling].
func ReputationMultiplier(reputation int) float64 {
	if reputation < 0 {
		reputation = 0
	}
	if reputation > 100 {
		reputation = 100
	}
	m := reputationFloor + (reputationCeiling-reputationFloor)*float64(reputation)/100.0
	return m
}

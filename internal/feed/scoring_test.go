// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import (
	"math"
	"testing"
	"time"
)

func TestDecayBoundaries(t *testing.T) {
	scorer := NewEngagementScorer(DefaultScorerConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		createdAt time.Time
		want      float64
	}{
		{"age zero", now, 1.0},
		{"age equals half-life", now.Add(-24 * time.Hour), 0.5},
		{"age two half-lives", now.Add(-48 * time.Hour), 0.25},
		{"future timestamp clamps to one", now.Add(time.Hour), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Decay(tt.createdAt, now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Decay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecayNeverNegative(t *testing.T) {
	scorer := NewEngagementScorer(DefaultScorerConfig())
	now := time.Now()

	for _, age := range []time.Duration{0, time.Hour, 24 * time.Hour, 365 * 24 * time.Hour, 10 * 365 * 24 * time.Hour} {
		got := scorer.Decay(now.Add(-age), now)
		if got < 0 {
			t.Errorf("Decay(age=%v) = %v, want >= 0", age, got)
		}
		if got > 1.0 {
			t.Errorf("Decay(age=%v) = %v, want <= 1.0", age, got)
		}
	}
}

func TestScoreLikeMonotonicity(t *testing.T) {
	scorer := NewEngagementScorer(DefaultScorerConfig())
	now := time.Now()
	createdAt := now.Add(-6 * time.Hour)

	prev := -1.0
	for likes := 0; likes <= 200; likes += 10 {
		metrics := EngagementMetrics{Likes: likes, Dislikes: 5, Reports: 1}
		got := scorer.Score(metrics, CommentEngagement{}, createdAt, 70, now)
		if got < prev {
			t.Fatalf("score decreased when likes grew from %d: %v < %v", likes-10, got, prev)
		}
		prev = got
	}
}

func TestScoreReportMonotonicity(t *testing.T) {
	scorer := NewEngagementScorer(DefaultScorerConfig())
	now := time.Now()
	createdAt := now.Add(-6 * time.Hour)

	prev := math.Inf(1)
	for reports := 0; reports <= 100; reports += 5 {
		metrics := EngagementMetrics{Likes: 50, Comments: 10, Reports: reports}
		got := scorer.Score(metrics, CommentEngagement{}, createdAt, 70, now)
		if got > prev {
			t.Fatalf("score increased when reports grew to %d: %v > %v", reports, got, prev)
		}
		prev = got
	}
}

func TestScoreClampedNonNegative(t *testing.T) {
	scorer := NewEngagementScorer(DefaultScorerConfig())
	now := time.Now()

	// Heavily negative signal with no positive engagement.
	metrics := EngagementMetrics{Dislikes: 500, Disagrees: 300, Reports: 100}
	got := scorer.Score(metrics, CommentEngagement{}, now.Add(-time.Hour), 70, now)
	if got != 0 {
		t.Errorf("Score() = %v, want 0 for purely negative engagement", got)
	}
}

func TestScoreFoldsCommentEngagement(t *testing.T) {
	scorer := NewEngagementScorer(DefaultScorerConfig())
	now := time.Now()
	createdAt := now // no decay

	metrics := EngagementMetrics{Likes: 10}
	without := scorer.Score(metrics, CommentEngagement{}, createdAt, 70, now)
	with := scorer.Score(metrics, CommentEngagement{Likes: 20, Agrees: 10}, createdAt, 70, now)

	if with <= without {
		t.Errorf("comment engagement not folded in: with=%v without=%v", with, without)
	}
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewEngagementScorer(DefaultScorerConfig())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	metrics := EngagementMetrics{Likes: 12, Comments: 4, Shares: 2, Dislikes: 1}

	a := scorer.Score(metrics, CommentEngagement{Likes: 3}, now.Add(-10*time.Hour), 80, now)
	b := scorer.Score(metrics, CommentEngagement{Likes: 3}, now.Add(-10*time.Hour), 80, now)
	if a != b {
		t.Errorf("identical inputs produced different scores: %v != %v", a, b)
	}
}

func TestReputationMultiplier(t *testing.T) {
	tests := []struct {
		name       string
		reputation int
		want       float64
	}{
		{"floor at zero reputation", 0, 0.1},
		{"ceiling at max reputation", 100, 1.5},
		{"default reputation", 70, 0.1 + 1.4*0.7},
		{"clamped below zero", -50, 0.1},
		{"clamped above hundred", 250, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReputationMultiplier(tt.reputation)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ReputationMultiplier(%d) = %v, want %v", tt.reputation, got, tt.want)
			}
		})
	}
}

func TestReputationMultiplierMonotonic(t *testing.T) {
	prev := 0.0
	for rep := 0; rep <= 100; rep++ {
		got := ReputationMultiplier(rep)
		if got < prev {
			t.Fatalf("multiplier decreased at reputation %d: %v < %v", rep, got, prev)
		}
		prev = got
	}
}

func TestNewEngagementScorerDefaults(t *testing.T) {
	scorer := NewEngagementScorer(ScorerConfig{})
	if scorer.cfg.HalfLifeHours != DefaultHalfLifeHours {
		t.Errorf("HalfLifeHours = %v, want %v", scorer.cfg.HalfLifeHours, DefaultHalfLifeHours)
	}
	if scorer.cfg.NegativeDampening <= 0 {
		t.Errorf("NegativeDampening = %v, want positive", scorer.cfg.NegativeDampening)
	}
}

func TestNewEngagementScorerHalfLifeOnlyKeepsSignalWeights(t *testing.T) {
	// Building the scorer with only a half-life override must not zero
	// out the signal weights, or every post would score 0 and trending
	// ranking would collapse to recency order.
	scorer := NewEngagementScorer(ScorerConfig{HalfLifeHours: 12})
	now := time.Now()

	metrics := EngagementMetrics{Likes: 500, Comments: 100, Shares: 50}
	got := scorer.Score(metrics, CommentEngagement{}, now.Add(-time.Hour), 70, now)
	if got <= 0 {
		t.Fatalf("Score() = %v for a heavily engaged post, want > 0", got)
	}

	if scorer.cfg.HalfLifeHours != 12 {
		t.Errorf("HalfLifeHours = %v, want the explicit 12", scorer.cfg.HalfLifeHours)
	}
	if scorer.cfg.LikeWeight != DefaultScorerConfig().LikeWeight {
		t.Errorf("LikeWeight = %v, want default %v", scorer.cfg.LikeWeight, DefaultScorerConfig().LikeWeight)
	}
}

func TestNewEngagementScorerExplicitWeightsUntouched(t *testing.T) {
	scorer := NewEngagementScorer(ScorerConfig{LikeWeight: 2.5})
	if scorer.cfg.LikeWeight != 2.5 {
		t.Errorf("LikeWeight = %v, want 2.5", scorer.cfg.LikeWeight)
	}
	if scorer.cfg.CommentWeight != 0 {
		t.Errorf("CommentWeight = %v, want 0 when the caller sets a partial profile", scorer.cfg.CommentWeight)
	}
}

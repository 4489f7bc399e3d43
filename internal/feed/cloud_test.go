// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import (
	"math/rand"
	"testing"
	"time"
)

func newTestCloudSelector(seed int64) *CloudSelector {
	return NewCloudSelector(NewEngagementScorer(DefaultScorerConfig()), rand.New(rand.NewSource(seed)))
}

func TestCloudSelectNoDuplicates(t *testing.T) {
	selector := newTestCloudSelector(1)
	now := time.Now()

	candidates := make([]CandidatePost, 0, 50)
	for i := int64(1); i <= 50; i++ {
		candidates = append(candidates, CandidatePost{
			ID:               i,
			AuthorID:         i,
			CreatedAt:        now.Add(-time.Duration(i) * time.Hour),
			Audience:         AudiencePublic,
			AuthorReputation: 70,
		})
	}

	chosen := selector.Select(candidates, DefaultWeightConfig(), EmptyRelationshipSet(), 30, now)
	if len(chosen) != 30 {
		t.Fatalf("Select() returned %d posts, want 30", len(chosen))
	}

	seen := make(map[int64]struct{})
	for _, post := range chosen {
		if _, dup := seen[post.ID]; dup {
			t.Fatalf("post %d selected twice", post.ID)
		}
		seen[post.ID] = struct{}{}
	}
}

func TestCloudSelectShortInput(t *testing.T) {
	selector := newTestCloudSelector(1)
	now := time.Now()

	candidates := []CandidatePost{
		{ID: 1, Audience: AudiencePublic, CreatedAt: now, AuthorReputation: 70},
		{ID: 2, Audience: AudiencePublic, CreatedAt: now, AuthorReputation: 70},
	}

	chosen := selector.Select(candidates, DefaultWeightConfig(), EmptyRelationshipSet(), 10, now)
	if len(chosen) != 2 {
		t.Errorf("Select() returned %d posts, want all 2 available", len(chosen))
	}

	if got := selector.Select(nil, DefaultWeightConfig(), EmptyRelationshipSet(), 10, now); got != nil {
		t.Errorf("Select(nil) = %v, want nil", got)
	}
	if got := selector.Select(candidates, DefaultWeightConfig(), EmptyRelationshipSet(), 0, now); got != nil {
		t.Errorf("Select(limit=0) = %v, want nil", got)
	}
}

func TestCloudSelectDeterministicWithSeed(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	candidates := make([]CandidatePost, 0, 20)
	for i := int64(1); i <= 20; i++ {
		candidates = append(candidates, CandidatePost{
			ID:               i,
			CreatedAt:        now.Add(-time.Duration(i) * time.Hour),
			Audience:         AudiencePublic,
			AuthorReputation: 70,
		})
	}

	a := newTestCloudSelector(42).Select(candidates, DefaultWeightConfig(), EmptyRelationshipSet(), 10, now)
	b := newTestCloudSelector(42).Select(candidates, DefaultWeightConfig(), EmptyRelationshipSet(), 10, now)

	if len(a) != len(b) {
		t.Fatalf("seeded runs differ in length: %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("seeded runs diverge at position %d: %d != %d", i, a[i].ID, b[i].ID)
		}
	}
}

// With weights reduced to the recency term, a fresh post (decay 1.0) has
// exactly twice the composite weight of a 24h-old post (decay 0.5). Over
// many trials the fresh post must be chosen first about 2/3 of the time.
func TestCloudSelectWeightedConvergence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence test in short mode")
	}

	selector := newTestCloudSelector(7)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Recency-only weights: composite weight ratio A:B = 2:1.
	weights := WeightConfig{Recency: 1}
	candidates := []CandidatePost{
		{ID: 1, Audience: AudiencePublic, CreatedAt: now, AuthorReputation: 0},
		{ID: 2, Audience: AudiencePublic, CreatedAt: now.Add(-24 * time.Hour), AuthorReputation: 0},
	}

	const trials = 10000
	firstA := 0
	for i := 0; i < trials; i++ {
		chosen := selector.Select(candidates, weights, EmptyRelationshipSet(), 1, now)
		if len(chosen) != 1 {
			t.Fatalf("trial %d: got %d posts, want 1", i, len(chosen))
		}
		if chosen[0].ID == 1 {
			firstA++
		}
	}

	fraction := float64(firstA) / float64(trials)
	if fraction < 0.63 || fraction > 0.69 {
		t.Errorf("post A chosen first in %.1f%% of trials, want [63%%, 69%%]", fraction*100)
	}
}

func TestCompositeWeightFloor(t *testing.T) {
	selector := newTestCloudSelector(1)
	now := time.Now()

	// Ancient post by a zero-reputation unconnected author: every term
	// is near zero, but the weight must stay strictly positive.
	post := CandidatePost{
		ID:               1,
		CreatedAt:        now.Add(-10 * 365 * 24 * time.Hour),
		Audience:         AudiencePublic,
		AuthorReputation: 0,
		Tags:             []string{"a"},
	}
	w := selector.CompositeWeight(post, WeightConfig{Recency: 1e-12, Relationship: 1e-12, Engagement: 1e-12, Reputation: 1e-12, Diversity: 1e-12}, EmptyRelationshipSet(), map[string]int{"a": 1}, 1, now)
	if w < minCompositeWeight {
		t.Errorf("CompositeWeight() = %v, want >= %v", w, minCompositeWeight)
	}
}

func TestCompositeWeightMonotonicInEngagement(t *testing.T) {
	selector := newTestCloudSelector(1)
	now := time.Now()
	weights := DefaultWeightConfig()
	rel := EmptyRelationshipSet()

	low := CandidatePost{ID: 1, CreatedAt: now, Audience: AudiencePublic, AuthorReputation: 70, Metrics: EngagementMetrics{Likes: 1}}
	high := low
	high.Metrics.Likes = 100

	wLow := selector.CompositeWeight(low, weights, rel, nil, 2, now)
	wHigh := selector.CompositeWeight(high, weights, rel, nil, 2, now)
	if wHigh <= wLow {
		t.Errorf("weight not increasing in engagement: high=%v low=%v", wHigh, wLow)
	}
}

func TestTagRarity(t *testing.T) {
	counts := map[string]int{"politics": 8, "gardening": 1}

	common := CandidatePost{Tags: []string{"politics"}}
	rare := CandidatePost{Tags: []string{"gardening"}}
	untagged := CandidatePost{}

	if r := tagRarity(untagged, counts, 10); r != 1.0 {
		t.Errorf("untagged rarity = %v, want 1.0", r)
	}
	if tagRarity(rare, counts, 10) <= tagRarity(common, counts, 10) {
		t.Errorf("rare tag should score higher than common tag")
	}
}

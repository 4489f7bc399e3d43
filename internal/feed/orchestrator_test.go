// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockProvider is a canned-response pool provider.
type mockProvider struct {
	pool  Pool
	posts []CandidatePost
	err   error
}

func (m *mockProvider) Pool() Pool { return m.pool }

func (m *mockProvider) Fetch(ctx context.Context, req PoolRequest) ([]CandidatePost, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.posts, nil
}

type mockGraphService struct {
	rel *RelationshipSet
	err error
}

func (m *mockGraphService) Relationships(ctx context.Context, viewerID int64) (*RelationshipSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rel, nil
}

type mockLikeStore struct {
	liked map[int64]bool
	err   error
}

func (m *mockLikeStore) LikedPosts(ctx context.Context, viewerID int64, postIDs []int64) (map[int64]bool, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.liked, nil
}

func newTestOrchestrator(t *testing.T, providers []Provider, graph GraphService, likes EngagementStatusStore) *Orchestrator {
	t.Helper()
	scorer := NewEngagementScorer(DefaultScorerConfig())
	o, err := NewOrchestrator(
		DefaultOrchestratorConfig(),
		providers,
		graph,
		likes,
		NewCloudSelector(scorer, rand.New(rand.NewSource(7))),
		NewSlotRollSelector(rand.New(rand.NewSource(7))),
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	return o
}

func fullProviders() []Provider {
	return []Provider{
		&mockProvider{pool: PoolRandom, posts: publicPosts(PoolRandom, 1, 30)},
		&mockProvider{pool: PoolTrending, posts: publicPosts(PoolTrending, 100, 30)},
		&mockProvider{pool: PoolPersonalized, posts: publicPosts(PoolPersonalized, 200, 30)},
	}
}

func TestNewOrchestratorValidation(t *testing.T) {
	cfg := DefaultOrchestratorConfig()
	cfg.PoolTimeout = 0
	if _, err := NewOrchestrator(cfg, fullProviders(), nil, nil, nil, nil, zerolog.Nop()); err == nil {
		t.Error("invalid config accepted")
	}
	if _, err := NewOrchestrator(DefaultOrchestratorConfig(), nil, nil, nil, nil, nil, zerolog.Nop()); err == nil {
		t.Error("empty provider list accepted")
	}
}

func TestGenerateSlotFeedHappyPath(t *testing.T) {
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{rel: EmptyRelationshipSet()}, nil)

	result := o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 42, Slots: 20, RequestID: "req-1"})

	if result.Degraded {
		t.Errorf("result degraded: %s", result.Error)
	}
	if result.Algorithm != AlgorithmSlotRoll {
		t.Errorf("algorithm = %q, want %q", result.Algorithm, AlgorithmSlotRoll)
	}
	if len(result.Posts) != 20 {
		t.Errorf("got %d posts, want 20", len(result.Posts))
	}
	if result.Stats.FilledSlots != 20 {
		t.Errorf("filled slots = %d, want 20", result.Stats.FilledSlots)
	}
	if result.RequestID != "req-1" {
		t.Errorf("request id = %q", result.RequestID)
	}

	seen := make(map[int64]struct{})
	for _, p := range result.Posts {
		if _, dup := seen[p.Post.ID]; dup {
			t.Errorf("duplicate post %d", p.Post.ID)
		}
		seen[p.Post.ID] = struct{}{}
	}
}

func TestGenerateSlotFeedFailedPoolsFallThrough(t *testing.T) {
	providers := []Provider{
		&mockProvider{pool: PoolRandom, posts: publicPosts(PoolRandom, 1, 60)},
		&mockProvider{pool: PoolTrending, err: errors.New("trending store down")},
		&mockProvider{pool: PoolPersonalized, err: errors.New("graph store down")},
	}
	o := newTestOrchestrator(t, providers, &mockGraphService{rel: EmptyRelationshipSet()}, nil)

	result := o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 42, Slots: 20})

	if !result.Degraded {
		t.Error("result not marked degraded")
	}
	if result.Error == "" {
		t.Error("degraded result has empty error description")
	}
	if len(result.Posts) != 20 {
		t.Fatalf("got %d posts, want 20 filled from the surviving pool", len(result.Posts))
	}
	for _, p := range result.Posts {
		if p.Origin != PoolRandom {
			t.Errorf("post %d came from %s, want RANDOM only", p.Post.ID, p.OriginPool)
		}
	}
}

func TestGenerateSlotFeedAllPoolsFailed(t *testing.T) {
	providers := []Provider{
		&mockProvider{pool: PoolRandom, err: errors.New("down")},
		&mockProvider{pool: PoolTrending, err: errors.New("down")},
		&mockProvider{pool: PoolPersonalized, err: errors.New("down")},
	}
	o := newTestOrchestrator(t, providers, &mockGraphService{rel: EmptyRelationshipSet()}, nil)

	result := o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 42, Slots: 10})

	if !result.Degraded {
		t.Error("result not marked degraded")
	}
	if len(result.Posts) != 0 {
		t.Errorf("got %d posts, want 0", len(result.Posts))
	}
	if result.Stats.TotalSlots != 10 {
		t.Errorf("total slots = %d, want 10", result.Stats.TotalSlots)
	}
}

func TestGenerateSlotFeedGraphFailureDegrades(t *testing.T) {
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{err: errors.New("graph timeout")}, nil)

	result := o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 42, Slots: 10})

	if !result.Degraded {
		t.Error("graph failure did not degrade the result")
	}
	if len(result.Posts) == 0 {
		t.Error("degraded result dropped all posts")
	}
}

func TestGenerateSlotFeedExcludesSeenPosts(t *testing.T) {
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{rel: EmptyRelationshipSet()}, nil)

	exclude := []int64{1, 2, 3, 100, 101, 200}
	result := o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 42, Slots: 20, ExcludeIDs: exclude})

	banned := NewExclusionSet(exclude)
	for _, p := range result.Posts {
		if banned.Contains(p.Post.ID) {
			t.Errorf("excluded post %d returned", p.Post.ID)
		}
	}
}

func TestGenerateSlotFeedAnonymousUsesPublicTable(t *testing.T) {
	// Anonymous viewers never draw from the personalized pool.
	o := newTestOrchestrator(t, fullProviders(), nil, nil)

	result := o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 0, Slots: MaxSlots})

	for _, p := range result.Posts {
		if p.Origin == PoolPersonalized {
			t.Errorf("anonymous feed contains personalized post %d", p.Post.ID)
		}
	}
}

func TestGenerateSlotFeedAnnotation(t *testing.T) {
	likes := &mockLikeStore{liked: map[int64]bool{1: true, 2: true}}
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{rel: EmptyRelationshipSet()}, likes)

	result := o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 42, Slots: MaxSlots})

	if result.Degraded {
		t.Fatalf("result degraded: %s", result.Error)
	}
	for _, p := range result.Posts {
		want := p.Post.ID == 1 || p.Post.ID == 2
		if p.IsLiked != want {
			t.Errorf("post %d isLiked = %v, want %v", p.Post.ID, p.IsLiked, want)
		}
	}
}

func TestGenerateSlotFeedAnnotationFailureDegrades(t *testing.T) {
	likes := &mockLikeStore{err: errors.New("likes store down")}
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{rel: EmptyRelationshipSet()}, likes)

	result := o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 42, Slots: 10})

	if !result.Degraded {
		t.Error("annotation failure did not degrade the result")
	}
	if len(result.Posts) != 10 {
		t.Errorf("annotation failure dropped posts: got %d, want 10", len(result.Posts))
	}
}

func TestGenerateSlotFeedDefaultAndClampedSlots(t *testing.T) {
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{rel: EmptyRelationshipSet()}, nil)

	result := o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 42})
	if result.Stats.TotalSlots != DefaultOrchestratorConfig().DefaultSlots {
		t.Errorf("default slots = %d, want %d", result.Stats.TotalSlots, DefaultOrchestratorConfig().DefaultSlots)
	}

	result = o.GenerateSlotFeed(context.Background(), SlotFeedRequest{ViewerID: 42, Slots: 500})
	if result.Stats.TotalSlots != MaxSlots {
		t.Errorf("oversized request clamped to %d, want %d", result.Stats.TotalSlots, MaxSlots)
	}
}

func TestGenerateRankedFeedHappyPath(t *testing.T) {
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{rel: EmptyRelationshipSet()}, nil)

	result, err := o.GenerateRankedFeed(context.Background(), RankedFeedRequest{ViewerID: 42, Count: 15, RequestID: "req-2"})
	if err != nil {
		t.Fatalf("GenerateRankedFeed() error = %v", err)
	}
	if result.Algorithm != AlgorithmProbabilityCloud {
		t.Errorf("algorithm = %q, want %q", result.Algorithm, AlgorithmProbabilityCloud)
	}
	if len(result.Posts) != 15 {
		t.Errorf("got %d posts, want 15", len(result.Posts))
	}
	if result.WeightsUsed == nil {
		t.Fatal("weightsUsed missing from ranked result")
	}
	if *result.WeightsUsed != DefaultWeightConfig() {
		t.Errorf("weightsUsed = %+v, want defaults", *result.WeightsUsed)
	}

	seen := make(map[int64]struct{})
	for _, p := range result.Posts {
		if _, dup := seen[p.Post.ID]; dup {
			t.Errorf("duplicate post %d", p.Post.ID)
		}
		seen[p.Post.ID] = struct{}{}
	}
}

func TestGenerateRankedFeedWeightOverrides(t *testing.T) {
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{rel: EmptyRelationshipSet()}, nil)

	rec := 3.5
	result, err := o.GenerateRankedFeed(context.Background(), RankedFeedRequest{
		ViewerID:  42,
		Count:     10,
		Overrides: &WeightOverrides{Recency: &rec},
	})
	if err != nil {
		t.Fatalf("GenerateRankedFeed() error = %v", err)
	}
	if result.WeightsUsed.Recency != 3.5 {
		t.Errorf("recency weight = %f, want 3.5", result.WeightsUsed.Recency)
	}
	if result.WeightsUsed.Engagement != DefaultWeightConfig().Engagement {
		t.Errorf("unoverridden weight changed: %f", result.WeightsUsed.Engagement)
	}
}

func TestGenerateRankedFeedInvalidOverride(t *testing.T) {
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{rel: EmptyRelationshipSet()}, nil)

	bad := -1.0
	_, err := o.GenerateRankedFeed(context.Background(), RankedFeedRequest{
		ViewerID:  42,
		Count:     10,
		Overrides: &WeightOverrides{Engagement: &bad},
	})
	if !errors.Is(err, ErrInvalidWeightOverride) {
		t.Errorf("error = %v, want ErrInvalidWeightOverride", err)
	}
}

func TestGenerateRankedFeedCountCap(t *testing.T) {
	o := newTestOrchestrator(t, fullProviders(), &mockGraphService{rel: EmptyRelationshipSet()}, nil)

	result, err := o.GenerateRankedFeed(context.Background(), RankedFeedRequest{ViewerID: 42, Count: 10000})
	if err != nil {
		t.Fatalf("GenerateRankedFeed() error = %v", err)
	}
	if result.Stats.TotalSlots != DefaultOrchestratorConfig().MaxRankedCount {
		t.Errorf("count = %d, want capped at %d", result.Stats.TotalSlots, DefaultOrchestratorConfig().MaxRankedCount)
	}
}

func TestGenerateRankedFeedPoolOverlap(t *testing.T) {
	// The same post surfacing in two pools must appear at most once, with
	// the higher-priority pool credited as its origin.
	shared := CandidatePost{ID: 999, AuthorID: 5, CreatedAt: time.Now(), Audience: AudiencePublic}
	providers := []Provider{
		&mockProvider{pool: PoolRandom, posts: []CandidatePost{shared}},
		&mockProvider{pool: PoolTrending, posts: []CandidatePost{shared}},
	}
	o := newTestOrchestrator(t, providers, nil, nil)

	result, err := o.GenerateRankedFeed(context.Background(), RankedFeedRequest{Count: 10})
	if err != nil {
		t.Fatalf("GenerateRankedFeed() error = %v", err)
	}
	if len(result.Posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(result.Posts))
	}
	if result.Posts[0].Origin != PoolTrending {
		t.Errorf("origin = %s, want TRENDING (higher priority)", result.Posts[0].OriginPool)
	}
}

func TestGenerateRankedFeedAudienceFiltering(t *testing.T) {
	now := time.Now()
	providers := []Provider{
		&mockProvider{pool: PoolRandom, posts: []CandidatePost{
			{ID: 1, AuthorID: 2, CreatedAt: now, Audience: AudienceFriendsOnly},
			{ID: 2, AuthorID: 3, CreatedAt: now, Audience: AudienceFriendsOnly},
			{ID: 3, AuthorID: 4, CreatedAt: now, Audience: AudiencePublic},
		}},
	}
	graph := &mockGraphService{rel: relWithFriends(2)}
	o := newTestOrchestrator(t, providers, graph, nil)

	result, err := o.GenerateRankedFeed(context.Background(), RankedFeedRequest{ViewerID: 1, Count: 10})
	if err != nil {
		t.Fatalf("GenerateRankedFeed() error = %v", err)
	}
	for _, p := range result.Posts {
		if p.Post.ID == 2 {
			t.Error("friends-only post from a non-friend leaked into the feed")
		}
	}
	if len(result.Posts) != 2 {
		t.Errorf("got %d posts, want 2 (friend's post and public post)", len(result.Posts))
	}
}

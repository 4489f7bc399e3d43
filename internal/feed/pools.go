// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// PoolRequest carries the per-call inputs a provider needs. Providers
// are stateless; everything request-scoped arrives here.
type PoolRequest struct {
	// ViewerID is the authenticated viewer, or 0 for anonymous.
	ViewerID int64

	// Relationships is the viewer's graph snapshot. May be empty but
	// not nil for authenticated viewers.
	Relationships *RelationshipSet

	// Limit is the maximum number of candidates to return.
	Limit int

	// Now is the reference time for ranking.
	Now time.Time
}

// Provider is a single candidate-retrieval strategy. Each provider
// queries the external post store with its own filters and ordering.
type Provider interface {
	// Pool identifies the provider's pool.
	Pool() Pool

	// Fetch returns ranked candidates for the request. Implementations
	// return an error rather than panicking; the orchestrator treats a
	// failed pool as empty so feed generation degrades instead of failing.
	Fetch(ctx context.Context, req PoolRequest) ([]CandidatePost, error)
}

// Default look-back windows per pool.
const (
	DefaultRandomLookback   = 7 * 24 * time.Hour
	DefaultTrendingLookback = 24 * time.Hour
)

// RandomProvider retrieves recent posts favoring diversity over
// relevance. It orders by recency only, acting as an anti-echo-chamber
// counterweight to the other pools.
type RandomProvider struct {
	store    PostStore
	lookback time.Duration
}

// NewRandomProvider creates a random pool provider.
func NewRandomProvider(store PostStore, lookback time.Duration) *RandomProvider {
	if lookback <= 0 {
		lookback = DefaultRandomLookback
	}
	return &RandomProvider{store: store, lookback: lookback}
}

// Pool returns PoolRandom.
func (p *RandomProvider) Pool() Pool { return PoolRandom }

// Fetch returns recent posts, newest first.
func (p *RandomProvider) Fetch(ctx context.Context, req PoolRequest) ([]CandidatePost, error) {
	posts, err := p.store.RecentPosts(ctx, req.Now.Add(-p.lookback), req.Limit)
	if err != nil {
		return nil, fmt.Errorf("random pool: %w", err)
	}
	return posts, nil
}

// TrendingProvider retrieves recent posts restricted to broadly-public
// tag categories and ranks them by engagement score descending.
type TrendingProvider struct {
	store    PostStore
	scorer   *EngagementScorer
	lookback time.Duration
	tags     []string
}

// NewTrendingProvider creates a trending pool provider. tags restricts
// retrieval to broadly-public categories; empty means no restriction.
func NewTrendingProvider(store PostStore, scorer *EngagementScorer, lookback time.Duration, tags []string) *TrendingProvider {
	if lookback <= 0 {
		lookback = DefaultTrendingLookback
	}
	return &TrendingProvider{store: store, scorer: scorer, lookback: lookback, tags: tags}
}

// Pool returns PoolTrending.
func (p *TrendingProvider) Pool() Pool { return PoolTrending }

// Fetch returns candidates ranked by engagement score descending.
func (p *TrendingProvider) Fetch(ctx context.Context, req PoolRequest) ([]CandidatePost, error) {
	posts, err := p.store.TrendingCandidates(ctx, req.Now.Add(-p.lookback), p.tags, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("trending pool: %w", err)
	}

	scores := make(map[int64]float64, len(posts))
	for _, post := range posts {
		scores[post.ID] = p.scorer.ScorePost(post, req.Now)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return scores[posts[i].ID] > scores[posts[j].ID]
	})
	return posts, nil
}

// PersonalizedProvider retrieves posts authored by the viewer's
// followed, subscribed and friend set, ranked by recency decay times the
// relationship multiplier. Authenticated viewers only.
type PersonalizedProvider struct {
	store    PostStore
	scorer   *EngagementScorer
	lookback time.Duration
}

// NewPersonalizedProvider creates a personalized pool provider.
func NewPersonalizedProvider(store PostStore, scorer *EngagementScorer, lookback time.Duration) *PersonalizedProvider {
	if lookback <= 0 {
		lookback = DefaultRandomLookback
	}
	return &PersonalizedProvider{store: store, scorer: scorer, lookback: lookback}
}

// Pool returns PoolPersonalized.
func (p *PersonalizedProvider) Pool() Pool { return PoolPersonalized }

// Fetch returns posts from the viewer's connections, ranked by combined
// decay x relationship score. Ties break on the higher multiplier first,
// then the more recent post.
func (p *PersonalizedProvider) Fetch(ctx context.Context, req PoolRequest) ([]CandidatePost, error) {
	if req.ViewerID == 0 || req.Relationships == nil {
		return nil, nil
	}
	authors := req.Relationships.ConnectedAuthors()
	if len(authors) == 0 {
		return nil, nil
	}

	posts, err := p.store.AuthoredPosts(ctx, authors, req.Now.Add(-p.lookback), req.Limit)
	if err != nil {
		return nil, fmt.Errorf("personalized pool: %w", err)
	}

	type ranked struct {
		score      float64
		multiplier float64
	}
	ranks := make(map[int64]ranked, len(posts))
	for _, post := range posts {
		mult := req.Relationships.Multiplier(post.AuthorID)
		ranks[post.ID] = ranked{
			score:      p.scorer.Decay(post.CreatedAt, req.Now) * mult,
			multiplier: mult,
		}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		ri, rj := ranks[posts[i].ID], ranks[posts[j].ID]
		if ri.score != rj.score {
			return ri.score > rj.score
		}
		if ri.multiplier != rj.multiplier {
			return ri.multiplier > rj.multiplier
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// minCompositeWeight keeps every candidate selectable: a weight of zero
// would make -ln(U)/weight infinite and the candidate unpickable.
const minCompositeWeight = 1e-6

// CloudSelector implements weighted sampling without replacement over a
// single merged candidate set ("probability cloud"). Each candidate gets
// a key -ln(U)/weight from a fresh uniform draw; the limit smallest keys
// win. Higher weight means a smaller expected key, so selection
// probability is monotonically increasing in weight while every
// candidate retains non-zero probability.
//
// The random source is injectable so tests can seed it and assert the
// convergence properties of the sampler.
type CloudSelector struct {
	scorer *EngagementScorer

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewCloudSelector creates a probability-cloud selector. A nil rng falls
// back to a time-seeded source.
func NewCloudSelector(scorer *EngagementScorer, rng *rand.Rand) *CloudSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // sampling, not crypto
	}
	return &CloudSelector{scorer: scorer, rng: rng}
}

// Select draws up to limit candidates, weighted by the composite weight
// under the given config. Candidates must already be visibility-filtered
// and exclusion-filtered. Output is ordered ascending by key, most
// probable first. Deterministic up to the injected random source.
func (c *CloudSelector) Select(candidates []CandidatePost, weights WeightConfig, rel *RelationshipSet, limit int, now time.Time) []CandidatePost {
	if len(candidates) == 0 || limit <= 0 {
		return nil
	}

	tagCounts := tagFrequencies(candidates)

	type keyed struct {
		post CandidatePost
		key  float64
	}
	keys := make([]keyed, 0, len(candidates))

	c.rngMu.Lock()
	for _, post := range candidates {
		w := c.CompositeWeight(post, weights, rel, tagCounts, len(candidates), now)
		u := c.rng.Float64()
		for u == 0 { // ln(0) is -Inf
			u = c.rng.Float64()
		}
		keys = append(keys, keyed{post: post, key: -math.Log(u) / w})
	}
	c.rngMu.Unlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].key < keys[j].key })

	if limit > len(keys) {
		limit = len(keys)
	}
	out := make([]CandidatePost, 0, limit)
	for _, k := range keys[:limit] {
		out = append(out, k.post)
	}
	return out
}

// CompositeWeight computes the strictly positive sampling weight for a
// candidate:
//
//	weight = recency * decay(age)
//	       + relationship * relationshipMultiplier(author)
//	       + engagement * engagementScore
//	       + reputation * reputationFactor(author)
//	       + diversity * tagRarity(post)
//
// floored at a small epsilon so every candidate stays selectable.
func (c *CloudSelector) CompositeWeight(post CandidatePost, weights WeightConfig, rel *RelationshipSet, tagCounts map[string]int, total int, now time.Time) float64 {
	w := weights.Recency*c.scorer.Decay(post.CreatedAt, now) +
		weights.Relationship*rel.Multiplier(post.AuthorID) +
		weights.Engagement*c.scorer.ScorePost(post, now) +
		weights.Reputation*ReputationMultiplier(post.AuthorReputation) +
		weights.Diversity*tagRarity(post, tagCounts, total)

	if w < minCompositeWeight {
		return minCompositeWeight
	}
	return w
}

// tagFrequencies counts how many candidates carry each tag.
func tagFrequencies(candidates []CandidatePost) map[string]int {
	counts := make(map[string]int)
	for _, post := range candidates {
		for _, tag := range post.Tags {
			counts[tag]++
		}
	}
	return counts
}

// tagRarity returns a factor in (0, 1] that is higher for posts whose
// tags are rare within the candidate set. Untagged posts count as fully
// rare so they are not penalized.
func tagRarity(post CandidatePost, tagCounts map[string]int, total int) float64 {
	if len(post.Tags) == 0 || total == 0 {
		return 1.0
	}
	max := 0
	for _, tag := range post.Tags {
		if n := tagCounts[tag]; n > max {
			max = n
		}
	}
	return 1.0 - float64(max-1)/float64(total)
}

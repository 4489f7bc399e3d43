// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import (
	"context"
	"time"
)

// Audience is the visibility class attached to a post.
type Audience int

const (
	// AudiencePublic posts are visible to everyone.
	AudiencePublic Audience = iota
	// AudienceFriendsOnly posts are visible only to the author's friends.
	AudienceFriendsOnly
	// AudienceNonFriends posts are visible to everyone except the author's friends.
	AudienceNonFriends
	// AudienceUnknown marks an unrecognized audience value from the store.
	// Unknown audiences are treated as visible (fail-open).
	AudienceUnknown
)

// String returns the wire name for the audience class.
func (a Audience) String() string {
	switch a {
	case AudiencePublic:
		return "PUBLIC"
	case AudienceFriendsOnly:
		return "FRIENDS_ONLY"
	case AudienceNonFriends:
		return "NON_FRIENDS"
	default:
		return "UNKNOWN"
	}
}

// ParseAudience maps a stored audience value to its typed form.
// Unrecognized values map to AudienceUnknown, which the filter treats
// as visible to preserve existing public-facing behavior.
func ParseAudience(s string) Audience {
	switch s {
	case "PUBLIC":
		return AudiencePublic
	case "FRIENDS_ONLY":
		return AudienceFriendsOnly
	case "NON_FRIENDS":
		return AudienceNonFriends
	default:
		return AudienceUnknown
	}
}

// EngagementMetrics holds the raw per-post counters used for scoring.
// All counts are non-negative; zero values mean no engagement.
type EngagementMetrics struct {
	// Likes is the number of likes on the post.
	Likes int `json:"likes"`

	// Dislikes is the number of dislikes on the post.
	Dislikes int `json:"dislikes"`

	// Agrees is the number of agree reactions.
	Agrees int `json:"agrees"`

	// Disagrees is the number of disagree reactions.
	Disagrees int `json:"disagrees"`

	// Comments is the number of comments on the post.
	Comments int `json:"comments"`

	// Shares is the number of times the post was shared.
	Shares int `json:"shares"`

	// Views is the number of post views.
	Views int `json:"views"`

	// CommunityNotes is the number of community notes attached.
	CommunityNotes int `json:"community_notes"`

	// Reports is the number of times the post was reported.
	Reports int `json:"reports"`
}

// CommentEngagement aggregates reaction counts across a post's comments.
// It is derived at query time and folded into the post's effective
// engagement before scoring; it is never stored.
type CommentEngagement struct {
	// Likes is the total likes across all comments.
	Likes int `json:"likes"`

	// Dislikes is the total dislikes across all comments.
	Dislikes int `json:"dislikes"`

	// Agrees is the total agree reactions across all comments.
	Agrees int `json:"agrees"`

	// Disagrees is the total disagree reactions across all comments.
	Disagrees int `json:"disagrees"`
}

// DefaultAuthorReputation is assumed when the store has no reputation
// recorded for an author.
const DefaultAuthorReputation = 70

// CandidatePost is an immutable snapshot of a post taken at query time.
// The engine never mutates it.
type CandidatePost struct {
	// ID is the unique post identifier.
	ID int64 `json:"id"`

	// AuthorID is the identifier of the post's author.
	AuthorID int64 `json:"author_id"`

	// CreatedAt is when the post was published.
	CreatedAt time.Time `json:"created_at"`

	// Audience is the visibility class of the post.
	Audience Audience `json:"audience"`

	// Metrics holds the post's engagement counters.
	Metrics EngagementMetrics `json:"metrics"`

	// CommentEngagement is the aggregated comment reaction summary.
	CommentEngagement CommentEngagement `json:"comment_engagement"`

	// AuthorReputation is the author's reputation score (0-100).
	AuthorReputation int `json:"author_reputation"`

	// Tags is the set of topic tags attached to the post.
	Tags []string `json:"tags,omitempty"`
}

// RelationshipSet is a read-only per-request snapshot of the viewer's
// social graph, supplied by the external graph service.
type RelationshipSet struct {
	// Followed contains author IDs the viewer follows.
	Followed map[int64]struct{} `json:"-"`

	// Subscribed contains author IDs the viewer subscribes to.
	Subscribed map[int64]struct{} `json:"-"`

	// Friends contains author IDs the viewer is friends with.
	Friends map[int64]struct{} `json:"-"`

	// FriendVisibility contains the author IDs used by the audience
	// filter for FRIENDS_ONLY / NON_FRIENDS decisions.
	FriendVisibility map[int64]struct{} `json:"-"`
}

// EmptyRelationshipSet returns a snapshot with no relationships.
// It is the safe default when the graph service is unavailable: the
// Personalized pool degrades to empty and the audience filter treats
// the viewer as having no friends.
func EmptyRelationshipSet() *RelationshipSet {
	return &RelationshipSet{
		Followed:         map[int64]struct{}{},
		Subscribed:       map[int64]struct{}{},
		Friends:          map[int64]struct{}{},
		FriendVisibility: map[int64]struct{}{},
	}
}

// Relationship multipliers applied to posts from connected authors.
// Subscriptions outrank friendships, which outrank plain follows.
const (
	SubscriptionMultiplier = 2.0
	FriendMultiplier       = 1.5
	FollowMultiplier       = 1.0
)

// Multiplier returns the relationship multiplier for an author, taking
// the strongest relationship when sets overlap. Authors outside the
// snapshot return 0.
func (rs *RelationshipSet) Multiplier(authorID int64) float64 {
	if rs == nil {
		return 0
	}
	if _, ok := rs.Subscribed[authorID]; ok {
		return SubscriptionMultiplier
	}
	if _, ok := rs.Friends[authorID]; ok {
		return FriendMultiplier
	}
	if _, ok := rs.Followed[authorID]; ok {
		return FollowMultiplier
	}
	return 0
}

// ConnectedAuthors returns the union of followed, subscribed and friend
// author IDs. Used by the Personalized pool query.
func (rs *RelationshipSet) ConnectedAuthors() []int64 {
	if rs == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(rs.Followed)+len(rs.Subscribed)+len(rs.Friends))
	for id := range rs.Followed {
		seen[id] = struct{}{}
	}
	for id := range rs.Subscribed {
		seen[id] = struct{}{}
	}
	for id := range rs.Friends {
		seen[id] = struct{}{}
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// Pool identifies a candidate-retrieval strategy.
type Pool int

const (
	// PoolRandom retrieves recent posts regardless of relevance.
	PoolRandom Pool = iota
	// PoolTrending retrieves recent posts ranked by engagement score.
	PoolTrending
	// PoolPersonalized retrieves posts from the viewer's connections.
	PoolPersonalized
)

// String returns the pool's wire name.
func (p Pool) String() string {
	switch p {
	case PoolRandom:
		return "random"
	case PoolTrending:
		return "trending"
	case PoolPersonalized:
		return "personalized"
	default:
		return "unknown"
	}
}

// priority orders pools for slot fall-through. Higher is tried first
// when a rolled pool is exhausted.
func (p Pool) priority() int {
	switch p {
	case PoolPersonalized:
		return 2
	case PoolTrending:
		return 1
	case PoolRandom:
		return 0
	default:
		return -1
	}
}

// ExclusionSet tracks post IDs that must not be selected, combining
// caller-supplied exclusions with IDs chosen earlier in the same call.
type ExclusionSet map[int64]struct{}

// NewExclusionSet builds an exclusion set from caller-supplied IDs.
func NewExclusionSet(ids []int64) ExclusionSet {
	set := make(ExclusionSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether the post ID is excluded.
func (s ExclusionSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add records a post ID so later selections in the same call skip it.
func (s ExclusionSet) Add(id int64) {
	s[id] = struct{}{}
}

// SelectedPost pairs a chosen post with its origin pool and the
// viewer-specific annotations attached during the ANNOTATING phase.
type SelectedPost struct {
	// Post is the selected candidate snapshot.
	Post CandidatePost `json:"post"`

	// Origin is the pool the post was drawn from.
	Origin Pool `json:"-"`

	// OriginPool is the wire name of Origin.
	OriginPool string `json:"origin_pool"`

	// IsLiked reports whether the viewer has liked the post.
	// Always false for anonymous viewers.
	IsLiked bool `json:"is_liked"`
}

// FeedStats exposes the expected and observed pool composition of a
// generated page so convergence can be asserted over repeated calls.
type FeedStats struct {
	// TotalSlots is the number of requested output positions.
	TotalSlots int `json:"total_slots"`

	// FilledSlots is the number of positions actually filled.
	FilledSlots int `json:"filled_slots"`

	// PoolDistribution counts filled slots by origin pool.
	PoolDistribution map[string]int `json:"pool_distribution"`

	// ExpectedDistribution is the expected slot count per pool derived
	// from the threshold table. Informational only; it is never fed
	// back into selection.
	ExpectedDistribution map[string]float64 `json:"expected_distribution"`
}

// FeedResult is the ordered output of one feed generation call.
// It is returned to the web layer and never persisted.
type FeedResult struct {
	// Posts is the ordered sequence of selected posts.
	Posts []SelectedPost `json:"posts"`

	// Stats describes the pool composition of this page.
	Stats FeedStats `json:"stats"`

	// Algorithm names the selection algorithm used.
	Algorithm string `json:"algorithm"`

	// WeightsUsed echoes the effective weight configuration for
	// probability-cloud results.
	WeightsUsed *WeightConfig `json:"weights_used,omitempty"`

	// Degraded indicates one or more collaborators failed and the
	// result was produced from partial data.
	Degraded bool `json:"degraded"`

	// Error carries a descriptive message when Degraded is set.
	// The result itself is always well-formed.
	Error string `json:"error,omitempty"`

	// RequestID is the identifier for tracing.
	RequestID string `json:"request_id,omitempty"`

	// LatencyMS is the total generation latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// GeneratedAt is when the result was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// PostStore is the read-only query layer over the external post store.
// Implementations must never be mutated by the engine.
type PostStore interface {
	// RecentPosts returns posts created after since, newest first.
	RecentPosts(ctx context.Context, since time.Time, limit int) ([]CandidatePost, error)

	// TrendingCandidates returns posts created after since restricted
	// to broadly-public tag categories, newest first. Ranking is the
	// caller's concern.
	TrendingCandidates(ctx context.Context, since time.Time, tags []string, limit int) ([]CandidatePost, error)

	// AuthoredPosts returns posts by the given authors created after
	// since, newest first.
	AuthoredPosts(ctx context.Context, authorIDs []int64, since time.Time, limit int) ([]CandidatePost, error)
}

// GraphService resolves a viewer's relationship snapshot.
// Implemented by the external social graph service.
type GraphService interface {
	// Relationships returns the viewer's relationship snapshot.
	Relationships(ctx context.Context, viewerID int64) (*RelationshipSet, error)
}

// EngagementStatusStore resolves viewer-specific engagement flags for
// the ANNOTATING phase. Lookups are keyed by already-chosen post IDs.
type EngagementStatusStore interface {
	// LikedPosts returns the subset of postIDs the viewer has liked.
	LikedPosts(ctx context.Context, viewerID int64, postIDs []int64) (map[int64]bool, error)
}

// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agoranet/agora/internal/metrics"
)

// State tracks the orchestrator's progress through one feed generation
// call. DEGRADED is terminal alongside DONE: selection proceeds with
// whatever pools succeeded rather than raising.
type State int

const (
	// StateFetchingPools is the concurrent pool fan-out phase.
	StateFetchingPools State = iota
	// StateFiltering applies audience and exclusion filtering.
	StateFiltering
	// StateSelecting runs the selection algorithm.
	StateSelecting
	// StateAnnotating attaches viewer-specific flags.
	StateAnnotating
	// StateDone is the successful terminal state.
	StateDone
	// StateDegraded is the terminal state when a collaborator failed;
	// the result is well-formed but built from partial data.
	StateDegraded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateFetchingPools:
		return "fetching_pools"
	case StateFiltering:
		return "filtering"
	case StateSelecting:
		return "selecting"
	case StateAnnotating:
		return "annotating"
	case StateDone:
		return "done"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Algorithm names reported in responses and analytics.
const (
	AlgorithmSlotRoll         = "slot_roll"
	AlgorithmProbabilityCloud = "probability_cloud"
)

// OrchestratorConfig holds operational limits for feed generation.
type OrchestratorConfig struct {
	// PoolTimeout is the per-pool fetch timeout. A timed-out pool is
	// treated as empty. Default: 2s.
	PoolTimeout time.Duration `json:"pool_timeout"`

	// OverfetchFactor scales the per-pool fetch limit relative to the
	// requested output size, so exhausted slots can fall through.
	// Default: 3.
	OverfetchFactor int `json:"overfetch_factor"`

	// DefaultSlots is the slot count when the caller does not specify.
	// Default: 20.
	DefaultSlots int `json:"default_slots"`

	// MaxRankedCount caps probability-cloud output size. Default: 100.
	MaxRankedCount int `json:"max_ranked_count"`

	// Weights is the default weight profile for probability-cloud
	// selection. Caller overrides are applied on top per request.
	Weights WeightConfig `json:"weights"`
}

// DefaultOrchestratorConfig returns production defaults.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		PoolTimeout:     2 * time.Second,
		OverfetchFactor: 3,
		DefaultSlots:    20,
		MaxRankedCount:  100,
		Weights:         DefaultWeightConfig(),
	}
}

// Validate checks the configuration for errors.
func (c OrchestratorConfig) Validate() error {
	if c.PoolTimeout <= 0 {
		return fmt.Errorf("pool_timeout must be positive, got %v", c.PoolTimeout)
	}
	if c.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch_factor must be at least 1, got %d", c.OverfetchFactor)
	}
	if c.DefaultSlots < 1 || c.DefaultSlots > MaxSlots {
		return fmt.Errorf("default_slots must be in [1, %d], got %d", MaxSlots, c.DefaultSlots)
	}
	if c.MaxRankedCount < 1 {
		return fmt.Errorf("max_ranked_count must be positive, got %d", c.MaxRankedCount)
	}
	return c.Weights.Validate()
}

// Orchestrator is the feed engine entry point called by the web layer.
// It is stateless across calls: all mutable state is local to one call,
// so it is safe for concurrent use.
type Orchestrator struct {
	cfg       OrchestratorConfig
	providers []Provider
	graph     GraphService
	likes     EngagementStatusStore
	cloud     *CloudSelector
	slotRoll  *SlotRollSelector
	logger    zerolog.Logger
}

// NewOrchestrator creates a feed orchestrator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewOrchestrator(cfg OrchestratorConfig, providers []Provider, graph GraphService, likes EngagementStatusStore, cloud *CloudSelector, slotRoll *SlotRollSelector, logger zerolog.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no pool providers configured")
	}
	return &Orchestrator{
		cfg:       cfg,
		providers: providers,
		graph:     graph,
		likes:     likes,
		cloud:     cloud,
		slotRoll:  slotRoll,
		logger:    logger.With().Str("component", "feed").Logger(),
	}, nil
}

// SlotFeedRequest is one slot-roll feed generation call.
type SlotFeedRequest struct {
	// ViewerID is the authenticated viewer, or 0 for anonymous.
	ViewerID int64

	// Slots is the number of output positions. Clamped to [1, MaxSlots];
	// zero means the configured default.
	Slots int

	// ExcludeIDs lists previously shown post IDs for infinite-scroll
	// continuation.
	ExcludeIDs []int64

	// RequestID is the identifier for tracing.
	RequestID string
}

// RankedFeedRequest is one probability-cloud feed generation call.
type RankedFeedRequest struct {
	// ViewerID is the authenticated viewer, or 0 for anonymous.
	ViewerID int64

	// Count is the number of posts to return. Callers over-fetch to
	// allow stable pagination despite the stochastic ordering.
	Count int

	// ExcludeIDs lists previously shown post IDs.
	ExcludeIDs []int64

	// Overrides optionally replaces part or all of the default weight
	// profile for this request.
	Overrides *WeightOverrides

	// RequestID is the identifier for tracing.
	RequestID string
}

// request-scoped working set shared by both algorithms.
type generation struct {
	state     State
	rel       *RelationshipSet
	pools     map[Pool][]CandidatePost
	exclude   ExclusionSet
	degraded  bool
	failures  []string
	startedAt time.Time
}

// GenerateSlotFeed produces a slot-roll feed page. It never fails for
// collaborator errors: failed pools and graph lookups degrade the result
// instead.
func (o *Orchestrator) GenerateSlotFeed(ctx context.Context, req SlotFeedRequest) *FeedResult {
	slots := req.Slots
	if slots <= 0 {
		slots = o.cfg.DefaultSlots
	}
	if slots > MaxSlots {
		slots = MaxSlots
	}

	table := PublicThresholdTable()
	viewerClass := "anonymous"
	if req.ViewerID != 0 {
		table = AuthenticatedThresholdTable()
		viewerClass = "authenticated"
	}
	metrics.FeedRequestsTotal.WithLabelValues(AlgorithmSlotRoll, viewerClass).Inc()

	gen := o.begin(ctx, req.ViewerID, req.ExcludeIDs, table.Pools(), slots*o.cfg.OverfetchFactor+len(req.ExcludeIDs))

	gen.state = StateFiltering
	for pool, posts := range gen.pools {
		gen.pools[pool] = FilterVisible(posts, gen.rel, gen.exclude)
	}

	gen.state = StateSelecting
	selected, stats := o.slotRoll.Generate(gen.pools, table, slots, gen.exclude)
	if unfilled := stats.TotalSlots - stats.FilledSlots; unfilled > 0 {
		metrics.SlotsUnfilled.Add(float64(unfilled))
	}

	o.annotate(ctx, gen, req.ViewerID, selected)

	return o.finish(gen, req.RequestID, AlgorithmSlotRoll, selected, stats, nil)
}

// GenerateRankedFeed produces a probability-cloud feed over the merged
// candidate set of all pools. The only caller-surfaced error is a
// malformed weight override; everything else degrades.
func (o *Orchestrator) GenerateRankedFeed(ctx context.Context, req RankedFeedRequest) (*FeedResult, error) {
	if err := req.Overrides.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWeightOverride, err)
	}
	weights := req.Overrides.Apply(o.cfg.Weights)

	count := req.Count
	if count <= 0 {
		count = o.cfg.DefaultSlots
	}
	if count > o.cfg.MaxRankedCount {
		count = o.cfg.MaxRankedCount
	}

	viewerClass := "anonymous"
	wantPools := []Pool{PoolRandom, PoolTrending}
	if req.ViewerID != 0 {
		viewerClass = "authenticated"
		wantPools = append(wantPools, PoolPersonalized)
	}
	metrics.FeedRequestsTotal.WithLabelValues(AlgorithmProbabilityCloud, viewerClass).Inc()

	gen := o.begin(ctx, req.ViewerID, req.ExcludeIDs, wantPools, count*o.cfg.OverfetchFactor+len(req.ExcludeIDs))

	gen.state = StateFiltering
	merged, origins := o.mergePools(gen)

	gen.state = StateSelecting
	chosen := o.cloud.Select(merged, weights, gen.rel, count, gen.startedAt)

	selected := make([]SelectedPost, 0, len(chosen))
	dist := make(map[string]int)
	for _, post := range chosen {
		origin := origins[post.ID]
		selected = append(selected, SelectedPost{
			Post:       post,
			Origin:     origin,
			OriginPool: origin.String(),
		})
		dist[origin.String()]++
	}

	o.annotate(ctx, gen, req.ViewerID, selected)

	stats := FeedStats{
		TotalSlots:       count,
		FilledSlots:      len(selected),
		PoolDistribution: dist,
	}
	return o.finish(gen, req.RequestID, AlgorithmProbabilityCloud, selected, stats, &weights), nil
}

// begin runs the FETCHING_POOLS phase: resolve the relationship snapshot
// and fan out pool fetches concurrently, each under its own timeout.
func (o *Orchestrator) begin(ctx context.Context, viewerID int64, excludeIDs []int64, wantPools []Pool, limit int) *generation {
	gen := &generation{
		state:     StateFetchingPools,
		exclude:   NewExclusionSet(excludeIDs),
		pools:     make(map[Pool][]CandidatePost, len(wantPools)),
		startedAt: time.Now(),
	}

	gen.rel = o.lookupRelationships(ctx, viewerID, gen)

	req := PoolRequest{
		ViewerID:      viewerID,
		Relationships: gen.rel,
		Limit:         limit,
		Now:           gen.startedAt,
	}

	want := make(map[Pool]struct{}, len(wantPools))
	for _, p := range wantPools {
		want[p] = struct{}{}
	}

	type poolResult struct {
		pool  Pool
		posts []CandidatePost
		err   error
	}

	var wg sync.WaitGroup
	results := make([]poolResult, 0, len(o.providers))
	var mu sync.Mutex

	for _, provider := range o.providers {
		if _, ok := want[provider.Pool()]; !ok {
			continue
		}
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.PoolTimeout)
			defer cancel()

			start := time.Now()
			posts, err := p.Fetch(fetchCtx, req)
			metrics.PoolFetchDuration.WithLabelValues(p.Pool().String()).Observe(time.Since(start).Seconds())

			mu.Lock()
			results = append(results, poolResult{pool: p.Pool(), posts: posts, err: err})
			mu.Unlock()
		}(provider)
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			// Pool fetch failure is recovered locally: the pool is
			// treated as empty and the result marked degraded.
			metrics.PoolFetchFailures.WithLabelValues(res.pool.String()).Inc()
			metrics.FeedDegradedTotal.WithLabelValues("pool_fetch").Inc()
			o.logger.Warn().
				Str("pool", res.pool.String()).
				Err(res.err).
				Msg("pool fetch failed, treating as empty")
			gen.degraded = true
			gen.failures = append(gen.failures, fmt.Sprintf("%s pool unavailable", res.pool))
			gen.pools[res.pool] = nil
			continue
		}
		metrics.PoolCandidates.WithLabelValues(res.pool.String()).Observe(float64(len(res.posts)))
		gen.pools[res.pool] = res.posts
	}
	return gen
}

// lookupRelationships resolves the viewer's graph snapshot, degrading to
// an empty set when the graph service is unavailable. The empty set is
// the safe default: Personalized degrades to empty and the audience
// filter treats the viewer as having no friends.
func (o *Orchestrator) lookupRelationships(ctx context.Context, viewerID int64, gen *generation) *RelationshipSet {
	if viewerID == 0 || o.graph == nil {
		return EmptyRelationshipSet()
	}

	rel, err := o.graph.Relationships(ctx, viewerID)
	if err != nil {
		metrics.RelationshipLookupFailures.Inc()
		metrics.FeedDegradedTotal.WithLabelValues("relationship_lookup").Inc()
		o.logger.Warn().
			Int64("viewer_id", viewerID).
			Err(err).
			Msg("relationship lookup failed, treating viewer as unconnected")
		gen.degraded = true
		gen.failures = append(gen.failures, "relationship lookup unavailable")
		return EmptyRelationshipSet()
	}
	if rel == nil {
		return EmptyRelationshipSet()
	}
	return rel
}

// mergePools flattens the fetched pools into one visibility-filtered,
// de-duplicated candidate set, recording which pool contributed each
// post. When pools overlap, the higher-priority pool wins provenance.
func (o *Orchestrator) mergePools(gen *generation) ([]CandidatePost, map[int64]Pool) {
	pools := make([]Pool, 0, len(gen.pools))
	for pool := range gen.pools {
		pools = append(pools, pool)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].priority() > pools[j].priority() })

	merged := make([]CandidatePost, 0)
	origins := make(map[int64]Pool)
	for _, pool := range pools {
		for _, post := range FilterVisible(gen.pools[pool], gen.rel, gen.exclude) {
			if _, ok := origins[post.ID]; ok {
				continue
			}
			origins[post.ID] = pool
			merged = append(merged, post)
		}
	}
	return merged, origins
}

// annotate runs the ANNOTATING phase: attach viewer-specific isLiked
// flags via read-only lookups keyed by the already-chosen post IDs.
// Annotation failure degrades the result without dropping posts.
func (o *Orchestrator) annotate(ctx context.Context, gen *generation, viewerID int64, selected []SelectedPost) {
	gen.state = StateAnnotating
	if viewerID == 0 || o.likes == nil || len(selected) == 0 {
		return
	}

	ids := make([]int64, 0, len(selected))
	for _, s := range selected {
		ids = append(ids, s.Post.ID)
	}

	liked, err := o.likes.LikedPosts(ctx, viewerID, ids)
	if err != nil {
		metrics.FeedDegradedTotal.WithLabelValues("annotation").Inc()
		o.logger.Warn().
			Int64("viewer_id", viewerID).
			Err(err).
			Msg("like-status lookup failed, returning unannotated posts")
		gen.degraded = true
		gen.failures = append(gen.failures, "annotation unavailable")
		return
	}

	for i := range selected {
		selected[i].IsLiked = liked[selected[i].Post.ID]
	}
}

// finish assembles the terminal result and records outcome metrics.
func (o *Orchestrator) finish(gen *generation, requestID, algorithm string, selected []SelectedPost, stats FeedStats, weights *WeightConfig) *FeedResult {
	gen.state = StateDone
	if gen.degraded {
		gen.state = StateDegraded
	}

	latency := time.Since(gen.startedAt)
	metrics.FeedGenerationDuration.WithLabelValues(algorithm).Observe(latency.Seconds())
	metrics.FeedPostsReturned.WithLabelValues(algorithm).Observe(float64(len(selected)))

	result := &FeedResult{
		Posts:       selected,
		Stats:       stats,
		Algorithm:   algorithm,
		WeightsUsed: weights,
		Degraded:    gen.degraded,
		RequestID:   requestID,
		LatencyMS:   latency.Milliseconds(),
		GeneratedAt: gen.startedAt,
	}
	if gen.degraded {
		result.Error = strings.Join(gen.failures, "; ")
	}

	o.logger.Debug().
		Str("request_id", requestID).
		Str("algorithm", algorithm).
		Str("state", gen.state.String()).
		Int("returned", len(selected)).
		Int64("latency_ms", result.LatencyMS).
		Bool("degraded", gen.degraded).
		Msg("feed generation complete")

	return result
}

// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// rollRange is the exclusive upper bound of a slot roll.
const rollRange = 100

// MaxSlots caps the number of output positions per call.
const MaxSlots = 50

// SlotThreshold maps rolls below UpperBound (exclusive) to a pool,
// after earlier entries have been exhausted.
type SlotThreshold struct {
	// UpperBound is the exclusive upper roll bound for this entry.
	UpperBound int `json:"upper_bound"`

	// Pool is the pool selected for rolls in this band.
	Pool Pool `json:"pool"`
}

// SlotThresholdTable is an ordered list of threshold entries covering
// the roll range [0, 100).
type SlotThresholdTable []SlotThreshold

// PublicThresholdTable is the fixed contract for logged-out viewers:
// rolls 0-29 RANDOM (30%), 30-99 TRENDING (70%).
func PublicThresholdTable() SlotThresholdTable {
	return SlotThresholdTable{
		{UpperBound: 30, Pool: PoolRandom},
		{UpperBound: 100, Pool: PoolTrending},
	}
}

// AuthenticatedThresholdTable is the fixed contract for authenticated
// viewers: rolls 0-9 RANDOM (10%), 10-19 TRENDING (10%),
// 20-99 PERSONALIZED (80%).
func AuthenticatedThresholdTable() SlotThresholdTable {
	return SlotThresholdTable{
		{UpperBound: 10, Pool: PoolRandom},
		{UpperBound: 20, Pool: PoolTrending},
		{UpperBound: 100, Pool: PoolPersonalized},
	}
}

// Validate checks the table is non-empty, strictly increasing and covers
// the full roll range.
func (t SlotThresholdTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("threshold table is empty")
	}
	prev := 0
	for i, entry := range t {
		if entry.UpperBound <= prev {
			return fmt.Errorf("threshold table entry %d: bound %d not increasing", i, entry.UpperBound)
		}
		prev = entry.UpperBound
	}
	if prev != rollRange {
		return fmt.Errorf("threshold table final bound %d, want %d", prev, rollRange)
	}
	return nil
}

// PoolFor maps a roll in [0, 100) to its pool: the first entry whose
// upper bound exceeds the roll.
func (t SlotThresholdTable) PoolFor(roll int) Pool {
	for _, entry := range t {
		if roll < entry.UpperBound {
			return entry.Pool
		}
	}
	// Unreachable for validated tables; fall back to the last entry.
	return t[len(t)-1].Pool
}

// Pools returns the distinct pools appearing in the table.
func (t SlotThresholdTable) Pools() []Pool {
	seen := make(map[Pool]struct{}, len(t))
	out := make([]Pool, 0, len(t))
	for _, entry := range t {
		if _, ok := seen[entry.Pool]; ok {
			continue
		}
		seen[entry.Pool] = struct{}{}
		out = append(out, entry.Pool)
	}
	return out
}

// ExpectedDistribution returns the expected filled-slot count per pool
// for the given slot count, derived from the table's roll bands. The
// numbers are informational and never feed back into selection.
func (t SlotThresholdTable) ExpectedDistribution(slots int) map[string]float64 {
	out := make(map[string]float64, len(t))
	prev := 0
	for _, entry := range t {
		share := float64(entry.UpperBound-prev) / float64(rollRange)
		out[entry.Pool.String()] += share * float64(slots)
		prev = entry.UpperBound
	}
	return out
}

// SlotRollSelector routes each output position independently across the
// pre-fetched pools. The pool composition guarantee is aggregate, not
// per-slot: only the expected distribution matches the threshold table
// over many calls.
type SlotRollSelector struct {
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewSlotRollSelector creates a slot-roll selector. A nil rng falls back
// to a time-seeded source.
func NewSlotRollSelector(rng *rand.Rand) *SlotRollSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // slot routing, not crypto
	}
	return &SlotRollSelector{rng: rng}
}

// poolCursor walks a pre-ranked candidate list, skipping excluded IDs.
type poolCursor struct {
	posts []CandidatePost
	next  int
}

// take returns the next non-excluded candidate, or false when exhausted.
func (c *poolCursor) take(exclude ExclusionSet) (CandidatePost, bool) {
	for c.next < len(c.posts) {
		post := c.posts[c.next]
		c.next++
		if exclude.Contains(post.ID) {
			continue
		}
		return post, true
	}
	return CandidatePost{}, false
}

// Generate fills up to slots positions from the pre-fetched,
// pre-ranked, visibility-filtered pools. For each slot it rolls an
// integer in [0,100), maps it through the table, and draws from that
// pool; an exhausted pool falls through to the next-lower-priority pool
// before the slot is left unfilled. Selected IDs join the exclusion set
// immediately so later slots cannot repeat them.
func (s *SlotRollSelector) Generate(pools map[Pool][]CandidatePost, table SlotThresholdTable, slots int, exclude ExclusionSet) ([]SelectedPost, FeedStats) {
	if slots > MaxSlots {
		slots = MaxSlots
	}
	if exclude == nil {
		exclude = make(ExclusionSet)
	}

	cursors := make(map[Pool]*poolCursor, len(pools))
	for pool, posts := range pools {
		cursors[pool] = &poolCursor{posts: posts}
	}

	stats := FeedStats{
		TotalSlots:           slots,
		PoolDistribution:     make(map[string]int),
		ExpectedDistribution: table.ExpectedDistribution(slots),
	}

	selected := make([]SelectedPost, 0, slots)
	for i := 0; i < slots; i++ {
		s.rngMu.Lock()
		roll := s.rng.Intn(rollRange)
		s.rngMu.Unlock()

		rolled := table.PoolFor(roll)
		post, origin, ok := drawWithFallthrough(cursors, rolled, exclude)
		if !ok {
			continue // slot left unfilled
		}

		exclude.Add(post.ID)
		selected = append(selected, SelectedPost{
			Post:       post,
			Origin:     origin,
			OriginPool: origin.String(),
		})
		stats.PoolDistribution[origin.String()]++
	}

	stats.FilledSlots = len(selected)
	return selected, stats
}

// drawWithFallthrough draws from the rolled pool, then from each
// lower-priority pool in turn (personalized -> trending -> random).
func drawWithFallthrough(cursors map[Pool]*poolCursor, rolled Pool, exclude ExclusionSet) (CandidatePost, Pool, bool) {
	order := make([]Pool, 0, len(cursors))
	for pool := range cursors {
		if pool.priority() <= rolled.priority() {
			order = append(order, pool)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].priority() > order[j].priority() })

	for _, pool := range order {
		if post, ok := cursors[pool].take(exclude); ok {
			return post, pool, true
		}
	}
	return CandidatePost{}, rolled, false
}

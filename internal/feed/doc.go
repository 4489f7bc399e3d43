// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

// Package feed implements the ranking and selection engine that decides,
// for a given viewer (or an anonymous visitor), which posts to show and
// in what order.
//
// The engine is composed of small, independently testable pieces:
//
//   - EngagementScorer: pure scoring with time decay and reputation
//     weighting
//   - Provider implementations: Random, Trending and Personalized
//     candidate pools over the external post store
//   - IsVisible / FilterVisible: audience filtering applied before any
//     candidate may be selected
//   - CloudSelector: weighted sampling without replacement over a merged
//     candidate set ("probability cloud")
//   - SlotRollSelector: per-slot stochastic routing across pools via a
//     threshold table
//   - Orchestrator: the entry point called by the web layer, running the
//     FETCHING_POOLS -> FILTERING -> SELECTING -> ANNOTATING state
//     machine with a DEGRADED path for collaborator failures
//
// The engine is read-only over its collaborators and stateless across
// calls: exclusion sets arrive as request parameters, every call is
// independently retryable, and all randomness flows through injectable
// sources so tests can seed them.
//
// Storage, the social graph, authentication and delivery are external
// collaborators consumed through the PostStore, GraphService and
// EngagementStatusStore interfaces; this package never mutates them.
package feed

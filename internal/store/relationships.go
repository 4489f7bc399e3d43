// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package store

import (
	"context"
	"fmt"

	"github.com/agoranet/agora/internal/feed"
)

const followsQuery = `SELECT author_id, subscribed FROM follows WHERE viewer_id = $1`

const friendshipsQuery = `SELECT friend_id FROM friendships WHERE user_id = $1`

// Relationships resolves the viewer's graph snapshot: followed and
// subscribed authors from follows, friends from friendships. Friends
// also populate the visibility set used for FRIENDS_ONLY and
// NON_FRIENDS audience decisions.
func (s *Store) Relationships(ctx context.Context, viewerID int64) (*feed.RelationshipSet, error) {
	out, err := s.execute(ctx, "relationships", func(ctx context.Context) (interface{}, error) {
		rel := feed.EmptyRelationshipSet()

		rows, err := s.db.QueryContext(ctx, followsQuery, viewerID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var authorID int64
			var subscribed bool
			if err := rows.Scan(&authorID, &subscribed); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan follow: %w", err)
			}
			rel.Followed[authorID] = struct{}{}
			if subscribed {
				rel.Subscribed[authorID] = struct{}{}
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		rows, err = s.db.QueryContext(ctx, friendshipsQuery, viewerID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var friendID int64
			if err := rows.Scan(&friendID); err != nil {
				return nil, fmt.Errorf("scan friendship: %w", err)
			}
			rel.Friends[friendID] = struct{}{}
			rel.FriendVisibility[friendID] = struct{}{}
		}
		return rel, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out.(*feed.RelationshipSet), nil
}

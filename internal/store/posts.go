// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agoranet/agora/internal/feed"
)

// candidateColumns is the shared projection for candidate queries.
// Comment engagement is aggregated per post at query time; author
// reputation falls back to the platform default for authors with no
// recorded score.
var candidateColumns = `
	p.id, p.author_id, p.created_at, p.audience,
	p.likes, p.dislikes, p.agrees, p.disagrees,
	p.comment_count, p.shares, p.views, p.community_notes, p.reports,
	COALESCE(ce.likes, 0), COALESCE(ce.dislikes, 0),
	COALESCE(ce.agrees, 0), COALESCE(ce.disagrees, 0),
	COALESCE(u.reputation, ` + strconv.Itoa(feed.DefaultAuthorReputation) + `),
	COALESCE(array_to_string(p.tags, ','), '')`

const candidateJoins = `
	FROM posts p
	LEFT JOIN users u ON u.id = p.author_id
	LEFT JOIN (
		SELECT post_id,
		       SUM(likes) AS likes, SUM(dislikes) AS dislikes,
		       SUM(agrees) AS agrees, SUM(disagrees) AS disagrees
		FROM comments
		WHERE deleted_at IS NULL
		GROUP BY post_id
	) ce ON ce.post_id = p.id`

var recentPostsQuery = `SELECT` + candidateColumns + candidateJoins + `
	WHERE p.created_at >= $1 AND p.deleted_at IS NULL
	ORDER BY p.created_at DESC
	LIMIT $2`

var trendingCandidatesQuery = `SELECT` + candidateColumns + candidateJoins + `
	WHERE p.created_at >= $1 AND p.deleted_at IS NULL
	  AND p.tags && string_to_array($2, ',')
	ORDER BY p.created_at DESC
	LIMIT $3`

var authoredPostsQuery = `SELECT` + candidateColumns + candidateJoins + `
	WHERE p.created_at >= $1 AND p.deleted_at IS NULL
	  AND p.author_id = ANY(string_to_array($2, ',')::bigint[])
	ORDER BY p.created_at DESC
	LIMIT $3`

// RecentPosts returns posts created after since, newest first.
func (s *Store) RecentPosts(ctx context.Context, since time.Time, limit int) ([]feed.CandidatePost, error) {
	out, err := s.execute(ctx, "recent_posts", func(ctx context.Context) (interface{}, error) {
		rows, err := s.db.QueryContext(ctx, recentPostsQuery, since, limit)
		if err != nil {
			return nil, err
		}
		return scanCandidates(rows)
	})
	if err != nil {
		return nil, err
	}
	return out.([]feed.CandidatePost), nil
}

// TrendingCandidates returns recent posts restricted to the given tag
// categories. With no tags it behaves like RecentPosts.
func (s *Store) TrendingCandidates(ctx context.Context, since time.Time, tags []string, limit int) ([]feed.CandidatePost, error) {
	if len(tags) == 0 {
		return s.RecentPosts(ctx, since, limit)
	}

	out, err := s.execute(ctx, "trending_candidates", func(ctx context.Context) (interface{}, error) {
		rows, err := s.db.QueryContext(ctx, trendingCandidatesQuery, since, strings.Join(tags, ","), limit)
		if err != nil {
			return nil, err
		}
		return scanCandidates(rows)
	})
	if err != nil {
		return nil, err
	}
	return out.([]feed.CandidatePost), nil
}

// AuthoredPosts returns posts by the given authors created after since.
func (s *Store) AuthoredPosts(ctx context.Context, authorIDs []int64, since time.Time, limit int) ([]feed.CandidatePost, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(authorIDs))
	for i, id := range authorIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	out, err := s.execute(ctx, "authored_posts", func(ctx context.Context) (interface{}, error) {
		rows, err := s.db.QueryContext(ctx, authoredPostsQuery, since, strings.Join(ids, ","), limit)
		if err != nil {
			return nil, err
		}
		return scanCandidates(rows)
	})
	if err != nil {
		return nil, err
	}
	return out.([]feed.CandidatePost), nil
}

// LikedPosts returns which of postIDs the viewer has liked.
func (s *Store) LikedPosts(ctx context.Context, viewerID int64, postIDs []int64) (map[int64]bool, error) {
	if len(postIDs) == 0 {
		return map[int64]bool{}, nil
	}

	ids := make([]string, len(postIDs))
	for i, id := range postIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	const query = `SELECT post_id FROM post_likes
	WHERE user_id = $1 AND post_id = ANY(string_to_array($2, ',')::bigint[])`

	out, err := s.execute(ctx, "liked_posts", func(ctx context.Context) (interface{}, error) {
		rows, err := s.db.QueryContext(ctx, query, viewerID, strings.Join(ids, ","))
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		liked := make(map[int64]bool, len(postIDs))
		for rows.Next() {
			var postID int64
			if err := rows.Scan(&postID); err != nil {
				return nil, fmt.Errorf("scan liked post: %w", err)
			}
			liked[postID] = true
		}
		return liked, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out.(map[int64]bool), nil
}

// scanCandidates drains rows into candidate snapshots. The audience
// column is parsed at this boundary; unrecognized values become
// AudienceUnknown and stay visible downstream.
func scanCandidates(rows *sql.Rows) ([]feed.CandidatePost, error) {
	defer rows.Close()

	var posts []feed.CandidatePost
	for rows.Next() {
		var (
			post     feed.CandidatePost
			audience string
			tags     string
		)
		err := rows.Scan(
			&post.ID, &post.AuthorID, &post.CreatedAt, &audience,
			&post.Metrics.Likes, &post.Metrics.Dislikes,
			&post.Metrics.Agrees, &post.Metrics.Disagrees,
			&post.Metrics.Comments, &post.Metrics.Shares,
			&post.Metrics.Views, &post.Metrics.CommunityNotes,
			&post.Metrics.Reports,
			&post.CommentEngagement.Likes, &post.CommentEngagement.Dislikes,
			&post.CommentEngagement.Agrees, &post.CommentEngagement.Disagrees,
			&post.AuthorReputation,
			&tags,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}

		post.Audience = feed.ParseAudience(audience)
		if tags != "" {
			post.Tags = strings.Split(tags, ",")
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

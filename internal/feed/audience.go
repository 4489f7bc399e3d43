// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

// IsVisible reports whether a post may be shown to the viewer described
// by the relationship snapshot. It is applied before any candidate may
// be scored or selected, never as a post-hoc strike from a chosen list.
//
// PUBLIC posts are always visible. FRIENDS_ONLY posts require the author
// to be in the viewer's friend-visibility set; NON_FRIENDS posts require
// the opposite. Unknown audience values are visible (fail-open).
func IsVisible(post CandidatePost, rel *RelationshipSet) bool {
	switch post.Audience {
	case AudienceFriendsOnly:
		return isFriendForVisibility(post.AuthorID, rel)
	case AudienceNonFriends:
		return !isFriendForVisibility(post.AuthorID, rel)
	default:
		return true
	}
}

func isFriendForVisibility(authorID int64, rel *RelationshipSet) bool {
	if rel == nil || rel.FriendVisibility == nil {
		return false
	}
	_, ok := rel.FriendVisibility[authorID]
	return ok
}

// FilterVisible returns the candidates visible to the viewer, preserving
// input order. Excluded IDs are dropped in the same pass so a filtered
// list is immediately selectable.
func FilterVisible(candidates []CandidatePost, rel *RelationshipSet, exclude ExclusionSet) []CandidatePost {
	out := make([]CandidatePost, 0, len(candidates))
	for _, post := range candidates {
		if exclude != nil && exclude.Contains(post.ID) {
			continue
		}
		if !IsVisible(post, rel) {
			continue
		}
		out = append(out, post)
	}
	return out
}

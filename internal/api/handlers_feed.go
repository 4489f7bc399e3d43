// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package api

import (
	"errors"
	"net/http"

	"github.com/agoranet/agora/internal/auth"
	"github.com/agoranet/agora/internal/feed"
	"github.com/agoranet/agora/internal/logging"
	"github.com/agoranet/agora/internal/validation"
)

// Feed handles GET /api/v1/feed using slot-roll selection.
// Collaborator failures degrade the result instead of failing the request,
// so this endpoint returns 200 with a degraded payload rather than 5xx.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	params, err := parseSlotFeedParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	requestID := logging.RequestIDFromContext(r.Context())
	viewerID := auth.ViewerFromContext(r.Context())

	result := h.orchestrator.GenerateSlotFeed(r.Context(), feed.SlotFeedRequest{
		ViewerID:   viewerID,
		Slots:      params.Slots,
		ExcludeIDs: params.ExcludeIDs,
		RequestID:  requestID,
	})

	h.publishFeedEvent(requestID, viewerID, result)
	rw.Success(result)
}

// RankedFeed handles POST /api/v1/feed/ranked using probability-cloud
// selection. Invalid weight overrides are the only client error surfaced
// from the orchestrator; everything else degrades.
func (h *Handler) RankedFeed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body RankedFeedBody
	if err := decodeJSONBody(r, &body); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if ve := validation.ValidateStruct(&body); ve != nil {
		apiErr := ve.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	requestID := logging.RequestIDFromContext(r.Context())
	viewerID := auth.ViewerFromContext(r.Context())

	result, err := h.orchestrator.GenerateRankedFeed(r.Context(), feed.RankedFeedRequest{
		ViewerID:   viewerID,
		Count:      body.Count,
		ExcludeIDs: body.ExcludeIDs,
		Overrides:  body.Weights,
		RequestID:  requestID,
	})
	if err != nil {
		if errors.Is(err, feed.ErrInvalidWeightOverride) {
			rw.ValidationFailed(err.Error(), nil)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Ranked feed generation failed")
		rw.InternalError("feed generation failed")
		return
	}

	h.publishFeedEvent(requestID, viewerID, result)
	rw.Success(result)
}

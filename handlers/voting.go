// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/codema-digital/voting-engine/middleware"
	"github.com/codema-digital/voting-engine/models"
	"github.com/codema-digital/voting-engine/session"
)

type VotingHandler struct {
	svc *session.Service
}

func NewVotingHandler(svc *session.Service) *VotingHandler {
	return &VotingHandler{svc: svc}
}

// CastVote handles POST /sessions/:id/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.VoterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id is required")
		return
	}

	// Record where the ballot came from when the client didn't say.
	if req.DeviceInfo == "" {
		req.DeviceInfo = r.UserAgent() + " " + middleware.GetClientIP(r)
	}

	vote, err := h.svc.CastVote(r.Context(), sessionID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		VoteHash: vote.VoteHash,
		VotedAt:  vote.VotedAt,
	})
}

// MarkPresence handles POST /sessions/:id/presence
func (h *VotingHandler) MarkPresence(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req models.MarkPresenceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.VoterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id is required")
		return
	}
	if req.MarkedBy == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "marked_by is required")
		return
	}

	presence, err := h.svc.MarkPresence(r.Context(), sessionID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, presence)
}

// CanVote handles GET /sessions/:id/can-vote?voter_id=...
func (h *VotingHandler) CanVote(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	voterID := r.URL.Query().Get("voter_id")
	if voterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id is required")
		return
	}

	resp, err := h.svc.CanVote(r.Context(), sessionID, voterID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

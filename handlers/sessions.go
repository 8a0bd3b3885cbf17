// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/codema-digital/voting-engine/middleware"
	"github.com/codema-digital/voting-engine/models"
	"github.com/codema-digital/voting-engine/session"
)

type SessionHandler struct {
	svc *session.Service
}

func NewSessionHandler(svc *session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Create handles POST /sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID: sess.ID,
	})
}

// Start handles POST /sessions/:id/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req models.TransitionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ActorID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "actor_id is required")
		return
	}

	sess, err := h.svc.Start(r.Context(), sessionID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StartSessionResponse{
		StartedAt:   *sess.StartedAt,
		OpeningHash: *sess.OpeningHash,
	})
}

// End handles POST /sessions/:id/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req models.TransitionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ActorID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "actor_id is required")
		return
	}

	sess, results, err := h.svc.End(r.Context(), sessionID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EndSessionResponse{
		EndedAt:     *sess.EndedAt,
		ClosingHash: *sess.ClosingHash,
		Results:     results,
	})
}

// Cancel handles POST /sessions/:id/cancel
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req models.TransitionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ActorID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "actor_id is required")
		return
	}

	sess, err := h.svc.Cancel(r.Context(), sessionID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, sess)
}

// ListByMeeting handles GET /meetings/:meetingId/sessions
func (h *SessionHandler) ListByMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("meetingId")
	if meetingID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "meeting id is required")
		return
	}

	sessions, err := h.svc.ListByMeeting(r.Context(), meetingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, sessions)
}

// Detail handles GET /sessions/:id
// The optional X-Voter-ID header selects whose vote comes back as
// current_user_vote.
func (h *SessionHandler) Detail(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	voterID := r.Header.Get("X-Voter-ID")

	detail, err := h.svc.Detail(r.Context(), sessionID, voterID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// Export handles GET /sessions/:id/export
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	export, err := h.svc.Export(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	slog.Info("session exported", "session_id", sessionID, "checksum", export.Checksum)

	middleware.JSONResponse(w, http.StatusOK, export)
}

// AuditLog handles GET /sessions/:id/audit
func (h *SessionHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	entries, err := h.svc.AuditLog(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, entries)
}

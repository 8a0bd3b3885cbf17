// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/codema-digital/voting-engine/middleware"
	"github.com/codema-digital/voting-engine/session"
)

type ResultsHandler struct {
	svc *session.Service
}

func NewResultsHandler(svc *session.Service) *ResultsHandler {
	return &ResultsHandler{svc: svc}
}

// Get handles GET /sessions/:id/results
//
// Open sessions return a live recomputation; closed and cancelled
// sessions return the stored snapshot.
func (h *ResultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	results, err := h.svc.Results(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}

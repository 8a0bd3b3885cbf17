// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/codema-digital/voting-engine/middleware"
	"github.com/codema-digital/voting-engine/session"
	"github.com/codema-digital/voting-engine/store"
)

// writeServiceError maps the session error taxonomy to HTTP statuses.
// A rejected vote always says why (not eligible / already voted /
// session not open), never a generic failure.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *session.ValidationError
	if errors.As(err, &validationErr) {
		middleware.ErrorResponseDetails(w, http.StatusUnprocessableEntity, "Invalid session", validationErr.Violations)
		return
	}

	var transitionErr *session.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		middleware.ErrorResponse(w, http.StatusConflict, transitionErr.Error())
		return
	}

	var eligibleErr *session.NotEligibleError
	if errors.As(err, &eligibleErr) {
		middleware.ErrorResponse(w, http.StatusForbidden, eligibleErr.Reason)
		return
	}

	var optionErr *session.InvalidOptionError
	if errors.As(err, &optionErr) {
		middleware.ErrorResponse(w, http.StatusBadRequest, optionErr.Reason)
		return
	}

	if errors.Is(err, store.ErrDuplicateVote) {
		middleware.ErrorResponse(w, http.StatusConflict, "You have already voted in this session")
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	var storageErr *store.StorageError
	if errors.As(err, &storageErr) {
		slog.Error("storage failure", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Storage unavailable, please retry")
		return
	}

	slog.Error("unexpected service error", "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
}

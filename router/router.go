// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/codema-digital/voting-engine/handlers"
	"github.com/codema-digital/voting-engine/middleware"
	"github.com/codema-digital/voting-engine/session"
)

func NewRouter(svc *session.Service) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc)
	resultsHandler := handlers.NewResultsHandler(svc)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Session lifecycle (coordinator operations)
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.Create))
	mux.HandleFunc("POST /sessions/{id}/start", middleware.WithLogging(sessionHandler.Start))
	mux.HandleFunc("POST /sessions/{id}/end", middleware.WithLogging(sessionHandler.End))
	mux.HandleFunc("POST /sessions/{id}/cancel", middleware.WithLogging(sessionHandler.Cancel))

	// Session retrieval
	mux.HandleFunc("GET /sessions/{id}", middleware.WithLogging(sessionHandler.Detail))
	mux.HandleFunc("GET /meetings/{meetingId}/sessions", middleware.WithLogging(sessionHandler.ListByMeeting))

	// Voting operations
	mux.HandleFunc("POST /sessions/{id}/votes", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("POST /sessions/{id}/presence", middleware.WithLogging(votingHandler.MarkPresence))
	mux.HandleFunc("GET /sessions/{id}/can-vote", middleware.WithLogging(votingHandler.CanVote))

	// Results and audit trail
	mux.HandleFunc("GET /sessions/{id}/results", middleware.WithLogging(resultsHandler.Get))
	mux.HandleFunc("GET /sessions/{id}/audit", middleware.WithLogging(sessionHandler.AuditLog))
	mux.HandleFunc("GET /sessions/{id}/export", middleware.WithLogging(sessionHandler.Export))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("voting-engine API v1"))
	})

	return mux
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codema-digital/voting-engine/models"
	"github.com/codema-digital/voting-engine/session"
	"github.com/codema-digital/voting-engine/testutil"
)

// openSessionWithOptions drives create + start and returns session ID
// and option IDs.
func openSessionWithOptions(t *testing.T, svc *session.Service, handler *SessionHandler) (string, []string) {
	t.Helper()
	sessionID := createSession(t, handler)
	startSession(t, handler, sessionID)

	detail, err := svc.Detail(context.Background(), sessionID, "")
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	ids := make([]string, len(detail.Options))
	for i, opt := range detail.Options {
		ids[i] = opt.ID
	}
	return sessionID, ids
}

func TestCastVoteHandler(t *testing.T) {
	svc := newTestService(t)
	sessionHandler := NewSessionHandler(svc)
	handler := NewVotingHandler(svc)

	sessionID, options := openSessionWithOptions(t, svc, sessionHandler)
	opt := options[0]

	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/votes",
		models.CastVoteRequest{VoterID: "councilor-1", OptionID: &opt}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.CastVote(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CastVoteResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.VoteHash == "" {
		t.Error("Expected a vote hash")
	}

	// The same voter again conflicts
	req = testutil.MakeRequest("POST", "/sessions/"+sessionID+"/votes",
		models.CastVoteRequest{VoterID: "councilor-1", OptionID: &opt}, nil)
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	handler.CastVote(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestCastVoteHandlerStatuses(t *testing.T) {
	svc := newTestService(t)
	sessionHandler := NewSessionHandler(svc)
	handler := NewVotingHandler(svc)

	sessionID, options := openSessionWithOptions(t, svc, sessionHandler)
	opt := options[0]

	tests := []struct {
		name           string
		body           models.CastVoteRequest
		expectedStatus int
	}{
		{
			name:           "missing voter_id",
			body:           models.CastVoteRequest{OptionID: &opt},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "voter not present",
			body:           models.CastVoteRequest{VoterID: "stranger", OptionID: &opt},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "unknown option",
			body: func() models.CastVoteRequest {
				bogus := "not-an-option"
				return models.CastVoteRequest{VoterID: "councilor-1", OptionID: &bogus}
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "abstention allowed",
			body:           models.CastVoteRequest{VoterID: "councilor-2"},
			expectedStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/votes", tt.body, nil)
			req.SetPathValue("id", sessionID)
			w := httptest.NewRecorder()
			handler.CastVote(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestCastVoteHandlerSessionNotOpen(t *testing.T) {
	svc := newTestService(t)
	sessionHandler := NewSessionHandler(svc)
	handler := NewVotingHandler(svc)

	// Still preparing
	sessionID := createSession(t, sessionHandler)

	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/votes",
		models.CastVoteRequest{VoterID: "councilor-1"}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.CastVote(w, req)
	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestMarkPresenceHandler(t *testing.T) {
	svc := newTestService(t)
	sessionHandler := NewSessionHandler(svc)
	handler := NewVotingHandler(svc)

	sessionID := createSession(t, sessionHandler)

	// A late correction marks councilor-3 absent with justification
	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/presence",
		models.MarkPresenceRequest{VoterID: "councilor-3", Present: false, Justification: "medical leave", MarkedBy: "secretary-1"}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.MarkPresence(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.VotingPresence
	testutil.AssertJSON(t, w, &resp)
	if resp.Present || resp.Justification != "medical leave" {
		t.Errorf("Expected corrected record, got %+v", resp)
	}

	// marked_by is mandatory
	req = testutil.MakeRequest("POST", "/sessions/"+sessionID+"/presence",
		models.MarkPresenceRequest{VoterID: "councilor-3", Present: true}, nil)
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	handler.MarkPresence(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestCanVoteHandler(t *testing.T) {
	svc := newTestService(t)
	sessionHandler := NewSessionHandler(svc)
	handler := NewVotingHandler(svc)

	sessionID, options := openSessionWithOptions(t, svc, sessionHandler)

	req := testutil.MakeRequest("GET", "/sessions/"+sessionID+"/can-vote?voter_id=councilor-1", nil, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.CanVote(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CanVoteResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.CanVote {
		t.Errorf("Expected can_vote true, got %+v", resp)
	}

	// After voting the same query reports has_voted
	opt := options[0]
	voteReq := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/votes",
		models.CastVoteRequest{VoterID: "councilor-1", OptionID: &opt}, nil)
	voteReq.SetPathValue("id", sessionID)
	vw := httptest.NewRecorder()
	handler.CastVote(vw, voteReq)
	testutil.AssertStatus(t, vw, http.StatusCreated)

	req = testutil.MakeRequest("GET", "/sessions/"+sessionID+"/can-vote?voter_id=councilor-1", nil, nil)
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	handler.CanVote(w, req)

	testutil.AssertJSON(t, w, &resp)
	if resp.CanVote || !resp.HasVoted {
		t.Errorf("Expected has_voted true, got %+v", resp)
	}

	// voter_id query parameter is mandatory
	req = testutil.MakeRequest("GET", "/sessions/"+sessionID+"/can-vote", nil, nil)
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	handler.CanVote(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestResultsHandler(t *testing.T) {
	svc := newTestService(t)
	sessionHandler := NewSessionHandler(svc)
	votingHandler := NewVotingHandler(svc)
	handler := NewResultsHandler(svc)

	sessionID, options := openSessionWithOptions(t, svc, sessionHandler)
	opt := options[0]

	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/votes",
		models.CastVoteRequest{VoterID: "councilor-1", OptionID: &opt}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	votingHandler.CastVote(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	req = testutil.MakeRequest("GET", "/sessions/"+sessionID+"/results", nil, nil)
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	handler.Get(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.VotingResults
	testutil.AssertJSON(t, w, &resp)
	if resp.TotalVotes != 1 {
		t.Errorf("Expected 1 vote in live results, got %d", resp.TotalVotes)
	}
	if resp.PerOptionTally[opt].Votes != 1 {
		t.Errorf("Expected the ballot tallied, got %+v", resp.PerOptionTally)
	}
}

func TestResultsHandlerNotFound(t *testing.T) {
	handler := NewResultsHandler(newTestService(t))

	req := testutil.MakeRequest("GET", "/sessions/nope/results", nil, nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	handler.Get(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

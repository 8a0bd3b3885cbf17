// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codema-digital/voting-engine/models"
	"github.com/codema-digital/voting-engine/realtime"
	"github.com/codema-digital/voting-engine/session"
	"github.com/codema-digital/voting-engine/store"
	"github.com/codema-digital/voting-engine/testutil"
)

func newTestService(t *testing.T) *session.Service {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	bus := realtime.NewMemoryBus()
	t.Cleanup(func() { bus.Close() })
	return session.NewService(store.New(conn), bus, nil, testutil.TestSalt)
}

func createRequestBody() models.CreateSessionRequest {
	return models.CreateSessionRequest{
		MeetingID:        "meeting-1",
		Title:            "Deliberation 12/2025",
		VotingType:       models.VotingTypeSimple,
		AllowAbstention:  true,
		MinimumQuorum:    2,
		RequiredMajority: models.MajoritySimple,
		TimeoutMinutes:   30,
		CreatedBy:        "coordinator-1",
		Options: []models.OptionSpec{
			{Text: "Aprovar"},
			{Text: "Rejeitar"},
		},
		Presence: []models.PresenceSpec{
			{VoterID: "councilor-1", Present: true},
			{VoterID: "councilor-2", Present: true},
			{VoterID: "councilor-3", Present: true},
		},
	}
}

// createSession drives the full create over the handler and returns the
// new session ID.
func createSession(t *testing.T, handler *SessionHandler) string {
	t.Helper()
	req := testutil.MakeRequest("POST", "/sessions", createRequestBody(), nil)
	w := httptest.NewRecorder()
	handler.Create(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreateSessionResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.SessionID == "" {
		t.Fatal("Expected a session_id")
	}
	return resp.SessionID
}

func startSession(t *testing.T, handler *SessionHandler, sessionID string) {
	t.Helper()
	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/start", models.TransitionRequest{ActorID: "coordinator-1"}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.Start(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestCreateSessionHandler(t *testing.T) {
	svc := newTestService(t)
	handler := NewSessionHandler(svc)

	sessionID := createSession(t, handler)

	sess, err := svc.Detail(context.Background(), sessionID, "")
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if sess.Session.Status != models.StatusPreparing {
		t.Errorf("Expected status preparing, got %q", sess.Session.Status)
	}
}

func TestCreateSessionValidationDetails(t *testing.T) {
	handler := NewSessionHandler(newTestService(t))

	req := testutil.MakeRequest("POST", "/sessions", models.CreateSessionRequest{}, nil)
	w := httptest.NewRecorder()
	handler.Create(w, req)
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Details) < 2 {
		t.Errorf("Expected violation details in the error body, got %+v", resp)
	}
}

func TestCreateSessionInvalidJSON(t *testing.T) {
	handler := NewSessionHandler(newTestService(t))

	req := testutil.MakeRequest("POST", "/sessions", nil, map[string]string{"Content-Type": "application/json"})
	w := httptest.NewRecorder()
	handler.Create(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestStartSessionHandler(t *testing.T) {
	handler := NewSessionHandler(newTestService(t))
	sessionID := createSession(t, handler)

	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/start", models.TransitionRequest{ActorID: "coordinator-1"}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.Start(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.StartSessionResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.OpeningHash == "" {
		t.Error("Expected an opening hash")
	}

	// Starting twice conflicts
	req = testutil.MakeRequest("POST", "/sessions/"+sessionID+"/start", models.TransitionRequest{ActorID: "coordinator-1"}, nil)
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	handler.Start(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestStartSessionRequiresActor(t *testing.T) {
	handler := NewSessionHandler(newTestService(t))
	sessionID := createSession(t, handler)

	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/start", models.TransitionRequest{}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.Start(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestStartSessionNotFound(t *testing.T) {
	handler := NewSessionHandler(newTestService(t))

	req := testutil.MakeRequest("POST", "/sessions/nope/start", models.TransitionRequest{ActorID: "coordinator-1"}, nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	handler.Start(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestEndSessionHandler(t *testing.T) {
	svc := newTestService(t)
	handler := NewSessionHandler(svc)
	votingHandler := NewVotingHandler(svc)

	sessionID := createSession(t, handler)
	startSession(t, handler, sessionID)

	detail, _ := svc.Detail(context.Background(), sessionID, "")
	approve := detail.Options[0].ID

	// Two ballots reach the quorum of 2
	for _, voter := range []string{"councilor-1", "councilor-2"} {
		opt := approve
		req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/votes",
			models.CastVoteRequest{VoterID: voter, OptionID: &opt}, nil)
		req.SetPathValue("id", sessionID)
		w := httptest.NewRecorder()
		votingHandler.CastVote(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/end", models.TransitionRequest{ActorID: "coordinator-1"}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.End(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.EndSessionResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.ClosingHash == "" {
		t.Error("Expected a closing hash")
	}
	if !resp.Results.QuorumReached {
		t.Error("Expected quorum reached in the closing results")
	}
	if resp.Results.Approved == nil || !*resp.Results.Approved {
		t.Error("Expected approval in the closing results")
	}

	// Ending twice conflicts
	req = testutil.MakeRequest("POST", "/sessions/"+sessionID+"/end", models.TransitionRequest{ActorID: "coordinator-1"}, nil)
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	handler.End(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestCancelSessionHandler(t *testing.T) {
	handler := NewSessionHandler(newTestService(t))
	sessionID := createSession(t, handler)

	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/cancel", models.TransitionRequest{ActorID: "coordinator-1"}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.Cancel(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var sess models.VotingSession
	testutil.AssertJSON(t, w, &sess)
	if sess.Status != models.StatusCancelled {
		t.Errorf("Expected status cancelled, got %q", sess.Status)
	}
}

func TestListByMeetingHandler(t *testing.T) {
	handler := NewSessionHandler(newTestService(t))
	createSession(t, handler)
	createSession(t, handler)

	req := testutil.MakeRequest("GET", "/meetings/meeting-1/sessions", nil, nil)
	req.SetPathValue("meetingId", "meeting-1")
	w := httptest.NewRecorder()
	handler.ListByMeeting(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var sessions []models.VotingSession
	testutil.AssertJSON(t, w, &sessions)
	if len(sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(sessions))
	}
}

func TestDetailHandler(t *testing.T) {
	svc := newTestService(t)
	handler := NewSessionHandler(svc)
	votingHandler := NewVotingHandler(svc)

	sessionID := createSession(t, handler)
	startSession(t, handler, sessionID)

	detail, _ := svc.Detail(context.Background(), sessionID, "")
	opt := detail.Options[0].ID
	req := testutil.MakeRequest("POST", "/sessions/"+sessionID+"/votes",
		models.CastVoteRequest{VoterID: "councilor-1", OptionID: &opt}, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	votingHandler.CastVote(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	// With the voter header the caller sees their own ballot
	req = testutil.MakeRequest("GET", "/sessions/"+sessionID, nil, map[string]string{"X-Voter-ID": "councilor-1"})
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	handler.Detail(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.SessionDetailResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.CurrentUserVote == nil || resp.CurrentUserVote.VoterID != "councilor-1" {
		t.Errorf("Expected the caller's vote in the detail, got %+v", resp.CurrentUserVote)
	}
	if len(resp.Options) != 2 || len(resp.Presence) != 3 {
		t.Errorf("Expected full detail, got %d options and %d presence rows", len(resp.Options), len(resp.Presence))
	}

	// Without the header no ballot is attached
	req = testutil.MakeRequest("GET", "/sessions/"+sessionID, nil, nil)
	req.SetPathValue("id", sessionID)
	w = httptest.NewRecorder()
	handler.Detail(w, req)
	resp = models.SessionDetailResponse{}
	testutil.AssertJSON(t, w, &resp)
	if resp.CurrentUserVote != nil {
		t.Error("Expected no vote without the voter header")
	}
}

func TestExportHandler(t *testing.T) {
	svc := newTestService(t)
	handler := NewSessionHandler(svc)

	sessionID := createSession(t, handler)
	startSession(t, handler, sessionID)

	req := testutil.MakeRequest("GET", "/sessions/"+sessionID+"/export", nil, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.Export(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ExportResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Checksum == "" {
		t.Error("Expected a checksum on the export")
	}
	if len(resp.AuditLog) == 0 {
		t.Error("Expected audit entries on the export")
	}
}

func TestAuditLogHandler(t *testing.T) {
	handler := NewSessionHandler(newTestService(t))
	sessionID := createSession(t, handler)

	req := testutil.MakeRequest("GET", "/sessions/"+sessionID+"/audit", nil, nil)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	handler.AuditLog(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var entries []models.AuditLogEntry
	testutil.AssertJSON(t, w, &entries)
	if len(entries) != 1 || entries[0].Action != models.ActionSessionCreated {
		t.Errorf("Expected the creation audit entry, got %+v", entries)
	}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codema-digital/voting-engine/db"
	"github.com/codema-digital/voting-engine/integrity"
	_ "modernc.org/sqlite"
)

// TestSalt is the audit hash salt used by all tests
const TestSalt = "test-audit-salt"

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// An in-memory sqlite database exists per connection; cap the pool
	// at one so every query sees the same database.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })

	return conn
}

// CreateTestSession creates a voting session directly in the database
// and returns its ID. status should be "preparing", "open", "closed" or
// "cancelled".
func CreateTestSession(t *testing.T, conn *sql.DB, status string, minimumQuorum int) string {
	t.Helper()

	sessionID, _ := integrity.GenerateID(16)

	var startedAt *time.Time
	if status == "open" || status == "closed" {
		now := time.Now().UTC()
		startedAt = &now
	}

	var endedAt *time.Time
	if status == "closed" || status == "cancelled" {
		now := time.Now().UTC()
		endedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO voting_session (id, meeting_id, title, description, voting_type, status,
			allow_abstention, secret_ballot, minimum_quorum, required_majority,
			timeout_minutes, created_by, created_at, started_at, ended_at)
		VALUES ($1, 'meeting-1', 'Test Session', 'A test session', 'simple', $2,
			TRUE, FALSE, $3, 'simple', 30, 'coordinator-1', $4, $5, $6)
	`, sessionID, status, minimumQuorum, time.Now().UTC(), startedAt, endedAt)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return sessionID
}

// AddTestOption adds an option to a session and returns the option ID
func AddTestOption(t *testing.T, conn *sql.DB, sessionID, text string, order int) string {
	t.Helper()

	optionID, _ := integrity.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO voting_option (id, session_id, option_text, option_order, active)
		VALUES ($1, $2, $3, $4, TRUE)
	`, optionID, sessionID, text, order)
	if err != nil {
		t.Fatalf("Failed to create test option: %v", err)
	}

	return optionID
}

// MarkTestPresence records a voter as present (or absent) for a session
func MarkTestPresence(t *testing.T, conn *sql.DB, sessionID, voterID string, present bool) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO voting_presence (session_id, voter_id, present, marked_at, marked_by)
		VALUES ($1, $2, $3, $4, 'secretary-1')
	`, sessionID, voterID, present, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to mark test presence: %v", err)
	}
}

// CastTestVote inserts a vote row directly. optionID may be nil for an
// abstention.
func CastTestVote(t *testing.T, conn *sql.DB, sessionID, voterID string, optionID *string) string {
	t.Helper()

	voteID, _ := integrity.GenerateID(16)
	now := time.Now().UTC()

	opt := ""
	if optionID != nil {
		opt = *optionID
	}
	hash := integrity.VoteHash(TestSalt, sessionID, voterID, opt, now)

	_, err := conn.Exec(`
		INSERT INTO vote (id, session_id, voter_id, option_id, voted_at, vote_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, voteID, sessionID, voterID, optionID, now, hash)
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}

	return voteID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

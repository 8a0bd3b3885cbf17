// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the voting engine.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The SQL sticks to the subset both drivers (sqlite, postgres) accept:
// no NOW() defaults (timestamps are always written by the application),
// and JSON payloads stored as TEXT.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Voting sessions
CREATE TABLE IF NOT EXISTS voting_session (
    id TEXT PRIMARY KEY,
    meeting_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    voting_type TEXT NOT NULL DEFAULT 'simple',
    status TEXT NOT NULL DEFAULT 'preparing' CHECK (status IN ('preparing', 'open', 'closed', 'cancelled')),
    allow_abstention BOOLEAN NOT NULL DEFAULT TRUE,
    secret_ballot BOOLEAN NOT NULL DEFAULT FALSE,
    minimum_quorum INTEGER NOT NULL CHECK (minimum_quorum >= 1),
    required_majority TEXT NOT NULL DEFAULT 'simple',
    qualified_percentage REAL,
    timeout_minutes INTEGER NOT NULL DEFAULT 30,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    started_at TIMESTAMP,
    ended_at TIMESTAMP,
    opening_hash TEXT,
    closing_hash TEXT
);

CREATE INDEX IF NOT EXISTS idx_voting_session_meeting ON voting_session(meeting_id);
CREATE INDEX IF NOT EXISTS idx_voting_session_status ON voting_session(status);

-- Options
CREATE TABLE IF NOT EXISTS voting_option (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES voting_session(id) ON DELETE CASCADE,
    option_text TEXT NOT NULL,
    option_order INTEGER NOT NULL,
    color TEXT,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    UNIQUE (session_id, option_order)
);

CREATE INDEX IF NOT EXISTS idx_voting_option_session ON voting_option(session_id);

-- Votes: the UNIQUE (session_id, voter_id) constraint is the core
-- correctness guarantee. Duplicate submissions must fail here, at the
-- storage layer, regardless of what the application checked first.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES voting_session(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    option_id TEXT REFERENCES voting_option(id),
    voted_at TIMESTAMP NOT NULL,
    device_info TEXT,
    vote_hash TEXT NOT NULL,
    UNIQUE (session_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_session ON vote(session_id);
CREATE INDEX IF NOT EXISTS idx_vote_option ON vote(option_id);

-- Presence / eligibility
CREATE TABLE IF NOT EXISTS voting_presence (
    session_id TEXT NOT NULL REFERENCES voting_session(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    present BOOLEAN NOT NULL DEFAULT FALSE,
    justification TEXT,
    marked_at TIMESTAMP NOT NULL,
    marked_by TEXT NOT NULL,
    PRIMARY KEY (session_id, voter_id)
);

-- Result snapshots (one authoritative row per session, last write wins)
CREATE TABLE IF NOT EXISTS voting_results (
    session_id TEXT PRIMARY KEY REFERENCES voting_session(id) ON DELETE CASCADE,
    total_eligible INTEGER NOT NULL,
    total_present INTEGER NOT NULL,
    total_votes INTEGER NOT NULL,
    total_abstentions INTEGER NOT NULL,
    per_option_tally TEXT NOT NULL,
    quorum_reached BOOLEAN NOT NULL,
    approved BOOLEAN,
    winning_option_id TEXT,
    calculated_at TIMESTAMP NOT NULL,
    result_hash TEXT NOT NULL
);

-- Append-only audit log
CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES voting_session(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    action TEXT NOT NULL,
    old_data TEXT,
    new_data TEXT,
    action_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_log_session ON audit_log(session_id);
`

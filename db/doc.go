// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema

The schema consists of five tables:

  - voting_session: ballot rules and lifecycle state
  - voting_option: selectable choices, ordered per session
  - vote: cast ballots, UNIQUE (session_id, voter_id)
  - voting_presence: eligibility records, PK (session_id, voter_id)
  - voting_results: one derived snapshot per session
  - audit_log: append-only record of state changes

# Usage

Call CreateSchema after connecting:

	if err := db.CreateSchema(dbConn); err != nil {
		log.Fatal(err)
	}

CreateSchema is idempotent (uses IF NOT EXISTS) and portable across the
two supported drivers (modernc.org/sqlite and lib/pq).

# Constraints

Two constraints carry correctness guarantees the rest of the system
leans on:

  - vote UNIQUE (session_id, voter_id): at most one ballot per voter per
    session, enforced even under concurrent submissions
  - voting_session.status CHECK: only the four lifecycle states exist
*/
package db

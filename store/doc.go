// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store implements the ballot store over database/sql.

# Contract Guarantees

Two guarantees are enforced at the storage layer because application-
level check-then-act is a race under concurrent clients:

  - Vote uniqueness: InsertVote relies on the schema's UNIQUE
    (session_id, voter_id) constraint and maps violations to
    ErrDuplicateVote. Exactly one of N concurrent submissions for the
    same voter succeeds.
  - Status compare-and-swap: TransitionStatus updates the session row
    only WHERE status still equals the previously read value. A lost
    race surfaces as ErrTransitionConflict.

# Operations

	CreateSession      session + options + presence in one transaction
	GetSession         single session by ID
	ListSessionsByMeeting
	TransitionStatus   CAS status update with transition columns
	ListOptions
	InsertVote         constraint-backed, never updated or deleted
	ListVotes, GetVoteByVoter
	UpsertPresence, GetPresence, ListPresence
	WriteResults       snapshot upsert, last write wins
	GetResults
	AppendAuditLog, ListAuditLog

# Errors

Driver failures come back wrapped in *StorageError so callers can
retry; ErrDuplicateVote and ErrTransitionConflict are expected outcomes,
not failures.
*/
package store

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateSessionRequest: session rules plus options and initial presence
  - CastVoteRequest: voter_id, option_id (null for abstention)
  - MarkPresenceRequest: voter_id, present, justification
  - TransitionRequest: actor_id for start/end/cancel

# Response Types

Types for JSON responses:

  - CreateSessionResponse: session_id
  - StartSessionResponse: started_at, opening_hash
  - EndSessionResponse: ended_at, closing_hash, results
  - CastVoteResponse: vote_hash, voted_at
  - CanVoteResponse: can_vote, has_voted, reason
  - SessionDetailResponse: session, options, results, current_user_vote
  - ExportResponse: session, options, results, audit_log, checksum
  - ErrorResponse: error, message, details

# Domain Types

Internal data structures:

  - VotingSession: ballot rules and lifecycle state
  - VotingOption: one selectable choice
  - Vote: one ballot cast by one voter (option_id null = abstention)
  - VotingPresence: eligibility record per (session, voter)
  - VotingResults: derived tally snapshot
  - AuditLogEntry: append-only record of a state change

# Constants

Status values:

	StatusPreparing = "preparing"
	StatusOpen      = "open"
	StatusClosed    = "closed"
	StatusCancelled = "cancelled"

Required majorities:

	MajoritySimple    = "simple"
	MajorityAbsolute  = "absolute"
	MajorityQualified = "qualified"
	MajorityUnanimous = "unanimous"
*/
package models

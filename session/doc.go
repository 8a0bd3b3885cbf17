// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session implements the voting session state machine.

# Lifecycle

	preparing → open → closed
	preparing → cancelled
	open → cancelled

closed and cancelled are terminal; there is no reopening. Transitions
are compare-and-swap at the store, so concurrent start or end calls
resolve to exactly one winner; the loser gets InvalidTransitionError.

# Operations

	Create        validate (all violations at once) + atomic persist
	Start         preparing → open, records the opening hash
	End           open → closed, final results snapshot + closing hash
	Cancel        escape transition, soft only
	CastVote      presence-gated, one per voter (store constraint)
	MarkPresence  allowed while preparing or open, recomputes live
	CanVote       read-only eligibility check
	Results       authoritative snapshot (closed) or fresh recompute
	Detail        session + options + results + caller's own vote
	Export        full bundle with tamper-evidence checksum
	AuditLog      the append-only trail

# Error Taxonomy

ValidationError, InvalidTransitionError, NotEligibleError and
InvalidOptionError are returned for user-facing messaging.
store.ErrDuplicateVote passes through so callers can show "already
voted". Store outages surface as *store.StorageError for the caller to
retry. AuditError is logged and swallowed: a vote still counts when the
audit write fails.
*/
package session

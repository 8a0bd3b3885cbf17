// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every violation found in a create request
// rather than failing on the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid session: " + strings.Join(e.Violations, "; ")
}

// InvalidTransitionError reports a lifecycle operation attempted from
// the wrong status (including a lost race: the status changed between
// read and write).
type InvalidTransitionError struct {
	SessionID string
	Status    string
	Attempted string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("session %s is %s; cannot %s", e.SessionID, e.Status, e.Attempted)
}

// NotEligibleError reports a vote attempt by someone who may not vote
// right now: not marked present, or the session is not open.
type NotEligibleError struct {
	SessionID string
	VoterID   string
	Reason    string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("voter %s is not eligible in session %s: %s", e.VoterID, e.SessionID, e.Reason)
}

// InvalidOptionError reports a vote referencing an unknown or inactive
// option, or an abstention where abstention is not allowed.
type InvalidOptionError struct {
	SessionID string
	OptionID  string
	Reason    string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %q in session %s: %s", e.OptionID, e.SessionID, e.Reason)
}

// AuditError wraps a failed audit write. Audit failures never abort the
// operation they describe; they are logged and swallowed so a vote
// still counts even when the audit trail hiccups.
type AuditError struct {
	Action string
	Err    error
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("audit write for %s failed: %v", e.Action, e.Err)
}

func (e *AuditError) Unwrap() error {
	return e.Err
}

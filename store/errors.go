// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateVote indicates a second vote for the same
	// (session, voter) pair. Expected and recoverable: the caller
	// surfaces it as "already voted".
	ErrDuplicateVote = errors.New("duplicate vote")

	// ErrTransitionConflict indicates the compare-and-swap status
	// update matched zero rows: another caller transitioned the
	// session first, or the session was never in the expected status.
	ErrTransitionConflict = errors.New("status transition conflict")
)

// StorageError wraps a driver failure so callers can distinguish "the
// store said no" (duplicate, conflict) from "the store is unavailable".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// isUniqueViolation detects a uniqueness-constraint failure from either
// supported driver. postgres reports SQLSTATE 23505; modernc sqlite
// reports a "UNIQUE constraint failed" message.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

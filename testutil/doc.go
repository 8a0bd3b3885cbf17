// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package testutil provides shared test fixtures: an in-memory
// database with the full schema, row-level helpers for sessions,
// options, presence and votes, and small HTTP assertion helpers.
package testutil

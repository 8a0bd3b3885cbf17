// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package integrity provides random IDs and tamper-evidence hashing.

Hashes are HMAC-SHA256 fingerprints with domain separation: the same
inputs hashed under different domains (action, vote, result, export)
produce unrelated values. This is tamper-evidence, not non-repudiation;
there is no per-user key material.

	hash := integrity.ActionHash(salt, "session_started", sessionID, time.Now())

Given identical inputs the output is stable, so a hash recorded when a
session opened can be recomputed and compared when it closes.
*/
package integrity

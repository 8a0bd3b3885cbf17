// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package integrity

import (
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	id, err := GenerateID(16)
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("Expected 32 hex chars for 16 bytes, got %d", len(id))
	}

	// IDs must be unique
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateID(16)
		if err != nil {
			t.Fatalf("GenerateID failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("Duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestActionHashStable(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 9, 26, 535897932, time.UTC)

	h1 := ActionHash("salt", "session_started", "session-1", at)
	h2 := ActionHash("salt", "session_started", "session-1", at)
	if h1 != h2 {
		t.Error("Expected identical inputs to produce identical hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(h1))
	}

	// Any input change must change the hash
	if ActionHash("other-salt", "session_started", "session-1", at) == h1 {
		t.Error("Expected salt change to change the hash")
	}
	if ActionHash("salt", "session_ended", "session-1", at) == h1 {
		t.Error("Expected action change to change the hash")
	}
	if ActionHash("salt", "session_started", "session-2", at) == h1 {
		t.Error("Expected context change to change the hash")
	}
	if ActionHash("salt", "session_started", "session-1", at.Add(time.Nanosecond)) == h1 {
		t.Error("Expected timestamp change to change the hash")
	}
}

func TestDomainSeparation(t *testing.T) {
	at := time.Now()

	// The same logical inputs fed through different hash families must
	// never collide; a vote hash can not be replayed as a result hash.
	action := ActionHash("salt", "a", "b", at)
	result := ResultHash("salt", "a", "b", at)
	export := ExportChecksum("salt", "a", "b", "", at)

	if action == result || action == export || result == export {
		t.Error("Expected domain-separated hashes to differ for identical inputs")
	}
}

func TestVoteHashBoundaries(t *testing.T) {
	at := time.Now()

	// Field boundaries must be unambiguous: shifting characters across
	// the session/voter boundary has to change the hash.
	h1 := VoteHash("salt", "ab", "c", "opt", at)
	h2 := VoteHash("salt", "a", "bc", "opt", at)
	if h1 == h2 {
		t.Error("Expected differing field boundaries to produce different hashes")
	}

	// Abstention (empty option) hashes distinctly from any real option
	if VoteHash("salt", "s", "v", "", at) == VoteHash("salt", "s", "v", "opt", at) {
		t.Error("Expected abstention hash to differ from option hash")
	}
}

func TestVerifyActionHash(t *testing.T) {
	at := time.Now()
	h := ActionHash("salt", "vote_cast", "session-1", at)

	if !VerifyActionHash("salt", "vote_cast", "session-1", at, h) {
		t.Error("Expected valid hash to verify")
	}
	if VerifyActionHash("salt", "vote_cast", "session-2", at, h) {
		t.Error("Expected mismatched context to fail verification")
	}
	if VerifyActionHash("wrong-salt", "vote_cast", "session-1", at, h) {
		t.Error("Expected wrong salt to fail verification")
	}
}

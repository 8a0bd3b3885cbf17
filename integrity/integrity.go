// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package integrity

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Domain prefixes keep hashes from one context from being replayed in
// another (an opening hash can never pass as a closing hash). The
// version suffix leaves room for algorithm migration.
const (
	DomainAction = "codema/action/v1"
	DomainVote   = "codema/vote/v1"
	DomainResult = "codema/result/v1"
	DomainExport = "codema/export/v1"
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// hashWithDomain computes an HMAC-SHA256 fingerprint with domain
// separation. The null byte separators prevent boundary ambiguity
// between the domain, the action and the context.
func hashWithDomain(salt, domain, action, context string, at time.Time) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(action))
	h.Write([]byte{0x00})
	h.Write([]byte(context))
	h.Write([]byte{0x00})
	h.Write([]byte(at.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))
}

// ActionHash fingerprints a state transition (session created, started,
// ended, presence marked). Stable given identical inputs, so an opening
// hash recorded at start time can be cross-checked later.
func ActionHash(salt, action, context string, at time.Time) string {
	return hashWithDomain(salt, DomainAction, action, context, at)
}

// VoteHash fingerprints a single cast ballot.
func VoteHash(salt, sessionID, voterID, optionID string, at time.Time) string {
	return hashWithDomain(salt, DomainVote, sessionID+"|"+voterID, optionID, at)
}

// ResultHash fingerprints a computed result set. The context is the
// serialized tally so any substitution of the snapshot changes the hash.
func ResultHash(salt, sessionID, tally string, at time.Time) string {
	return hashWithDomain(salt, DomainResult, sessionID, tally, at)
}

// ExportChecksum fingerprints a full session export, chaining the
// closing hash and the last audit hash so a tampered export is evident.
func ExportChecksum(salt, sessionID, closingHash, lastAuditHash string, at time.Time) string {
	return hashWithDomain(salt, DomainExport, sessionID, closingHash+"|"+lastAuditHash, at)
}

// VerifyActionHash recomputes and compares in constant time.
func VerifyActionHash(salt, action, context string, at time.Time, expected string) bool {
	computed := ActionHash(salt, action, context, at)
	return hmac.Equal([]byte(computed), []byte(expected))
}

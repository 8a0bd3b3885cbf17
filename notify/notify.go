// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"time"
)

// Notification categories
const (
	CategoryVoting   = "voting"
	CategoryReminder = "reminder"
)

// Notification priorities
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Notification is the payload handed to the push channel. Data carries
// enough context (session_id, meeting_id, action) for a client to
// deep-link; delivery and retry belong to the external channel.
type Notification struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Icon      string            `json:"icon,omitempty"`
	Category  string            `json:"category"`
	Priority  string            `json:"priority"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

// Notifier is the outbound push-notification boundary.
type Notifier interface {
	Send(ctx context.Context, userID string, n Notification) error
}

// Nop discards notifications. Used when no push channel is configured.
type Nop struct{}

func (Nop) Send(context.Context, string, Notification) error { return nil }

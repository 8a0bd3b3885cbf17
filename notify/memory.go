// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"sync"
)

// Sent records one delivered notification.
type Sent struct {
	UserID       string
	Notification Notification
}

// Memory is an in-process Notifier for tests.
type Memory struct {
	mu   sync.Mutex
	sent []Sent
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Send(_ context.Context, userID string, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{UserID: userID, Notification: n})
	return nil
}

// All returns a copy of everything sent so far.
func (m *Memory) All() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}

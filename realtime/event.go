// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"time"
)

// Event types pushed to session subscribers
const (
	EventVote           = "vote"
	EventResults        = "results"
	EventSessionUpdate  = "session_update"
	EventPresenceUpdate = "presence_update"
)

// Event is one row-level change scoped to a session. Payload is the
// JSON-encoded entity that changed, kept raw so events cross process
// boundaries (Redis) unchanged.
type Event struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	MeetingID string          `json:"meeting_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	At        time.Time       `json:"at"`
}

// Handler receives events for one session. Handlers must not block;
// the memory bus invokes them inline on the publishing goroutine.
type Handler func(Event)

// Bus is the realtime fan-out boundary: publish row-level change events
// and subscribe to them by session. Any pub/sub backend (in-process,
// Redis, a log-based stream) can satisfy it.
//
// Subscribe returns an unsubscribe function that fully detaches the
// handler; after it returns no further events are delivered.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(sessionID string, h Handler) (unsubscribe func())
	Close() error
}

// NewEvent builds an event with a JSON-encoded payload. Marshal errors
// are impossible for the domain types this engine publishes, so the
// payload is dropped rather than failing the mutation that triggered
// the event.
func NewEvent(eventType, sessionID, meetingID string, payload interface{}) Event {
	ev := Event{
		Type:      eventType,
		SessionID: sessionID,
		MeetingID: meetingID,
		At:        time.Now(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			ev.Payload = data
		}
	}
	return ev
}

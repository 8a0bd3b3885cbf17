// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codema-digital/voting-engine/models"
	"github.com/codema-digital/voting-engine/notify"
	"github.com/codema-digital/voting-engine/store"
)

// DefaultQuorumInterval is how often an open session's participation is
// checked against the quorum-alert threshold.
const DefaultQuorumInterval = 2 * time.Minute

// quorumAlertRatio: alert when fewer than 60% of present members have
// participated (voted or abstained).
const quorumAlertRatio = 0.6

// reminderFractions of the session timeout at which present-but-not-
// voted members get a reminder. The last one goes out high priority.
var reminderFractions = []float64{0.5, 0.75, 0.9}

// Monitor drives the time-based side effects of open sessions:
// vote reminders, periodic quorum alerts, and the final outcome
// notification when a session closes. All timers and subscriptions are
// owned per session and torn down on close, so nothing leaks after a
// session ends.
type Monitor struct {
	store          *store.Store
	bus            Bus
	notifier       notify.Notifier
	quorumInterval time.Duration

	mu      sync.Mutex
	watches map[string]*watch
}

type watch struct {
	reminders   []*time.Timer
	stop        chan struct{}
	unsubscribe func()
	once        sync.Once
}

func NewMonitor(st *store.Store, bus Bus, notifier notify.Notifier) *Monitor {
	return &Monitor{
		store:          st,
		bus:            bus,
		notifier:       notifier,
		quorumInterval: DefaultQuorumInterval,
		watches:        make(map[string]*watch),
	}
}

// SetQuorumInterval overrides the quorum-check cadence. Only affects
// sessions watched after the call.
func (m *Monitor) SetQuorumInterval(d time.Duration) {
	m.quorumInterval = d
}

// Watch starts monitoring an open session. Watching a session that is
// already watched replaces the previous watch rather than duplicating
// its timers.
func (m *Monitor) Watch(session models.VotingSession) {
	m.Unwatch(session.ID)

	w := &watch{stop: make(chan struct{})}

	if session.TimeoutMinutes > 0 {
		timeout := time.Duration(session.TimeoutMinutes) * time.Minute
		for i, frac := range reminderFractions {
			priority := notify.PriorityNormal
			if i == len(reminderFractions)-1 {
				priority = notify.PriorityHigh
			}
			p := priority
			w.reminders = append(w.reminders, time.AfterFunc(
				time.Duration(frac*float64(timeout)),
				func() { m.sendReminders(session, p) },
			))
		}
	}

	go m.quorumLoop(session, w.stop)

	m.mu.Lock()
	m.watches[session.ID] = w
	m.mu.Unlock()

	unsubscribe := m.bus.Subscribe(session.ID, func(ev Event) {
		if ev.Type != EventSessionUpdate {
			return
		}
		var updated models.VotingSession
		if err := json.Unmarshal(ev.Payload, &updated); err != nil {
			return
		}
		switch updated.Status {
		case models.StatusClosed:
			m.announceOutcome(updated)
			m.Unwatch(session.ID)
		case models.StatusCancelled:
			m.Unwatch(session.ID)
		}
	})

	m.mu.Lock()
	current, stillWatched := m.watches[session.ID]
	if stillWatched && current == w {
		w.unsubscribe = unsubscribe
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	// The watch was torn down while we were subscribing; detach now.
	unsubscribe()
}

// Unwatch tears down all timers and the bus subscription for a session.
func (m *Monitor) Unwatch(sessionID string) {
	m.mu.Lock()
	w, ok := m.watches[sessionID]
	if ok {
		delete(m.watches, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	w.once.Do(func() {
		for _, t := range w.reminders {
			t.Stop()
		}
		close(w.stop)
		if w.unsubscribe != nil {
			w.unsubscribe()
		}
	})
}

// Stop tears down every watch.
func (m *Monitor) Stop() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.watches))
	for id := range m.watches {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Unwatch(id)
	}
}

func (m *Monitor) quorumLoop(session models.VotingSession, stop chan struct{}) {
	ticker := time.NewTicker(m.quorumInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkQuorum(session)
		case <-stop:
			return
		}
	}
}

// sendReminders notifies every present member who has not voted yet.
func (m *Monitor) sendReminders(session models.VotingSession, priority string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pending, err := m.pendingVoters(ctx, session.ID)
	if err != nil {
		slog.Error("failed to resolve pending voters for reminder", "error", err, "session_id", session.ID)
		return
	}

	for _, voterID := range pending {
		n := notify.Notification{
			ID:        uuid.NewString(),
			Title:     "Vote reminder",
			Body:      fmt.Sprintf("The voting session %q is still open and your vote is pending.", session.Title),
			Category:  notify.CategoryReminder,
			Priority:  priority,
			Timestamp: time.Now(),
			Data: map[string]string{
				"session_id": session.ID,
				"meeting_id": session.MeetingID,
				"action":     "vote_reminder",
			},
		}
		if err := m.notifier.Send(ctx, voterID, n); err != nil {
			slog.Warn("failed to send vote reminder", "error", err, "session_id", session.ID, "voter_id", voterID)
		}
	}
}

// checkQuorum alerts all present members when participation is lagging.
func (m *Monitor) checkQuorum(session models.VotingSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	presence, err := m.store.ListPresence(ctx, session.ID)
	if err != nil {
		slog.Error("failed to list presence for quorum check", "error", err, "session_id", session.ID)
		return
	}
	votes, err := m.store.ListVotes(ctx, session.ID)
	if err != nil {
		slog.Error("failed to list votes for quorum check", "error", err, "session_id", session.ID)
		return
	}

	present := 0
	for _, p := range presence {
		if p.Present {
			present++
		}
	}
	if present == 0 {
		return
	}

	if float64(len(votes))/float64(present) >= quorumAlertRatio {
		return
	}

	for _, p := range presence {
		if !p.Present {
			continue
		}
		n := notify.Notification{
			ID:        uuid.NewString(),
			Title:     "Quorum at risk",
			Body:      fmt.Sprintf("Participation in %q is below 60%%. %d of %d present members have voted.", session.Title, len(votes), present),
			Category:  notify.CategoryVoting,
			Priority:  notify.PriorityHigh,
			Timestamp: time.Now(),
			Data: map[string]string{
				"session_id": session.ID,
				"meeting_id": session.MeetingID,
				"action":     "quorum_alert",
			},
		}
		if err := m.notifier.Send(ctx, p.VoterID, n); err != nil {
			slog.Warn("failed to send quorum alert", "error", err, "session_id", session.ID, "voter_id", p.VoterID)
		}
	}
}

// announceOutcome pushes the final approved/rejected notification to
// every participant once the session closes.
func (m *Monitor) announceOutcome(session models.VotingSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := m.store.GetResults(ctx, session.ID)
	if err != nil || results == nil {
		slog.Error("failed to load results for outcome notification", "error", err, "session_id", session.ID)
		return
	}

	outcome := "rejected"
	if results.Approved != nil && *results.Approved {
		outcome = "approved"
	}

	presence, err := m.store.ListPresence(ctx, session.ID)
	if err != nil {
		slog.Error("failed to list presence for outcome notification", "error", err, "session_id", session.ID)
		return
	}

	for _, p := range presence {
		n := notify.Notification{
			ID:        uuid.NewString(),
			Title:     "Voting session closed",
			Body:      fmt.Sprintf("The voting session %q was %s.", session.Title, outcome),
			Category:  notify.CategoryVoting,
			Priority:  notify.PriorityHigh,
			Timestamp: time.Now(),
			Data: map[string]string{
				"session_id": session.ID,
				"meeting_id": session.MeetingID,
				"action":     "session_" + outcome,
			},
		}
		if err := m.notifier.Send(ctx, p.VoterID, n); err != nil {
			slog.Warn("failed to send outcome notification", "error", err, "session_id", session.ID, "voter_id", p.VoterID)
		}
	}
}

// pendingVoters returns present members without a vote on record.
func (m *Monitor) pendingVoters(ctx context.Context, sessionID string) ([]string, error) {
	presence, err := m.store.ListPresence(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	votes, err := m.store.ListVotes(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	voted := make(map[string]bool, len(votes))
	for _, v := range votes {
		voted[v.VoterID] = true
	}

	var pending []string
	for _, p := range presence {
		if p.Present && !voted[p.VoterID] {
			pending = append(pending, p.VoterID)
		}
	}
	return pending, nil
}

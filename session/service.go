// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codema-digital/voting-engine/integrity"
	"github.com/codema-digital/voting-engine/models"
	"github.com/codema-digital/voting-engine/realtime"
	"github.com/codema-digital/voting-engine/store"
	"github.com/codema-digital/voting-engine/tally"
)

// Service is the voting session state machine. It owns the lifecycle
// (preparing → open → closed, with cancellation as the escape hatch),
// enforces who may vote and when, and delegates persistence to the
// store and math to the tally package. Races between concurrent callers
// are resolved by the store's constraint and compare-and-swap
// guarantees, not by locks held here.
type Service struct {
	store   *store.Store
	bus     realtime.Bus
	monitor *realtime.Monitor
	salt    string
}

// NewService wires the state machine. monitor may be nil (no reminder
// or quorum-alert side effects, useful in tests).
func NewService(st *store.Store, bus realtime.Bus, monitor *realtime.Monitor, salt string) *Service {
	return &Service{store: st, bus: bus, monitor: monitor, salt: salt}
}

// Create validates the whole request, reporting every violation at
// once, then persists session, options and presence atomically in
// status preparing.
func (s *Service) Create(ctx context.Context, req models.CreateSessionRequest) (models.VotingSession, error) {
	if violations := validateCreate(req); len(violations) > 0 {
		return models.VotingSession{}, &ValidationError{Violations: violations}
	}

	sessionID, err := integrity.GenerateID(16)
	if err != nil {
		return models.VotingSession{}, err
	}

	now := time.Now()
	sess := models.VotingSession{
		ID:                  sessionID,
		MeetingID:           req.MeetingID,
		Title:               req.Title,
		Description:         req.Description,
		VotingType:          req.VotingType,
		Status:              models.StatusPreparing,
		AllowAbstention:     req.AllowAbstention,
		SecretBallot:        req.SecretBallot,
		MinimumQuorum:       req.MinimumQuorum,
		RequiredMajority:    req.RequiredMajority,
		QualifiedPercentage: req.QualifiedPercentage,
		TimeoutMinutes:      req.TimeoutMinutes,
		CreatedBy:           req.CreatedBy,
		CreatedAt:           now,
	}

	options := make([]models.VotingOption, 0, len(req.Options))
	for i, opt := range req.Options {
		optionID, err := integrity.GenerateID(12)
		if err != nil {
			return models.VotingSession{}, err
		}
		options = append(options, models.VotingOption{
			ID:        optionID,
			SessionID: sessionID,
			Text:      opt.Text,
			Order:     i + 1,
			Color:     opt.Color,
			Active:    true,
		})
	}

	presence := make([]models.VotingPresence, 0, len(req.Presence))
	for _, p := range req.Presence {
		presence = append(presence, models.VotingPresence{
			SessionID:     sessionID,
			VoterID:       p.VoterID,
			Present:       p.Present,
			Justification: p.Justification,
			MarkedAt:      now,
			MarkedBy:      req.CreatedBy,
		})
	}

	if err := s.store.CreateSession(ctx, sess, options, presence); err != nil {
		return models.VotingSession{}, err
	}

	s.audit(ctx, sessionID, req.CreatedBy, models.ActionSessionCreated, nil, jsonString(sess), now)
	s.publish(ctx, realtime.NewEvent(realtime.EventSessionUpdate, sessionID, sess.MeetingID, sess))

	slog.Info("voting session created", "session_id", sessionID, "meeting_id", req.MeetingID, "options", len(options))
	return sess, nil
}

// Start transitions preparing → open. Exactly one of two concurrent
// calls succeeds; the loser gets InvalidTransitionError.
func (s *Service) Start(ctx context.Context, sessionID, actorID string) (models.VotingSession, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.VotingSession{}, err
	}
	if sess.Status != models.StatusPreparing {
		return models.VotingSession{}, &InvalidTransitionError{SessionID: sessionID, Status: sess.Status, Attempted: "start"}
	}

	now := time.Now()
	openingHash := integrity.ActionHash(s.salt, models.ActionSessionStarted, sessionID, now)

	err = s.store.TransitionStatus(ctx, sessionID, models.StatusPreparing, models.StatusOpen, store.StatusUpdate{
		StartedAt:   &now,
		OpeningHash: &openingHash,
	})
	if err != nil {
		return models.VotingSession{}, s.transitionErr(ctx, sessionID, "start", err)
	}

	sess.Status = models.StatusOpen
	sess.StartedAt = &now
	sess.OpeningHash = &openingHash

	s.audit(ctx, sessionID, actorID, models.ActionSessionStarted, nil, jsonString(sess), now)
	s.publish(ctx, realtime.NewEvent(realtime.EventSessionUpdate, sessionID, sess.MeetingID, sess))
	if s.monitor != nil {
		s.monitor.Watch(sess)
	}

	slog.Info("voting session started", "session_id", sessionID, "actor", actorID)
	return sess, nil
}

// End transitions open → closed and persists the final results as the
// authoritative snapshot. A second call on an already-closed session
// fails with InvalidTransitionError and leaves the snapshot untouched.
func (s *Service) End(ctx context.Context, sessionID, actorID string) (models.VotingSession, models.VotingResults, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.VotingSession{}, models.VotingResults{}, err
	}
	if sess.Status != models.StatusOpen {
		return models.VotingSession{}, models.VotingResults{}, &InvalidTransitionError{SessionID: sessionID, Status: sess.Status, Attempted: "end"}
	}

	now := time.Now()
	closingHash := integrity.ActionHash(s.salt, models.ActionSessionEnded, sessionID, now)

	err = s.store.TransitionStatus(ctx, sessionID, models.StatusOpen, models.StatusClosed, store.StatusUpdate{
		EndedAt:     &now,
		ClosingHash: &closingHash,
	})
	if err != nil {
		return models.VotingSession{}, models.VotingResults{}, s.transitionErr(ctx, sessionID, "end", err)
	}

	sess.Status = models.StatusClosed
	sess.EndedAt = &now
	sess.ClosingHash = &closingHash

	// Final recompute happens after the CAS so only the winning closer
	// writes the authoritative snapshot, and before the session-update
	// event so subscribers observing the close can read it.
	results, err := s.recompute(ctx, sess)
	if err != nil {
		return models.VotingSession{}, models.VotingResults{}, err
	}

	s.audit(ctx, sessionID, actorID, models.ActionSessionEnded, nil, jsonString(results), now)
	s.publish(ctx, realtime.NewEvent(realtime.EventSessionUpdate, sessionID, sess.MeetingID, sess))

	slog.Info("voting session ended", "session_id", sessionID, "actor", actorID,
		"quorum_reached", results.QuorumReached, "approved", results.Approved != nil && *results.Approved)
	return sess, results, nil
}

// Cancel soft-cancels a session from preparing or open. Terminal, like
// closed; nothing is deleted.
func (s *Service) Cancel(ctx context.Context, sessionID, actorID string) (models.VotingSession, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.VotingSession{}, err
	}
	if sess.Status != models.StatusPreparing && sess.Status != models.StatusOpen {
		return models.VotingSession{}, &InvalidTransitionError{SessionID: sessionID, Status: sess.Status, Attempted: "cancel"}
	}

	now := time.Now()
	if err := s.store.TransitionStatus(ctx, sessionID, sess.Status, models.StatusCancelled, store.StatusUpdate{}); err != nil {
		return models.VotingSession{}, s.transitionErr(ctx, sessionID, "cancel", err)
	}

	sess.Status = models.StatusCancelled

	s.audit(ctx, sessionID, actorID, models.ActionSessionCancelled, nil, jsonString(sess), now)
	s.publish(ctx, realtime.NewEvent(realtime.EventSessionUpdate, sessionID, sess.MeetingID, sess))

	slog.Info("voting session cancelled", "session_id", sessionID, "actor", actorID)
	return sess, nil
}

// CastVote records one ballot for one eligible voter. The one-vote-per-
// voter guarantee is the store's UNIQUE constraint, not a check here;
// a duplicate comes back as store.ErrDuplicateVote so the caller can
// say "you already voted".
func (s *Service) CastVote(ctx context.Context, sessionID string, req models.CastVoteRequest) (models.Vote, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.Vote{}, err
	}
	if sess.Status != models.StatusOpen {
		return models.Vote{}, &NotEligibleError{SessionID: sessionID, VoterID: req.VoterID, Reason: "session is not open for voting"}
	}

	presence, err := s.store.GetPresence(ctx, sessionID, req.VoterID)
	if err != nil {
		return models.Vote{}, err
	}
	if presence == nil || !presence.Present {
		return models.Vote{}, &NotEligibleError{SessionID: sessionID, VoterID: req.VoterID, Reason: "voter is not marked present"}
	}

	if req.OptionID == nil {
		if !sess.AllowAbstention {
			return models.Vote{}, &InvalidOptionError{SessionID: sessionID, Reason: "abstention is not allowed in this session"}
		}
	} else {
		if err := s.checkOption(ctx, sessionID, *req.OptionID); err != nil {
			return models.Vote{}, err
		}
	}

	voteID, err := integrity.GenerateID(16)
	if err != nil {
		return models.Vote{}, err
	}

	now := time.Now()
	optionRef := "abstention"
	if req.OptionID != nil {
		optionRef = *req.OptionID
	}

	vote := models.Vote{
		ID:         voteID,
		SessionID:  sessionID,
		VoterID:    req.VoterID,
		OptionID:   req.OptionID,
		VotedAt:    now,
		DeviceInfo: req.DeviceInfo,
		VoteHash:   integrity.VoteHash(s.salt, sessionID, req.VoterID, optionRef, now),
	}

	if err := s.store.InsertVote(ctx, vote); err != nil {
		return models.Vote{}, err
	}

	// Recompute strictly after the durable insert so the snapshot
	// reflects this vote.
	if _, err := s.recompute(ctx, sess); err != nil {
		slog.Error("results recompute after vote failed", "error", err, "session_id", sessionID)
	}

	s.publish(ctx, realtime.NewEvent(realtime.EventVote, sessionID, sess.MeetingID, redactVote(sess, vote)))
	s.audit(ctx, sessionID, req.VoterID, models.ActionVoteCast, nil, jsonString(redactVote(sess, vote)), now)

	slog.Info("vote cast", "session_id", sessionID, "voter_id", req.VoterID)
	return vote, nil
}

// MarkPresence writes or corrects an eligibility record. Allowed while
// preparing or open; a change while open moves the quorum denominator,
// so results are recomputed live.
func (s *Service) MarkPresence(ctx context.Context, sessionID string, req models.MarkPresenceRequest) (models.VotingPresence, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.VotingPresence{}, err
	}
	if sess.Status != models.StatusPreparing && sess.Status != models.StatusOpen {
		return models.VotingPresence{}, &InvalidTransitionError{SessionID: sessionID, Status: sess.Status, Attempted: "mark presence"}
	}

	now := time.Now()
	p := models.VotingPresence{
		SessionID:     sessionID,
		VoterID:       req.VoterID,
		Present:       req.Present,
		Justification: req.Justification,
		MarkedAt:      now,
		MarkedBy:      req.MarkedBy,
	}

	if err := s.store.UpsertPresence(ctx, p); err != nil {
		return models.VotingPresence{}, err
	}

	s.audit(ctx, sessionID, req.MarkedBy, models.ActionPresenceMarked, nil, jsonString(p), now)
	s.publish(ctx, realtime.NewEvent(realtime.EventPresenceUpdate, sessionID, sess.MeetingID, p))

	if sess.Status == models.StatusOpen {
		if _, err := s.recompute(ctx, sess); err != nil {
			slog.Error("results recompute after presence change failed", "error", err, "session_id", sessionID)
		}
	}

	return p, nil
}

// CanVote is the read-only eligibility check the UI uses to gate the
// vote button without attempting a write.
func (s *Service) CanVote(ctx context.Context, sessionID, voterID string) (models.CanVoteResponse, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.CanVoteResponse{}, err
	}

	existing, err := s.store.GetVoteByVoter(ctx, sessionID, voterID)
	if err != nil {
		return models.CanVoteResponse{}, err
	}
	if existing != nil {
		return models.CanVoteResponse{HasVoted: true, Reason: "already voted"}, nil
	}

	if sess.Status != models.StatusOpen {
		return models.CanVoteResponse{Reason: "session is not open for voting"}, nil
	}

	presence, err := s.store.GetPresence(ctx, sessionID, voterID)
	if err != nil {
		return models.CanVoteResponse{}, err
	}
	if presence == nil || !presence.Present {
		return models.CanVoteResponse{Reason: "voter is not marked present"}, nil
	}

	return models.CanVoteResponse{CanVote: true}, nil
}

// Results returns the session's results. Closed sessions get the
// authoritative stored snapshot; open sessions get a fresh recompute
// that is also persisted.
func (s *Service) Results(ctx context.Context, sessionID string) (models.VotingResults, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.VotingResults{}, err
	}

	if sess.Status == models.StatusClosed || sess.Status == models.StatusCancelled {
		stored, err := s.store.GetResults(ctx, sessionID)
		if err != nil {
			return models.VotingResults{}, err
		}
		if stored != nil {
			return *stored, nil
		}
	}

	return s.recompute(ctx, sess)
}

// Detail assembles the session view: session, options, last results
// snapshot, the requesting voter's own vote, and the presence list.
func (s *Service) Detail(ctx context.Context, sessionID, voterID string) (models.SessionDetailResponse, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.SessionDetailResponse{}, err
	}
	options, err := s.store.ListOptions(ctx, sessionID)
	if err != nil {
		return models.SessionDetailResponse{}, err
	}
	results, err := s.store.GetResults(ctx, sessionID)
	if err != nil {
		return models.SessionDetailResponse{}, err
	}
	presence, err := s.store.ListPresence(ctx, sessionID)
	if err != nil {
		return models.SessionDetailResponse{}, err
	}

	detail := models.SessionDetailResponse{
		Session:  sess,
		Options:  options,
		Results:  results,
		Presence: presence,
	}

	if voterID != "" {
		vote, err := s.store.GetVoteByVoter(ctx, sessionID, voterID)
		if err != nil {
			return models.SessionDetailResponse{}, err
		}
		detail.CurrentUserVote = vote
	}

	return detail, nil
}

// ListByMeeting returns every session of one meeting.
func (s *Service) ListByMeeting(ctx context.Context, meetingID string) ([]models.VotingSession, error) {
	return s.store.ListSessionsByMeeting(ctx, meetingID)
}

// AuditLog returns the append-only trail for a session.
func (s *Service) AuditLog(ctx context.Context, sessionID string) ([]models.AuditLogEntry, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListAuditLog(ctx, sessionID)
}

// Export bundles session, options, results and audit trail with a
// checksum chaining the closing hash and the last audit hash.
func (s *Service) Export(ctx context.Context, sessionID string) (models.ExportResponse, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return models.ExportResponse{}, err
	}
	options, err := s.store.ListOptions(ctx, sessionID)
	if err != nil {
		return models.ExportResponse{}, err
	}
	results, err := s.store.GetResults(ctx, sessionID)
	if err != nil {
		return models.ExportResponse{}, err
	}
	auditLog, err := s.store.ListAuditLog(ctx, sessionID)
	if err != nil {
		return models.ExportResponse{}, err
	}

	closingHash := ""
	if sess.ClosingHash != nil {
		closingHash = *sess.ClosingHash
	}
	lastAuditHash := ""
	at := sess.CreatedAt
	if len(auditLog) > 0 {
		last := auditLog[len(auditLog)-1]
		lastAuditHash = last.ActionHash
		at = last.Timestamp
	}

	return models.ExportResponse{
		Session:  sess,
		Options:  options,
		Results:  results,
		AuditLog: auditLog,
		Checksum: integrity.ExportChecksum(s.salt, sessionID, closingHash, lastAuditHash, at),
	}, nil
}

// recompute derives and persists a fresh results snapshot and fans it
// out. Deterministic over the durable vote set, so concurrent writers
// racing here are harmless.
func (s *Service) recompute(ctx context.Context, sess models.VotingSession) (models.VotingResults, error) {
	options, err := s.store.ListOptions(ctx, sess.ID)
	if err != nil {
		return models.VotingResults{}, err
	}
	votes, err := s.store.ListVotes(ctx, sess.ID)
	if err != nil {
		return models.VotingResults{}, err
	}
	presence, err := s.store.ListPresence(ctx, sess.ID)
	if err != nil {
		return models.VotingResults{}, err
	}

	results := tally.Compute(sess, options, votes, presence, time.Now())
	results.ResultHash = integrity.ResultHash(s.salt, sess.ID, tallyFingerprint(results), results.CalculatedAt)

	if err := s.store.WriteResults(ctx, results); err != nil {
		return models.VotingResults{}, err
	}

	s.publish(ctx, realtime.NewEvent(realtime.EventResults, sess.ID, sess.MeetingID, results))
	return results, nil
}

func (s *Service) checkOption(ctx context.Context, sessionID, optionID string) error {
	options, err := s.store.ListOptions(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, opt := range options {
		if opt.ID != optionID {
			continue
		}
		if !opt.Active {
			return &InvalidOptionError{SessionID: sessionID, OptionID: optionID, Reason: "option is inactive"}
		}
		return nil
	}
	return &InvalidOptionError{SessionID: sessionID, OptionID: optionID, Reason: "option does not belong to this session"}
}

// transitionErr maps a CAS conflict to an InvalidTransitionError with
// the status the session actually has now.
func (s *Service) transitionErr(ctx context.Context, sessionID, attempted string, err error) error {
	if !errors.Is(err, store.ErrTransitionConflict) {
		return err
	}
	status := "unknown"
	if sess, getErr := s.store.GetSession(ctx, sessionID); getErr == nil {
		status = sess.Status
	}
	return &InvalidTransitionError{SessionID: sessionID, Status: status, Attempted: attempted}
}

// audit appends one trail entry. Failures are wrapped, logged and
// swallowed: the operation being described must not fail because its
// audit record could not be written.
func (s *Service) audit(ctx context.Context, sessionID, userID, action string, oldData, newData *string, at time.Time) {
	entry := models.AuditLogEntry{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		UserID:     userID,
		Action:     action,
		OldData:    oldData,
		NewData:    newData,
		ActionHash: integrity.ActionHash(s.salt, action, sessionID, at),
		Timestamp:  at,
	}
	if err := s.store.AppendAuditLog(ctx, entry); err != nil {
		auditErr := &AuditError{Action: action, Err: err}
		slog.Error("audit write failed; operation not aborted", "error", auditErr, "session_id", sessionID)
	}
}

func (s *Service) publish(ctx context.Context, ev realtime.Event) {
	if err := s.bus.Publish(ctx, ev); err != nil {
		slog.Warn("failed to publish realtime event", "error", err, "type", ev.Type, "session_id", ev.SessionID)
	}
}

// redactVote strips the chosen option from what leaves the service for
// secret-ballot sessions. The voter's own response still carries it.
func redactVote(sess models.VotingSession, v models.Vote) interface{} {
	if !sess.SecretBallot {
		return v
	}
	return struct {
		ID        string    `json:"id"`
		SessionID string    `json:"session_id"`
		VoterID   string    `json:"voter_id"`
		VotedAt   time.Time `json:"voted_at"`
		VoteHash  string    `json:"vote_hash"`
	}{v.ID, v.SessionID, v.VoterID, v.VotedAt, v.VoteHash}
}

// tallyFingerprint serializes a result set deterministically for
// hashing (map iteration order is not stable).
func tallyFingerprint(r models.VotingResults) string {
	ids := make([]string, 0, len(r.PerOptionTally))
	for id := range r.PerOptionTally {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%d|%d|%t", r.TotalEligible, r.TotalPresent, r.TotalVotes, r.TotalAbstentions, r.QuorumReached)
	for _, id := range ids {
		fmt.Fprintf(&b, "|%s=%d", id, r.PerOptionTally[id].Votes)
	}
	return b.String()
}

func validateCreate(req models.CreateSessionRequest) []string {
	var violations []string

	if strings.TrimSpace(req.Title) == "" {
		violations = append(violations, "title is required")
	}
	if strings.TrimSpace(req.MeetingID) == "" {
		violations = append(violations, "meeting_id is required")
	}
	if strings.TrimSpace(req.CreatedBy) == "" {
		violations = append(violations, "created_by is required")
	}
	if len(req.Options) < 2 {
		violations = append(violations, "at least 2 options are required")
	}
	for i, opt := range req.Options {
		if strings.TrimSpace(opt.Text) == "" {
			violations = append(violations, fmt.Sprintf("option %d text is required", i+1))
		}
	}
	if req.MinimumQuorum < 1 {
		violations = append(violations, "minimum_quorum must be at least 1")
	}
	if len(req.Presence) < 1 {
		violations = append(violations, "at least 1 presence entry is required")
	}

	switch req.VotingType {
	case models.VotingTypeSimple, models.VotingTypeQualified, models.VotingTypeUnanimous, models.VotingTypeSecret:
	default:
		violations = append(violations, fmt.Sprintf("unknown voting_type %q", req.VotingType))
	}

	switch req.RequiredMajority {
	case models.MajoritySimple, models.MajorityAbsolute, models.MajorityUnanimous:
	case models.MajorityQualified:
		if req.QualifiedPercentage == nil {
			violations = append(violations, "qualified_percentage is required for qualified majority")
		} else if *req.QualifiedPercentage < 50 || *req.QualifiedPercentage > 100 {
			violations = append(violations, "qualified_percentage must be between 50 and 100")
		}
	default:
		violations = append(violations, fmt.Sprintf("unknown required_majority %q", req.RequiredMajority))
	}

	return violations
}

func jsonString(v interface{}) *string {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

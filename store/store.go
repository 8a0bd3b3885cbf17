// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/codema-digital/voting-engine/models"
)

// Store is the ballot store: durable, queryable storage for sessions,
// options, votes, presence, results and the audit log. The two contract
// guarantees the rest of the system depends on live here:
//
//   - InsertVote fails with ErrDuplicateVote on a second vote for the
//     same (session, voter), enforced by the schema's UNIQUE constraint
//   - TransitionStatus is compare-and-swap on the previously read
//     status, so two concurrent start/end calls resolve to exactly one
//     winner
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// StatusUpdate carries the columns a status transition sets alongside
// the new status. Nil fields are left untouched.
type StatusUpdate struct {
	StartedAt   *time.Time
	EndedAt     *time.Time
	OpeningHash *string
	ClosingHash *string
}

// CreateSession persists a session with its options and initial
// presence as one transaction. Partial creation is never observable.
func (s *Store) CreateSession(ctx context.Context, session models.VotingSession, options []models.VotingOption, presence []models.VotingPresence) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin create session", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO voting_session (id, meeting_id, title, description, voting_type, status,
			allow_abstention, secret_ballot, minimum_quorum, required_majority,
			qualified_percentage, timeout_minutes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, session.ID, session.MeetingID, session.Title, session.Description, session.VotingType,
		session.Status, session.AllowAbstention, session.SecretBallot, session.MinimumQuorum,
		session.RequiredMajority, session.QualifiedPercentage, session.TimeoutMinutes,
		session.CreatedBy, session.CreatedAt)
	if err != nil {
		return storageErr("insert session", err)
	}

	for _, opt := range options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO voting_option (id, session_id, option_text, option_order, color, active)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, opt.ID, opt.SessionID, opt.Text, opt.Order, opt.Color, opt.Active)
		if err != nil {
			return storageErr("insert option", err)
		}
	}

	for _, p := range presence {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO voting_presence (session_id, voter_id, present, justification, marked_at, marked_by)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.SessionID, p.VoterID, p.Present, p.Justification, p.MarkedAt, p.MarkedBy)
		if err != nil {
			return storageErr("insert presence", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit create session", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (models.VotingSession, error) {
	var sess models.VotingSession
	err := s.db.QueryRowContext(ctx, `
		SELECT id, meeting_id, title, description, voting_type, status,
		       allow_abstention, secret_ballot, minimum_quorum, required_majority,
		       qualified_percentage, timeout_minutes, created_by, created_at,
		       started_at, ended_at, opening_hash, closing_hash
		FROM voting_session
		WHERE id = $1
	`, id).Scan(
		&sess.ID, &sess.MeetingID, &sess.Title, &sess.Description, &sess.VotingType,
		&sess.Status, &sess.AllowAbstention, &sess.SecretBallot, &sess.MinimumQuorum,
		&sess.RequiredMajority, &sess.QualifiedPercentage, &sess.TimeoutMinutes,
		&sess.CreatedBy, &sess.CreatedAt, &sess.StartedAt, &sess.EndedAt,
		&sess.OpeningHash, &sess.ClosingHash,
	)
	if err == sql.ErrNoRows {
		return models.VotingSession{}, ErrNotFound
	}
	if err != nil {
		return models.VotingSession{}, storageErr("query session", err)
	}
	return sess, nil
}

func (s *Store) ListSessionsByMeeting(ctx context.Context, meetingID string) ([]models.VotingSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, meeting_id, title, description, voting_type, status,
		       allow_abstention, secret_ballot, minimum_quorum, required_majority,
		       qualified_percentage, timeout_minutes, created_by, created_at,
		       started_at, ended_at, opening_hash, closing_hash
		FROM voting_session
		WHERE meeting_id = $1
		ORDER BY created_at, id
	`, meetingID)
	if err != nil {
		return nil, storageErr("query sessions by meeting", err)
	}
	defer rows.Close()

	sessions := []models.VotingSession{}
	for rows.Next() {
		var sess models.VotingSession
		if err := rows.Scan(
			&sess.ID, &sess.MeetingID, &sess.Title, &sess.Description, &sess.VotingType,
			&sess.Status, &sess.AllowAbstention, &sess.SecretBallot, &sess.MinimumQuorum,
			&sess.RequiredMajority, &sess.QualifiedPercentage, &sess.TimeoutMinutes,
			&sess.CreatedBy, &sess.CreatedAt, &sess.StartedAt, &sess.EndedAt,
			&sess.OpeningHash, &sess.ClosingHash,
		); err != nil {
			return nil, storageErr("scan session", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// TransitionStatus performs a compare-and-swap status update: the row
// is changed only if it is still in the status the caller read. Zero
// rows affected means another transition won the race (or the caller's
// read was stale) and surfaces as ErrTransitionConflict.
func (s *Store) TransitionStatus(ctx context.Context, sessionID, from, to string, upd StatusUpdate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE voting_session
		SET status = $1,
		    started_at = COALESCE($2, started_at),
		    ended_at = COALESCE($3, ended_at),
		    opening_hash = COALESCE($4, opening_hash),
		    closing_hash = COALESCE($5, closing_hash)
		WHERE id = $6 AND status = $7
	`, to, upd.StartedAt, upd.EndedAt, upd.OpeningHash, upd.ClosingHash, sessionID, from)
	if err != nil {
		return storageErr("transition status", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("transition status rows", err)
	}
	if affected == 0 {
		// Distinguish a missing session from a lost race.
		if _, getErr := s.GetSession(ctx, sessionID); getErr != nil {
			return getErr
		}
		return ErrTransitionConflict
	}
	return nil
}

func (s *Store) ListOptions(ctx context.Context, sessionID string) ([]models.VotingOption, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, option_text, option_order, color, active
		FROM voting_option
		WHERE session_id = $1
		ORDER BY option_order
	`, sessionID)
	if err != nil {
		return nil, storageErr("query options", err)
	}
	defer rows.Close()

	options := []models.VotingOption{}
	for rows.Next() {
		var opt models.VotingOption
		var color sql.NullString
		if err := rows.Scan(&opt.ID, &opt.SessionID, &opt.Text, &opt.Order, &color, &opt.Active); err != nil {
			return nil, storageErr("scan option", err)
		}
		opt.Color = color.String
		options = append(options, opt)
	}
	return options, rows.Err()
}

// InsertVote stores a cast ballot. A second vote by the same voter in
// the same session trips the UNIQUE (session_id, voter_id) constraint
// and returns ErrDuplicateVote, race-safe under concurrent submission.
func (s *Store) InsertVote(ctx context.Context, v models.Vote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vote (id, session_id, voter_id, option_id, voted_at, device_info, vote_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, v.ID, v.SessionID, v.VoterID, v.OptionID, v.VotedAt, v.DeviceInfo, v.VoteHash)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		return storageErr("insert vote", err)
	}
	return nil
}

func (s *Store) ListVotes(ctx context.Context, sessionID string) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, voter_id, option_id, voted_at, device_info, vote_hash
		FROM vote
		WHERE session_id = $1
		ORDER BY voted_at, id
	`, sessionID)
	if err != nil {
		return nil, storageErr("query votes", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// GetVoteByVoter returns nil without error when the voter has not voted.
func (s *Store) GetVoteByVoter(ctx context.Context, sessionID, voterID string) (*models.Vote, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, voter_id, option_id, voted_at, device_info, vote_hash
		FROM vote
		WHERE session_id = $1 AND voter_id = $2
	`, sessionID, voterID)

	v, err := scanVote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertPresence writes or corrects an eligibility record.
func (s *Store) UpsertPresence(ctx context.Context, p models.VotingPresence) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voting_presence (session_id, voter_id, present, justification, marked_at, marked_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, voter_id) DO UPDATE SET
			present = EXCLUDED.present,
			justification = EXCLUDED.justification,
			marked_at = EXCLUDED.marked_at,
			marked_by = EXCLUDED.marked_by
	`, p.SessionID, p.VoterID, p.Present, p.Justification, p.MarkedAt, p.MarkedBy)
	if err != nil {
		return storageErr("upsert presence", err)
	}
	return nil
}

// GetPresence returns nil without error when no record exists.
func (s *Store) GetPresence(ctx context.Context, sessionID, voterID string) (*models.VotingPresence, error) {
	var p models.VotingPresence
	var justification sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, voter_id, present, justification, marked_at, marked_by
		FROM voting_presence
		WHERE session_id = $1 AND voter_id = $2
	`, sessionID, voterID).Scan(&p.SessionID, &p.VoterID, &p.Present, &justification, &p.MarkedAt, &p.MarkedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("query presence", err)
	}
	p.Justification = justification.String
	return &p, nil
}

func (s *Store) ListPresence(ctx context.Context, sessionID string) ([]models.VotingPresence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, voter_id, present, justification, marked_at, marked_by
		FROM voting_presence
		WHERE session_id = $1
		ORDER BY voter_id
	`, sessionID)
	if err != nil {
		return nil, storageErr("query presence list", err)
	}
	defer rows.Close()

	presence := []models.VotingPresence{}
	for rows.Next() {
		var p models.VotingPresence
		var justification sql.NullString
		if err := rows.Scan(&p.SessionID, &p.VoterID, &p.Present, &justification, &p.MarkedAt, &p.MarkedBy); err != nil {
			return nil, storageErr("scan presence", err)
		}
		p.Justification = justification.String
		presence = append(presence, p)
	}
	return presence, rows.Err()
}

// WriteResults persists the derived snapshot. Concurrent recomputes may
// race here; last write wins, which is safe because the calculation is
// deterministic over the durable vote set.
func (s *Store) WriteResults(ctx context.Context, r models.VotingResults) error {
	tallyJSON, err := json.Marshal(r.PerOptionTally)
	if err != nil {
		return storageErr("marshal tally", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO voting_results (session_id, total_eligible, total_present, total_votes,
			total_abstentions, per_option_tally, quorum_reached, approved,
			winning_option_id, calculated_at, result_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO UPDATE SET
			total_eligible = EXCLUDED.total_eligible,
			total_present = EXCLUDED.total_present,
			total_votes = EXCLUDED.total_votes,
			total_abstentions = EXCLUDED.total_abstentions,
			per_option_tally = EXCLUDED.per_option_tally,
			quorum_reached = EXCLUDED.quorum_reached,
			approved = EXCLUDED.approved,
			winning_option_id = EXCLUDED.winning_option_id,
			calculated_at = EXCLUDED.calculated_at,
			result_hash = EXCLUDED.result_hash
	`, r.SessionID, r.TotalEligible, r.TotalPresent, r.TotalVotes, r.TotalAbstentions,
		string(tallyJSON), r.QuorumReached, r.Approved, r.WinningOptionID, r.CalculatedAt, r.ResultHash)
	if err != nil {
		return storageErr("write results", err)
	}
	return nil
}

// GetResults returns nil without error when no snapshot exists yet.
func (s *Store) GetResults(ctx context.Context, sessionID string) (*models.VotingResults, error) {
	var r models.VotingResults
	var tallyJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, total_eligible, total_present, total_votes, total_abstentions,
		       per_option_tally, quorum_reached, approved, winning_option_id,
		       calculated_at, result_hash
		FROM voting_results
		WHERE session_id = $1
	`, sessionID).Scan(
		&r.SessionID, &r.TotalEligible, &r.TotalPresent, &r.TotalVotes, &r.TotalAbstentions,
		&tallyJSON, &r.QuorumReached, &r.Approved, &r.WinningOptionID, &r.CalculatedAt, &r.ResultHash,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("query results", err)
	}

	if err := json.Unmarshal([]byte(tallyJSON), &r.PerOptionTally); err != nil {
		return nil, storageErr("unmarshal tally", err)
	}
	return &r, nil
}

// AppendAuditLog records one state-changing operation. Entries are
// never updated or deleted.
func (s *Store) AppendAuditLog(ctx context.Context, e models.AuditLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, session_id, user_id, action, old_data, new_data, action_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.SessionID, e.UserID, e.Action, e.OldData, e.NewData, e.ActionHash, e.Timestamp)
	if err != nil {
		return storageErr("append audit log", err)
	}
	return nil
}

func (s *Store) ListAuditLog(ctx context.Context, sessionID string) ([]models.AuditLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, action, old_data, new_data, action_hash, created_at
		FROM audit_log
		WHERE session_id = $1
		ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, storageErr("query audit log", err)
	}
	defer rows.Close()

	entries := []models.AuditLogEntry{}
	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserID, &e.Action, &e.OldData, &e.NewData, &e.ActionHash, &e.Timestamp); err != nil {
			return nil, storageErr("scan audit entry", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVote(row scanner) (models.Vote, error) {
	var v models.Vote
	var deviceInfo sql.NullString
	err := row.Scan(&v.ID, &v.SessionID, &v.VoterID, &v.OptionID, &v.VotedAt, &deviceInfo, &v.VoteHash)
	if err == sql.ErrNoRows {
		return models.Vote{}, err
	}
	if err != nil {
		return models.Vote{}, storageErr("scan vote", err)
	}
	v.DeviceInfo = deviceInfo.String
	return v, nil
}

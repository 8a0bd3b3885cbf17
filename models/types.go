// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Session status constants
const (
	StatusPreparing = "preparing"
	StatusOpen      = "open"
	StatusClosed    = "closed"
	StatusCancelled = "cancelled"
)

// Voting type constants
const (
	VotingTypeSimple    = "simple"
	VotingTypeQualified = "qualified"
	VotingTypeUnanimous = "unanimous"
	VotingTypeSecret    = "secret"
)

// Required majority constants
const (
	MajoritySimple    = "simple"
	MajorityAbsolute  = "absolute"
	MajorityQualified = "qualified"
	MajorityUnanimous = "unanimous"
)

// Audit action constants
const (
	ActionSessionCreated   = "session_created"
	ActionSessionStarted   = "session_started"
	ActionSessionEnded     = "session_ended"
	ActionSessionCancelled = "session_cancelled"
	ActionVoteCast         = "vote_cast"
	ActionPresenceMarked   = "presence_marked"
)

// Request types

type OptionSpec struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

type PresenceSpec struct {
	VoterID       string `json:"voter_id"`
	Present       bool   `json:"present"`
	Justification string `json:"justification,omitempty"`
}

type CreateSessionRequest struct {
	MeetingID           string         `json:"meeting_id"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	VotingType          string         `json:"voting_type"`
	AllowAbstention     bool           `json:"allow_abstention"`
	SecretBallot        bool           `json:"secret_ballot"`
	MinimumQuorum       int            `json:"minimum_quorum"`
	RequiredMajority    string         `json:"required_majority"`
	QualifiedPercentage *float64       `json:"qualified_percentage,omitempty"`
	TimeoutMinutes      int            `json:"timeout_minutes"`
	CreatedBy           string         `json:"created_by"`
	Options             []OptionSpec   `json:"options"`
	Presence            []PresenceSpec `json:"presence"`
}

type CastVoteRequest struct {
	VoterID    string  `json:"voter_id"`
	OptionID   *string `json:"option_id"` // null = abstention
	DeviceInfo string  `json:"device_info,omitempty"`
}

type MarkPresenceRequest struct {
	VoterID       string `json:"voter_id"`
	Present       bool   `json:"present"`
	Justification string `json:"justification,omitempty"`
	MarkedBy      string `json:"marked_by"`
}

type TransitionRequest struct {
	ActorID string `json:"actor_id"`
}

// Response types

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type StartSessionResponse struct {
	StartedAt   time.Time `json:"started_at"`
	OpeningHash string    `json:"opening_hash"`
}

type EndSessionResponse struct {
	EndedAt     time.Time     `json:"ended_at"`
	ClosingHash string        `json:"closing_hash"`
	Results     VotingResults `json:"results"`
}

type CastVoteResponse struct {
	VoteHash string    `json:"vote_hash"`
	VotedAt  time.Time `json:"voted_at"`
}

type CanVoteResponse struct {
	CanVote  bool   `json:"can_vote"`
	HasVoted bool   `json:"has_voted"`
	Reason   string `json:"reason,omitempty"`
}

type SessionDetailResponse struct {
	Session         VotingSession    `json:"session"`
	Options         []VotingOption   `json:"options"`
	Results         *VotingResults   `json:"results,omitempty"`
	CurrentUserVote *Vote            `json:"current_user_vote,omitempty"`
	Presence        []VotingPresence `json:"presence"`
}

type ExportResponse struct {
	Session  VotingSession   `json:"session"`
	Options  []VotingOption  `json:"options"`
	Results  *VotingResults  `json:"results,omitempty"`
	AuditLog []AuditLogEntry `json:"audit_log"`
	Checksum string          `json:"checksum"`
}

// Domain types

type VotingSession struct {
	ID                  string     `json:"id"`
	MeetingID           string     `json:"meeting_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	VotingType          string     `json:"voting_type"`
	Status              string     `json:"status"`
	AllowAbstention     bool       `json:"allow_abstention"`
	SecretBallot        bool       `json:"secret_ballot"`
	MinimumQuorum       int        `json:"minimum_quorum"`
	RequiredMajority    string     `json:"required_majority"`
	QualifiedPercentage *float64   `json:"qualified_percentage,omitempty"`
	TimeoutMinutes      int        `json:"timeout_minutes"`
	CreatedBy           string     `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	EndedAt             *time.Time `json:"ended_at,omitempty"`
	OpeningHash         *string    `json:"opening_hash,omitempty"`
	ClosingHash         *string    `json:"closing_hash,omitempty"`
}

type VotingOption struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Order     int    `json:"order"` // 1-based, unique per session
	Color     string `json:"color,omitempty"`
	Active    bool   `json:"active"`
}

type Vote struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	VoterID    string    `json:"voter_id"`
	OptionID   *string   `json:"option_id"` // null = abstention
	VotedAt    time.Time `json:"voted_at"`
	DeviceInfo string    `json:"-"` // Never expose in JSON
	VoteHash   string    `json:"vote_hash"`
}

type VotingPresence struct {
	SessionID     string    `json:"session_id"`
	VoterID       string    `json:"voter_id"`
	Present       bool      `json:"present"`
	Justification string    `json:"justification,omitempty"`
	MarkedAt      time.Time `json:"marked_at"`
	MarkedBy      string    `json:"marked_by"`
}

type OptionTally struct {
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type VotingResults struct {
	SessionID        string                 `json:"session_id"`
	TotalEligible    int                    `json:"total_eligible"`
	TotalPresent     int                    `json:"total_present"`
	TotalVotes       int                    `json:"total_votes"`
	TotalAbstentions int                    `json:"total_abstentions"`
	PerOptionTally   map[string]OptionTally `json:"per_option_tally"`
	QuorumReached    bool                   `json:"quorum_reached"`
	Approved         *bool                  `json:"approved,omitempty"`
	WinningOptionID  *string                `json:"winning_option_id,omitempty"`
	CalculatedAt     time.Time              `json:"calculated_at"`
	ResultHash       string                 `json:"result_hash"`
}

type AuditLogEntry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	OldData    *string   `json:"old_data,omitempty"`
	NewData    *string   `json:"new_data,omitempty"`
	ActionHash string    `json:"action_hash"`
	Timestamp  time.Time `json:"timestamp"`
}

// Error response

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

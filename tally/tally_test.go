// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"testing"
	"time"

	"github.com/codema-digital/voting-engine/models"
)

func testSession(majority string, quorum int) models.VotingSession {
	return models.VotingSession{
		ID:               "session-1",
		MeetingID:        "meeting-1",
		Status:           models.StatusOpen,
		AllowAbstention:  true,
		MinimumQuorum:    quorum,
		RequiredMajority: majority,
	}
}

func testOptions(ids ...string) []models.VotingOption {
	opts := make([]models.VotingOption, len(ids))
	for i, id := range ids {
		opts[i] = models.VotingOption{ID: id, SessionID: "session-1", Text: id, Order: i + 1, Active: true}
	}
	return opts
}

// vote builds a ballot for an option; optionID "" means abstention.
func vote(voterID, optionID string) models.Vote {
	v := models.Vote{ID: "vote-" + voterID, SessionID: "session-1", VoterID: voterID, VotedAt: time.Now()}
	if optionID != "" {
		opt := optionID
		v.OptionID = &opt
	}
	return v
}

func present(n int) []models.VotingPresence {
	rows := make([]models.VotingPresence, n)
	for i := range rows {
		rows[i] = models.VotingPresence{SessionID: "session-1", VoterID: "voter" + string(rune('1'+i)), Present: true}
	}
	return rows
}

func TestComputeSimpleMajority(t *testing.T) {
	session := testSession(models.MajoritySimple, 3)
	options := testOptions("approve", "reject")

	// 4 councilors present, 3 approve, 1 rejects
	votes := []models.Vote{
		vote("voter1", "approve"),
		vote("voter2", "approve"),
		vote("voter3", "approve"),
		vote("voter4", "reject"),
	}

	results := Compute(session, options, votes, present(4), time.Now())

	if results.TotalVotes != 4 {
		t.Errorf("Expected 4 votes, got %d", results.TotalVotes)
	}
	if !results.QuorumReached {
		t.Error("Expected quorum to be reached")
	}
	if results.Approved == nil || !*results.Approved {
		t.Error("Expected session to be approved")
	}
	if results.WinningOptionID == nil || *results.WinningOptionID != "approve" {
		t.Errorf("Expected approve to win, got %v", results.WinningOptionID)
	}
	if got := results.PerOptionTally["approve"].Percentage; got != 75.0 {
		t.Errorf("Expected approve at 75%%, got %f", got)
	}
	if got := results.PerOptionTally["reject"].Percentage; got != 25.0 {
		t.Errorf("Expected reject at 25%%, got %f", got)
	}
}

func TestComputePercentagesExcludeAbstentions(t *testing.T) {
	session := testSession(models.MajoritySimple, 1)
	options := testOptions("a", "b", "c")

	// 10 participants: 5 for a, 3 for b, 2 abstain. Percentages are over
	// the 8 cast votes, not the 10 participants.
	votes := []models.Vote{
		vote("v1", "a"), vote("v2", "a"), vote("v3", "a"), vote("v4", "a"), vote("v5", "a"),
		vote("v6", "b"), vote("v7", "b"), vote("v8", "b"),
		vote("v9", ""), vote("v10", ""),
	}

	results := Compute(session, options, votes, present(10), time.Now())

	if results.TotalVotes != 8 {
		t.Errorf("Expected 8 cast votes, got %d", results.TotalVotes)
	}
	if results.TotalAbstentions != 2 {
		t.Errorf("Expected 2 abstentions, got %d", results.TotalAbstentions)
	}
	if got := results.PerOptionTally["a"].Percentage; got != 62.5 {
		t.Errorf("Expected a at 62.5%%, got %f", got)
	}
	if got := results.PerOptionTally["b"].Percentage; got != 37.5 {
		t.Errorf("Expected b at 37.5%%, got %f", got)
	}
	if got := results.PerOptionTally["c"].Percentage; got != 0.0 {
		t.Errorf("Expected c at 0%%, got %f", got)
	}
}

func TestComputeQuorumCountsAbstentions(t *testing.T) {
	session := testSession(models.MajoritySimple, 3)
	options := testOptions("approve", "reject")

	// 2 votes + 1 abstention = 3 participants, exactly the minimum
	votes := []models.Vote{
		vote("voter1", "approve"),
		vote("voter2", "approve"),
		vote("voter3", ""),
	}

	results := Compute(session, options, votes, present(5), time.Now())

	if !results.QuorumReached {
		t.Error("Expected quorum reached with participation exactly at minimum")
	}
	if results.Approved == nil || !*results.Approved {
		t.Error("Expected approval once quorum is reached")
	}
}

func TestComputeQuorumNotReached(t *testing.T) {
	session := testSession(models.MajoritySimple, 3)
	options := testOptions("approve", "reject")

	votes := []models.Vote{
		vote("voter1", "approve"),
		vote("voter2", "approve"),
	}

	results := Compute(session, options, votes, present(5), time.Now())

	if results.QuorumReached {
		t.Error("Expected quorum NOT reached with 2 participants against minimum 3")
	}
	if results.Approved == nil || *results.Approved {
		t.Error("Expected no approval without quorum")
	}
	if results.WinningOptionID != nil {
		t.Errorf("Expected no winning option without quorum, got %v", *results.WinningOptionID)
	}
}

func TestComputeAbsoluteMajority(t *testing.T) {
	session := testSession(models.MajorityAbsolute, 1)
	options := testOptions("approve", "reject")

	// 10 present, leader has exactly 5: half is NOT a majority
	votes := []models.Vote{
		vote("v1", "approve"), vote("v2", "approve"), vote("v3", "approve"),
		vote("v4", "approve"), vote("v5", "approve"),
		vote("v6", "reject"), vote("v7", "reject"),
	}

	results := Compute(session, options, votes, present(10), time.Now())
	if results.Approved == nil || *results.Approved {
		t.Error("Expected 5 of 10 present to fail absolute majority")
	}

	// One more vote for the leader crosses the bar
	votes = append(votes, vote("v8", "approve"))
	results = Compute(session, options, votes, present(10), time.Now())
	if results.Approved == nil || !*results.Approved {
		t.Error("Expected 6 of 10 present to pass absolute majority")
	}
	if results.WinningOptionID == nil || *results.WinningOptionID != "approve" {
		t.Errorf("Expected approve to win, got %v", results.WinningOptionID)
	}
}

func TestComputeQualifiedMajority(t *testing.T) {
	pct := 66.0
	session := testSession(models.MajorityQualified, 1)
	session.QualifiedPercentage = &pct
	options := testOptions("approve", "reject")

	// 2 of 3 cast votes = 66.67%, just over the bar
	votes := []models.Vote{
		vote("v1", "approve"), vote("v2", "approve"), vote("v3", "reject"),
	}
	results := Compute(session, options, votes, present(3), time.Now())
	if results.Approved == nil || !*results.Approved {
		t.Error("Expected 66.67% to satisfy a 66% qualified majority")
	}

	// 3 of 5 = 60%, under the bar
	votes = []models.Vote{
		vote("v1", "approve"), vote("v2", "approve"), vote("v3", "approve"),
		vote("v4", "reject"), vote("v5", "reject"),
	}
	results = Compute(session, options, votes, present(5), time.Now())
	if results.Approved == nil || *results.Approved {
		t.Error("Expected 60% to fail a 66% qualified majority")
	}
}

func TestComputeUnanimous(t *testing.T) {
	session := testSession(models.MajorityUnanimous, 1)
	options := testOptions("approve", "reject")

	votes := []models.Vote{
		vote("v1", "approve"), vote("v2", "approve"), vote("v3", "approve"),
	}
	results := Compute(session, options, votes, present(3), time.Now())
	if results.Approved == nil || !*results.Approved {
		t.Error("Expected unanimous approval")
	}

	// Abstentions do not break unanimity of the cast votes
	votes = append(votes, vote("v4", ""))
	results = Compute(session, options, votes, present(4), time.Now())
	if results.Approved == nil || !*results.Approved {
		t.Error("Expected abstention to leave unanimity intact")
	}

	// A single dissent does
	votes = append(votes, vote("v5", "reject"))
	results = Compute(session, options, votes, present(5), time.Now())
	if results.Approved == nil || *results.Approved {
		t.Error("Expected dissent to break unanimity")
	}
}

func TestComputeTieYieldsNoWinner(t *testing.T) {
	session := testSession(models.MajoritySimple, 1)
	options := testOptions("a", "b")

	votes := []models.Vote{
		vote("v1", "a"), vote("v2", "a"),
		vote("v3", "b"), vote("v4", "b"),
	}

	results := Compute(session, options, votes, present(4), time.Now())
	if results.Approved == nil || *results.Approved {
		t.Error("Expected exact tie to yield no approval")
	}
	if results.WinningOptionID != nil {
		t.Errorf("Expected no winning option on a tie, got %v", *results.WinningOptionID)
	}
}

func TestComputeTieBrokenByThirdOption(t *testing.T) {
	session := testSession(models.MajoritySimple, 1)
	options := testOptions("a", "b", "c")

	// a and b tie at 3 but c leads with 5; the tie below first place
	// must not block the winner.
	var votes []models.Vote
	for i := 0; i < 3; i++ {
		votes = append(votes, vote("a"+string(rune('1'+i)), "a"))
		votes = append(votes, vote("b"+string(rune('1'+i)), "b"))
	}
	for i := 0; i < 5; i++ {
		votes = append(votes, vote("c"+string(rune('1'+i)), "c"))
	}

	results := Compute(session, options, votes, present(11), time.Now())
	if results.Approved == nil || !*results.Approved {
		t.Error("Expected c to be approved")
	}
	if results.WinningOptionID == nil || *results.WinningOptionID != "c" {
		t.Errorf("Expected c to win, got %v", results.WinningOptionID)
	}
}

func TestComputeAllAbstentions(t *testing.T) {
	session := testSession(models.MajorityUnanimous, 2)
	options := testOptions("approve", "reject")

	// Everyone abstained: quorum is met (participation) but nothing can
	// be approved, even under the unanimous rule.
	votes := []models.Vote{
		vote("v1", ""), vote("v2", ""), vote("v3", ""),
	}

	results := Compute(session, options, votes, present(3), time.Now())
	if !results.QuorumReached {
		t.Error("Expected quorum from abstention participation")
	}
	if results.Approved == nil || *results.Approved {
		t.Error("Expected no approval when every ballot abstained")
	}
	if results.WinningOptionID != nil {
		t.Error("Expected no winning option when every ballot abstained")
	}
}

func TestComputeNoVotes(t *testing.T) {
	session := testSession(models.MajoritySimple, 1)
	options := testOptions("approve", "reject")

	results := Compute(session, options, nil, present(3), time.Now())

	if results.QuorumReached {
		t.Error("Expected no quorum with zero participation")
	}
	if results.Approved == nil || *results.Approved {
		t.Error("Expected no approval with zero ballots")
	}
	if got := results.PerOptionTally["approve"].Percentage; got != 0.0 {
		t.Errorf("Expected 0%% with zero ballots, got %f", got)
	}
}

func TestComputeCountsPresence(t *testing.T) {
	session := testSession(models.MajoritySimple, 1)
	options := testOptions("approve")

	presence := []models.VotingPresence{
		{SessionID: "session-1", VoterID: "v1", Present: true},
		{SessionID: "session-1", VoterID: "v2", Present: true},
		{SessionID: "session-1", VoterID: "v3", Present: false},
	}

	results := Compute(session, options, []models.Vote{vote("v1", "approve")}, presence, time.Now())

	if results.TotalEligible != 3 {
		t.Errorf("Expected 3 eligible, got %d", results.TotalEligible)
	}
	if results.TotalPresent != 2 {
		t.Errorf("Expected 2 present, got %d", results.TotalPresent)
	}
}

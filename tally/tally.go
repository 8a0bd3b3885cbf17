// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"sort"
	"time"

	"github.com/codema-digital/voting-engine/models"
)

// Compute derives a VotingResults snapshot from the current votes and
// presence under the session's rules. It is the only place quorum and
// majority math lives; callers persist the returned snapshot as-is
// (ResultHash is left empty for the caller to fill).
//
// Two deliberate asymmetries, preserved from council policy:
//
//   - Quorum counts votes AND abstentions (participation-based, not
//     headcount-based).
//   - Option percentages are computed over cast votes only, excluding
//     abstentions from the denominator. Abstaining counts toward
//     participation but does not dilute option support.
func Compute(session models.VotingSession, options []models.VotingOption, votes []models.Vote, presence []models.VotingPresence, at time.Time) models.VotingResults {
	results := models.VotingResults{
		SessionID:      session.ID,
		TotalEligible:  len(presence),
		PerOptionTally: make(map[string]models.OptionTally, len(options)),
		CalculatedAt:   at,
	}

	for _, p := range presence {
		if p.Present {
			results.TotalPresent++
		}
	}

	counts := make(map[string]int, len(options))
	for _, v := range votes {
		if v.OptionID == nil {
			results.TotalAbstentions++
			continue
		}
		results.TotalVotes++
		counts[*v.OptionID]++
	}

	results.QuorumReached = results.TotalVotes+results.TotalAbstentions >= session.MinimumQuorum

	for _, opt := range options {
		n := counts[opt.ID]
		pct := 0.0
		if results.TotalVotes > 0 {
			pct = float64(n) / float64(results.TotalVotes) * 100
		}
		results.PerOptionTally[opt.ID] = models.OptionTally{Votes: n, Percentage: pct}
	}

	winner, ok := evaluate(session, options, results)
	approved := results.QuorumReached && ok
	results.Approved = &approved
	if approved {
		w := winner
		results.WinningOptionID = &w
	}

	return results
}

// evaluate applies the session's majority rule and reports whether a
// winning option satisfies it. The leader is the option with the most
// votes; an exact tie for first place never yields a winner.
func evaluate(session models.VotingSession, options []models.VotingOption, results models.VotingResults) (string, bool) {
	if results.TotalVotes == 0 {
		// Everyone abstained (or nobody voted): no winning option,
		// including under the unanimous rule.
		return "", false
	}

	leaderID, leaderVotes, tied := leader(options, results.PerOptionTally)
	if tied {
		return "", false
	}

	switch session.RequiredMajority {
	case models.MajorityAbsolute:
		// Strictly more than half of those present. Exactly half fails.
		return leaderID, 2*leaderVotes > results.TotalPresent

	case models.MajorityQualified:
		if session.QualifiedPercentage == nil {
			return "", false
		}
		return leaderID, results.PerOptionTally[leaderID].Percentage >= *session.QualifiedPercentage

	case models.MajorityUnanimous:
		return leaderID, leaderVotes == results.TotalVotes

	default: // simple
		return leaderID, true
	}
}

// leader finds the option with the most votes. Options are scanned in
// their session order so the result is deterministic; tied reports an
// exact tie for first place.
func leader(options []models.VotingOption, tallies map[string]models.OptionTally) (id string, votes int, tied bool) {
	sorted := make([]models.VotingOption, len(options))
	copy(sorted, options)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})

	for _, opt := range sorted {
		n := tallies[opt.ID].Votes
		if n > votes {
			id, votes, tied = opt.ID, n, false
		} else if n == votes && n > 0 && opt.ID != id {
			tied = true
		}
	}
	return id, votes, tied
}

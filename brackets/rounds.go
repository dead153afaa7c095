// Package brackets holds the round arithmetic and match lookups shared by the
// placement rules of every tournament format.
package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/standings-engine/models"
)

var (
	ErrFinalNotFound      = errors.New("final match not found")
	ErrAmbiguousFinal     = errors.New("more than one match in the final round")
	ErrGrandFinalNotFound = errors.New("completed grand final not found")
)

// MatchFilter selects the matches a lookup is restricted to.
type MatchFilter func(m *models.Match) bool

// IsWinnerSide accepts winner-bracket matches and matches without a bracket type.
func IsWinnerSide(m *models.Match) bool {
	return m.BracketType == nil || *m.BracketType == models.BracketWinner
}

// IsWinnerBracket accepts only matches explicitly marked as winner-bracket.
func IsWinnerBracket(m *models.Match) bool {
	return m.HasBracketType(models.BracketWinner)
}

// MaxRound returns the highest round among matches accepted by filter, or 0.
func MaxRound(matches []models.Match, filter MatchFilter) int {
	maxRound := 0
	for i := range matches {
		m := &matches[i]
		if filter != nil && !filter(m) {
			continue
		}
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}
	return maxRound
}

// FindFinal returns the single elimination final: the only winner-side match
// played in the highest winner-side round.
func FindFinal(matches []models.Match) (*models.Match, error) {
	maxRound := MaxRound(matches, IsWinnerSide)
	if maxRound == 0 {
		return nil, ErrFinalNotFound
	}
	var final *models.Match
	for i := range matches {
		m := &matches[i]
		if !IsWinnerSide(m) || m.Round != maxRound {
			continue
		}
		if final != nil {
			return nil, fmt.Errorf("%w: round %d has matches %d and %d", ErrAmbiguousFinal, maxRound, final.ID, m.ID)
		}
		final = m
	}
	return final, nil
}

// FindGrandFinal returns the completed grand final of a double elimination
// bracket. When a bracket reset produced a second grand final the later one wins.
func FindGrandFinal(matches []models.Match) (*models.Match, error) {
	var gf *models.Match
	for i := range matches {
		m := &matches[i]
		if !m.HasBracketType(models.BracketGrandFinal) || !m.IsCompleted() {
			continue
		}
		if gf == nil || Later(m, gf) {
			gf = m
		}
	}
	if gf == nil {
		return nil, ErrGrandFinalNotFound
	}
	return gf, nil
}

// Later orders matches by round, then completion time, then id.
// A match without a completion time is earlier than one with it.
func Later(a, b *models.Match) bool {
	if a.Round != b.Round {
		return a.Round > b.Round
	}
	switch {
	case a.CompletedAt == nil && b.CompletedAt != nil:
		return false
	case a.CompletedAt != nil && b.CompletedAt == nil:
		return true
	case a.CompletedAt != nil && b.CompletedAt != nil && !a.CompletedAt.Equal(*b.CompletedAt):
		return a.CompletedAt.After(*b.CompletedAt)
	}
	return a.ID > b.ID
}

// LastLoss returns the latest completed match the player lost, or nil.
// Matches whose winner is not one of their players are ignored.
func LastLoss(matches []models.Match, playerID int) *models.Match {
	var last *models.Match
	for i := range matches {
		m := &matches[i]
		if !m.IsCompleted() || !m.HasValidWinner() || !m.Involves(playerID) || *m.WinnerID == playerID {
			continue
		}
		if last == nil || Later(m, last) {
			last = m
		}
	}
	return last
}

// SurvivorsAfter is the number of players still alive once round is over in a
// single elimination bracket of totalPlayers: ceil(totalPlayers / 2^round).
func SurvivorsAfter(totalPlayers, round int) int {
	if totalPlayers <= 0 {
		return 0
	}
	if round <= 0 {
		return totalPlayers
	}
	if round >= 31 {
		return 1
	}
	div := 1 << uint(round)
	return (totalPlayers + div - 1) / div
}

// EliminationPosition is the tied position shared by every player knocked out
// in round.
func EliminationPosition(totalPlayers, round int) int {
	return SurvivorsAfter(totalPlayers, round) + 1
}

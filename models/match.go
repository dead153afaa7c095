package models

import "time"

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
)

// BracketType tells which tree of a double elimination bracket a match belongs to.
// Single elimination and round robin matches usually carry no bracket type.
type BracketType string

const (
	BracketWinner     BracketType = "winner"
	BracketLoser      BracketType = "loser"
	BracketGrandFinal BracketType = "grand_final"
)

type Match struct {
	ID              int          `json:"id" db:"id"`
	TournamentID    int          `json:"tournament_id" db:"tournament_id"`
	Round           int          `json:"round" db:"round"`
	BracketPosition int          `json:"bracket_position" db:"bracket_position"`
	BracketType     *BracketType `json:"bracket_type,omitempty" db:"bracket_type"`
	Player1ID       *int         `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID       *int         `json:"player2_id,omitempty" db:"player2_id"`
	WinnerID        *int         `json:"winner_id,omitempty" db:"winner_id"`
	Status          MatchStatus  `json:"status" db:"status"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
}

func (m *Match) IsCompleted() bool {
	return m.Status == MatchStatusCompleted
}

// HasBracketType reports whether the match belongs to the given bracket tree.
func (m *Match) HasBracketType(bt BracketType) bool {
	return m.BracketType != nil && *m.BracketType == bt
}

func (m *Match) Involves(playerID int) bool {
	return (m.Player1ID != nil && *m.Player1ID == playerID) ||
		(m.Player2ID != nil && *m.Player2ID == playerID)
}

// HasValidWinner checks that a completed match names one of its own players as winner.
func (m *Match) HasValidWinner() bool {
	if m.WinnerID == nil {
		return false
	}
	return m.Involves(*m.WinnerID)
}

// LoserID returns the opponent of the winner, or nil for an undecided match or a bye.
func (m *Match) LoserID() *int {
	if m.WinnerID == nil {
		return nil
	}
	switch {
	case m.Player1ID != nil && *m.Player1ID == *m.WinnerID:
		return m.Player2ID
	case m.Player2ID != nil && *m.Player2ID == *m.WinnerID:
		return m.Player1ID
	}
	return nil
}

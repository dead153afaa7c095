package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Registration is one participant's entry in a tournament.
// Position, Winnings, MatchesWon, MatchesLost and EliminatedAt are derived
// fields owned by the standings calculator and are recomputed wholesale.
type Registration struct {
	ID           int                 `json:"id" db:"id"`
	TournamentID int                 `json:"tournament_id" db:"tournament_id"`
	PlayerID     int                 `json:"player_id" db:"player_id"`
	Position     *int                `json:"position" db:"position"`
	Winnings     decimal.NullDecimal `json:"winnings" db:"winnings"`
	MatchesWon   int                 `json:"matches_won" db:"matches_won"`
	MatchesLost  int                 `json:"matches_lost" db:"matches_lost"`
	EliminatedAt *time.Time          `json:"eliminated_at" db:"eliminated_at"`
}

// ResetDerived clears every field owned by the standings calculator.
func (r *Registration) ResetDerived() {
	r.Position = nil
	r.Winnings = decimal.NullDecimal{}
	r.MatchesWon = 0
	r.MatchesLost = 0
	r.EliminatedAt = nil
}

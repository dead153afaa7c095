package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusPending    TournamentStatus = "pending"
	StatusInProgress TournamentStatus = "in_progress"
	StatusCompleted  TournamentStatus = "completed"
)

// TournamentFormat decides how final positions are derived from the match graph.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatDoubleElimination TournamentFormat = "double_elimination"
	FormatRoundRobin        TournamentFormat = "round_robin"
)

func (f TournamentFormat) IsValid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElimination, FormatRoundRobin:
		return true
	}
	return false
}

// Tournament is the read-only snapshot of a tournament the engine works on.
type Tournament struct {
	ID                  int              `json:"id" db:"id"`
	Name                string           `json:"name" db:"name"`
	Format              TournamentFormat `json:"format" db:"format"`
	Status              TournamentStatus `json:"status" db:"status"`
	PayoutStructure     *PayoutStructure `json:"payout_structure,omitempty" db:"payout_structure"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	StandingsComputedAt *time.Time       `json:"standings_computed_at,omitempty" db:"standings_computed_at"`
}

func (t *Tournament) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

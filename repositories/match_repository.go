package repositories

import (
	"context"
	"database/sql"

	"github.com/Dosada05/standings-engine/models"
)

type MatchRepository interface {
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Match, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, round, bracket_position, bracket_type,
		       player1_id, player2_id, winner_id, status, completed_at
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round ASC, bracket_position ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(
			&m.ID, &m.TournamentID, &m.Round, &m.BracketPosition, &m.BracketType,
			&m.Player1ID, &m.Player2ID, &m.WinnerID, &m.Status, &m.CompletedAt,
		); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

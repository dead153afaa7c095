package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/standings-engine/models"
)

var ErrRegistrationNotFound = errors.New("registration not found")

type RegistrationRepository interface {
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Registration, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	// UpdateDerived overwrites the calculator-owned fields of each registration.
	UpdateDerived(ctx context.Context, exec Preparer, regs []models.Registration) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const registrationColumns = `id, tournament_id, player_id, position, winnings, matches_won, matches_lost, eliminated_at`

func (r *postgresRegistrationRepository) scanRegistrations(rows *sql.Rows) ([]models.Registration, error) {
	defer rows.Close()
	regs := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(
			&reg.ID, &reg.TournamentID, &reg.PlayerID, &reg.Position, &reg.Winnings,
			&reg.MatchesWon, &reg.MatchesLost, &reg.EliminatedAt,
		); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE tournament_id = $1
		ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	return r.scanRegistrations(rows)
}

func (r *postgresRegistrationRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresRegistrationRepository) UpdateDerived(ctx context.Context, exec Preparer, regs []models.Registration) error {
	if len(regs) == 0 {
		return nil
	}
	if exec == nil {
		exec = r.db
	}

	stmt, err := exec.PrepareContext(ctx, `
		UPDATE registrations SET
			position = $1, winnings = $2, matches_won = $3, matches_lost = $4, eliminated_at = $5
		WHERE id = $6 AND tournament_id = $7`)
	if err != nil {
		return fmt.Errorf("UpdateDerived failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, reg := range regs {
		result, err := stmt.ExecContext(ctx,
			reg.Position, reg.Winnings, reg.MatchesWon, reg.MatchesLost, reg.EliminatedAt,
			reg.ID, reg.TournamentID,
		)
		if err != nil {
			return fmt.Errorf("UpdateDerived failed for registration %d: %w", reg.ID, err)
		}
		if err := checkAffectedRows(result, ErrRegistrationNotFound); err != nil {
			return fmt.Errorf("UpdateDerived registration %d: %w", reg.ID, err)
		}
	}
	return nil
}

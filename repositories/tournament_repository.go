package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/standings-engine/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	UpdatePayoutStructure(ctx context.Context, exec SQLExecutor, id int, ps *models.PayoutStructure) error
	MarkStandingsComputed(ctx context.Context, exec SQLExecutor, id int, at time.Time) error
	// InvalidateStandings clears standings_computed_at so the next sweep recomputes.
	InvalidateStandings(ctx context.Context, exec SQLExecutor, id int) error
	ListStaleStandings(ctx context.Context, exec SQLExecutor, limit int) ([]int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, name, format, status, payout_structure, completed_at, standings_computed_at
		FROM tournaments
		WHERE id = $1`

	var (
		t      models.Tournament
		payout sql.Null[models.PayoutStructure]
	)
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Format, &t.Status, &payout, &t.CompletedAt, &t.StandingsComputedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}

	if payout.Valid {
		t.PayoutStructure = &payout.V
	}
	return &t, nil
}

// UpdatePayoutStructure overwrites the stored structure. A nil structure clears it.
func (r *postgresTournamentRepository) UpdatePayoutStructure(ctx context.Context, exec SQLExecutor, id int, ps *models.PayoutStructure) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET payout_structure = $1 WHERE id = $2`

	var payload interface{}
	if ps != nil {
		payload = *ps
	}

	result, err := executor.ExecContext(ctx, query, payload, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) MarkStandingsComputed(ctx context.Context, exec SQLExecutor, id int, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET standings_computed_at = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) InvalidateStandings(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE tournaments SET standings_computed_at = NULL WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ListStaleStandings returns completed tournaments whose standings were never
// computed or were computed before the tournament completed.
func (r *postgresTournamentRepository) ListStaleStandings(ctx context.Context, exec SQLExecutor, limit int) ([]int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id
		FROM tournaments
		WHERE status = $1
		  AND (standings_computed_at IS NULL OR standings_computed_at < completed_at)
		ORDER BY completed_at ASC NULLS FIRST, id ASC
		LIMIT $2`

	rows, err := executor.QueryContext(ctx, query, models.StatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/standings-engine/repositories"
)

// withTx runs fn inside a transaction. It commits when fn returns nil and rolls
// back on error or panic.
func withTx(ctx context.Context, db *sql.DB, logger *slog.Logger, fn func(tx *sql.Tx) error) (txErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("rollback failed", "error", rbErr, "cause", txErr)
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(tx)
	return txErr
}

func handleRepositoryError(err error, tournamentID int) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
	case errors.Is(err, repositories.ErrRegistrationNotFound):
		return fmt.Errorf("%w: registration of tournament %d disappeared: %v", ErrNotFound, tournamentID, err)
	}
	return err
}

func warningStrings(warnings []error) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.Error()
	}
	return out
}

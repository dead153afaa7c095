package services

import (
	"errors"

	"github.com/Dosada05/standings-engine/payouts"
	"github.com/Dosada05/standings-engine/standings"
)

// Errors shared by services and the HTTP error mapping.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrPayoutsNotConfigured = errors.New("tournament has no payout structure")
)

// Re-exported so handlers only depend on this package for error mapping.
var (
	ErrTournamentNotCompleted = standings.ErrTournamentNotCompleted
	ErrUnsupportedFormat      = standings.ErrUnsupportedFormat
	ErrNegativePot            = payouts.ErrNegativePot
	ErrPayoutMismatch         = payouts.ErrPayoutMismatch
	ErrPlaceNotFound          = payouts.ErrPlaceNotFound
)

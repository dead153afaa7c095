package payouts

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativePot         = errors.New("house fee exceeds total collected")
	ErrPayoutMismatch      = errors.New("payout amounts do not add up to the pot")
	ErrInvalidInput        = errors.New("invalid payout input")
	ErrNoPayouts           = errors.New("at least one paid place is required")
	ErrTooManyPlaces       = errors.New("more paid places than requested")
	ErrNegativeAmount      = errors.New("payout amount cannot be negative")
	ErrInvalidPlace        = errors.New("payout place must be 1 or greater")
	ErrDuplicatePlace      = errors.New("payout place is listed more than once")
	ErrNonContiguousPlaces = errors.New("payout places must run from 1 without gaps")
	ErrPlaceNotFound       = errors.New("payout place not found")
	ErrUnsupportedPlaces   = errors.New("no payout table row for the requested number of places")
	ErrSuggesterRequired   = errors.New("automatic distribution needs a suggester")
)

// NegativePotError reports a house fee larger than the money collected.
// The pot is never clamped to zero.
type NegativePotError struct {
	TotalCollected decimal.Decimal
	HouseFee       decimal.Decimal
	Pot            decimal.Decimal
}

func (e *NegativePotError) Error() string {
	return fmt.Sprintf("%s: collected %s, house fee %s, pot would be %s",
		ErrNegativePot, e.TotalCollected.StringFixed(2), e.HouseFee.StringFixed(2), e.Pot.StringFixed(2))
}

func (e *NegativePotError) Unwrap() error {
	return ErrNegativePot
}

// MismatchError carries the exact discrepancy between the payouts and the pot
// so the caller can show it to whoever has to correct the amounts.
type MismatchError struct {
	Pot        decimal.Decimal
	Sum        decimal.Decimal
	Difference decimal.Decimal // Sum - Pot
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: payouts total %s, pot is %s, difference %s",
		ErrPayoutMismatch, e.Sum.StringFixed(2), e.Pot.StringFixed(2), e.Difference.StringFixed(2))
}

func (e *MismatchError) Unwrap() error {
	return ErrPayoutMismatch
}

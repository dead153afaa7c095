package payouts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Dosada05/standings-engine/models"
)

// ManualEntry is one place/amount pair typed in by an operator.
type ManualEntry struct {
	Place  int             `json:"place"`
	Amount decimal.Decimal `json:"amount"`
}

type ManualInput struct {
	TotalCollected    decimal.Decimal
	HouseFeePerPlayer decimal.Decimal
	PaidPlayerCount   int
	Entries           []ManualEntry
}

// BuildManual turns operator-entered amounts into a payout structure. Places
// are renumbered from 1 in their given order and percentages are derived. A
// total that misses the pot by more than Tolerance is rejected as is: the
// remainder is never rounded away or redistributed.
func BuildManual(in ManualInput) (*models.PayoutStructure, error) {
	pot, houseFee, err := ComputePot(in.TotalCollected, in.HouseFeePerPlayer, in.PaidPlayerCount)
	if err != nil {
		return nil, err
	}

	payouts := make([]models.Payout, 0, len(in.Entries))
	for _, e := range in.Entries {
		payouts = append(payouts, models.Payout{Place: e.Place, Amount: e.Amount})
	}
	payouts, err = normalize(payouts)
	if err != nil {
		return nil, err
	}
	if err := validate(pot, payouts); err != nil {
		return nil, err
	}

	return &models.PayoutStructure{
		TotalCollected: in.TotalCollected,
		HouseFee:       houseFee,
		PotAmount:      pot,
		Payouts:        withPercentages(pot, payouts),
	}, nil
}

// normalize rejects bad or repeated places and closes gaps.
func normalize(payouts []models.Payout) ([]models.Payout, error) {
	sorted := sortedCopy(payouts)
	for i, p := range sorted {
		if p.Place < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidPlace, p.Place)
		}
		if i > 0 && sorted[i-1].Place == p.Place {
			return nil, fmt.Errorf("%w: place %d", ErrDuplicatePlace, p.Place)
		}
	}
	return Renumber(sorted), nil
}

// Renumber orders payouts by place and assigns places 1..N.
func Renumber(payouts []models.Payout) []models.Payout {
	out := sortedCopy(payouts)
	for i := range out {
		out[i].Place = i + 1
	}
	return out
}

// RemovePlace drops a place and shifts every lower place up by one, so that
// removing place 2 turns place 3 into place 2.
func RemovePlace(payouts []models.Payout, place int) ([]models.Payout, error) {
	sorted := sortedCopy(payouts)
	idx := -1
	for i, p := range sorted {
		if p.Place == place {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: place %d", ErrPlaceNotFound, place)
	}
	remaining := append(sorted[:idx:idx], sorted[idx+1:]...)
	return Renumber(remaining), nil
}

// AddPlace appends a new last place paying amount.
func AddPlace(payouts []models.Payout, amount decimal.Decimal) []models.Payout {
	out := Renumber(payouts)
	return append(out, models.Payout{Place: len(out) + 1, Amount: amount})
}

// SetAmount changes the amount paid for an existing place.
func SetAmount(payouts []models.Payout, place int, amount decimal.Decimal) ([]models.Payout, error) {
	out := sortedCopy(payouts)
	for i := range out {
		if out[i].Place == place {
			out[i].Amount = amount
			return Renumber(out), nil
		}
	}
	return nil, fmt.Errorf("%w: place %d", ErrPlaceNotFound, place)
}

// EntriesOf converts stored payouts back to editable entries.
func EntriesOf(payouts []models.Payout) []ManualEntry {
	entries := make([]ManualEntry, 0, len(payouts))
	for _, p := range Renumber(payouts) {
		entries = append(entries, ManualEntry{Place: p.Place, Amount: p.Amount})
	}
	return entries
}

// Package payouts computes the prize pot of a tournament and validates how it
// is split across finishing places.
package payouts

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Dosada05/standings-engine/models"
)

// Tolerance is the largest accepted gap between the payout total and the pot.
var Tolerance = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// Suggester chooses how a pot is split over a number of places. Whatever it
// returns is validated before use.
type Suggester interface {
	Suggest(ctx context.Context, pot decimal.Decimal, places int) ([]models.Payout, error)
}

// ComputePot returns pot = totalCollected - houseFeePerPlayer*paidPlayerCount
// together with the total house fee.
func ComputePot(totalCollected, houseFeePerPlayer decimal.Decimal, paidPlayerCount int) (pot, houseFee decimal.Decimal, err error) {
	if totalCollected.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: total collected %s is negative", ErrInvalidInput, totalCollected)
	}
	if houseFeePerPlayer.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: house fee per player %s is negative", ErrInvalidInput, houseFeePerPlayer)
	}
	if paidPlayerCount < 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: paid player count %d is negative", ErrInvalidInput, paidPlayerCount)
	}

	houseFee = houseFeePerPlayer.Mul(decimal.NewFromInt(int64(paidPlayerCount)))
	pot = totalCollected.Sub(houseFee)
	if pot.IsNegative() {
		return decimal.Zero, decimal.Zero, &NegativePotError{TotalCollected: totalCollected, HouseFee: houseFee, Pot: pot}
	}
	return pot, houseFee, nil
}

// AutomaticInput describes a pot whose split is chosen by a Suggester.
type AutomaticInput struct {
	TotalCollected    decimal.Decimal
	HouseFeePerPlayer decimal.Decimal
	PaidPlayerCount   int
	PayoutPlaces      int
}

type Distributor struct {
	suggester Suggester
}

func NewDistributor(suggester Suggester) *Distributor {
	return &Distributor{suggester: suggester}
}

// Generate computes the pot, asks the suggester for a split and validates it.
func (d *Distributor) Generate(ctx context.Context, in AutomaticInput) (*models.PayoutStructure, error) {
	if d.suggester == nil {
		return nil, ErrSuggesterRequired
	}
	if in.PayoutPlaces < 1 {
		return nil, fmt.Errorf("%w: payout places %d", ErrInvalidInput, in.PayoutPlaces)
	}

	pot, houseFee, err := ComputePot(in.TotalCollected, in.HouseFeePerPlayer, in.PaidPlayerCount)
	if err != nil {
		return nil, err
	}

	suggested, err := d.suggester.Suggest(ctx, pot, in.PayoutPlaces)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest payouts for %d places: %w", in.PayoutPlaces, err)
	}

	payouts, err := ValidateAutomatic(pot, in.PayoutPlaces, suggested)
	if err != nil {
		return nil, err
	}

	return &models.PayoutStructure{
		TotalCollected: in.TotalCollected,
		HouseFee:       houseFee,
		PotAmount:      pot,
		Payouts:        payouts,
	}, nil
}

// ValidateAutomatic checks a suggested split against the pot. The suggester
// may pay fewer places than requested but never more. The returned copy is
// ordered by place and carries derived percentages.
func ValidateAutomatic(pot decimal.Decimal, payoutPlaces int, payouts []models.Payout) ([]models.Payout, error) {
	if len(payouts) > payoutPlaces {
		return nil, fmt.Errorf("%w: got %d, requested %d", ErrTooManyPlaces, len(payouts), payoutPlaces)
	}
	sorted := sortedCopy(payouts)
	if err := validate(pot, sorted); err != nil {
		return nil, err
	}
	return withPercentages(pot, sorted), nil
}

// Validate re-checks a stored structure: pot arithmetic, places and the sum.
func Validate(ps *models.PayoutStructure) error {
	if ps == nil {
		return fmt.Errorf("%w: payout structure is missing", ErrInvalidInput)
	}
	if !ps.TotalCollected.Sub(ps.HouseFee).Equal(ps.PotAmount) {
		return fmt.Errorf("%w: pot %s does not equal collected %s minus house fee %s",
			ErrInvalidInput, ps.PotAmount, ps.TotalCollected, ps.HouseFee)
	}
	if ps.PotAmount.IsNegative() {
		return &NegativePotError{TotalCollected: ps.TotalCollected, HouseFee: ps.HouseFee, Pot: ps.PotAmount}
	}
	return validate(ps.PotAmount, sortedCopy(ps.Payouts))
}

// validate expects payouts ordered by place.
func validate(pot decimal.Decimal, payouts []models.Payout) error {
	if len(payouts) == 0 {
		return ErrNoPayouts
	}
	sum := decimal.Zero
	for i, p := range payouts {
		if p.Place < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidPlace, p.Place)
		}
		if i > 0 && payouts[i-1].Place == p.Place {
			return fmt.Errorf("%w: place %d", ErrDuplicatePlace, p.Place)
		}
		if p.Place != i+1 {
			return fmt.Errorf("%w: expected place %d, got %d", ErrNonContiguousPlaces, i+1, p.Place)
		}
		if p.Amount.IsNegative() {
			return fmt.Errorf("%w: place %d has %s", ErrNegativeAmount, p.Place, p.Amount)
		}
		sum = sum.Add(p.Amount)
	}
	return checkSum(pot, sum)
}

func checkSum(pot, sum decimal.Decimal) error {
	diff := sum.Sub(pot)
	if diff.Abs().GreaterThan(Tolerance) {
		return &MismatchError{Pot: pot, Sum: sum, Difference: diff}
	}
	return nil
}

// Percentage is amount as a share of pot, in percent. A zero pot yields 0.
func Percentage(amount, pot decimal.Decimal) float64 {
	if pot.IsZero() {
		return 0
	}
	return amount.Div(pot).Mul(hundred).Round(4).InexactFloat64()
}

func withPercentages(pot decimal.Decimal, payouts []models.Payout) []models.Payout {
	out := make([]models.Payout, len(payouts))
	for i, p := range payouts {
		out[i] = models.Payout{Place: p.Place, Amount: p.Amount, Percentage: Percentage(p.Amount, pot)}
	}
	return out
}

func sortedCopy(payouts []models.Payout) []models.Payout {
	out := make([]models.Payout, len(payouts))
	copy(out, payouts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Place < out[j].Place })
	return out
}

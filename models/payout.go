package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Payout is the prize for one finishing place. Percentage is derived from
// Amount and the pot and is never authoritative.
type Payout struct {
	Place      int             `json:"place"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// PayoutStructure is stored on the tournament row as JSONB.
type PayoutStructure struct {
	TotalCollected decimal.Decimal `json:"total_collected"`
	HouseFee       decimal.Decimal `json:"house_fee"`
	PotAmount      decimal.Decimal `json:"pot_amount"`
	Payouts        []Payout        `json:"payouts"`
}

// AmountForPlace looks up the amount paid for a place. ok is false when the
// place is not paid at all, which is different from a place paid zero.
func (ps *PayoutStructure) AmountForPlace(place int) (amount decimal.Decimal, ok bool) {
	if ps == nil {
		return decimal.Zero, false
	}
	for _, p := range ps.Payouts {
		if p.Place == place {
			return p.Amount, true
		}
	}
	return decimal.Zero, false
}

// PaidPlaces returns how many places are listed, including places paid zero.
func (ps *PayoutStructure) PaidPlaces() int {
	if ps == nil {
		return 0
	}
	return len(ps.Payouts)
}

func (ps PayoutStructure) Value() (driver.Value, error) {
	b, err := json.Marshal(ps)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payout structure: %w", err)
	}
	return b, nil
}

func (ps *PayoutStructure) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		return errors.New("cannot scan NULL into PayoutStructure")
	default:
		return fmt.Errorf("unsupported type %T for PayoutStructure", src)
	}
	return json.Unmarshal(data, ps)
}

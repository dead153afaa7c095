package payouts

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dosada05/standings-engine/models"
)

const basisPointsTotal = 10000

var basisPointsDivisor = decimal.NewFromInt(basisPointsTotal)

// DefaultTable is keyed by the number of paid places. Each row lists the share
// of each place in basis points and adds up to 10000.
func DefaultTable() [][]int {
	return [][]int{
		{10000},
		{6500, 3500},
		{5000, 3000, 2000},
		{4200, 2600, 1800, 1400},
		{3600, 2400, 1700, 1300, 1000},
	}
}

// TableSuggester splits a pot with an operator supplied basis-point table.
// Amounts are floored to cents and the rounding remainder goes to 1st place.
type TableSuggester struct {
	rows map[int][]int
}

func NewTableSuggester(rows [][]int) (*TableSuggester, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: payout table is empty", ErrInvalidInput)
	}
	s := &TableSuggester{rows: make(map[int][]int, len(rows))}
	for i, row := range rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("%w: payout table row %d is empty", ErrInvalidInput, i)
		}
		total := 0
		for _, bp := range row {
			if bp < 0 {
				return nil, fmt.Errorf("%w: payout table row %d has negative share %d", ErrInvalidInput, i, bp)
			}
			total += bp
		}
		if total != basisPointsTotal {
			return nil, fmt.Errorf("%w: payout table row %d adds up to %d basis points", ErrInvalidInput, i, total)
		}
		if _, dup := s.rows[len(row)]; dup {
			return nil, fmt.Errorf("%w: more than one payout table row pays %d places", ErrInvalidInput, len(row))
		}
		s.rows[len(row)] = append([]int(nil), row...)
	}
	return s, nil
}

// ParseTable reads rows such as "5000,3000,2000;6500,3500".
func ParseTable(raw string) ([][]int, error) {
	var rows [][]int
	for _, rowStr := range strings.Split(raw, ";") {
		rowStr = strings.TrimSpace(rowStr)
		if rowStr == "" {
			continue
		}
		var row []int
		for _, cell := range strings.Split(rowStr, ",") {
			bp, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return nil, fmt.Errorf("%w: bad basis point value %q", ErrInvalidInput, cell)
			}
			row = append(row, bp)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Suggest uses the row for exactly places paid places, or the widest row that
// pays fewer.
func (s *TableSuggester) Suggest(ctx context.Context, pot decimal.Decimal, places int) ([]models.Payout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, ok := s.rowFor(places)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPlaces, places)
	}

	payouts := make([]models.Payout, len(row))
	allocated := decimal.Zero
	for i, bp := range row {
		amount := pot.Mul(decimal.NewFromInt(int64(bp))).Div(basisPointsDivisor).RoundFloor(2)
		payouts[i] = models.Payout{Place: i + 1, Amount: amount}
		allocated = allocated.Add(amount)
	}
	if remainder := pot.Sub(allocated); remainder.IsPositive() {
		payouts[0].Amount = payouts[0].Amount.Add(remainder)
	}
	return payouts, nil
}

func (s *TableSuggester) rowFor(places int) ([]int, bool) {
	if row, ok := s.rows[places]; ok {
		return row, true
	}
	sizes := make([]int, 0, len(s.rows))
	for n := range s.rows {
		if n < places {
			sizes = append(sizes, n)
		}
	}
	if len(sizes) == 0 {
		return nil, false
	}
	sort.Ints(sizes)
	return s.rows[sizes[len(sizes)-1]], true
}

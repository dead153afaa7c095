package payouts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSuggesterSplitsPot(t *testing.T) {
	s, err := NewTableSuggester(DefaultTable())
	require.NoError(t, err)

	got, err := s.Suggest(context.Background(), d("300"), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Amount.Equal(d("150")))
	assert.True(t, got[1].Amount.Equal(d("90")))
	assert.True(t, got[2].Amount.Equal(d("60")))
}

func TestTableSuggesterRemainderToFirst(t *testing.T) {
	s, err := NewTableSuggester([][]int{{3334, 3333, 3333}})
	require.NoError(t, err)

	got, err := s.Suggest(context.Background(), d("10"), 3)
	require.NoError(t, err)
	assert.True(t, got[1].Amount.Equal(d("3.33")))
	assert.True(t, got[2].Amount.Equal(d("3.33")))
	assert.True(t, got[0].Amount.Equal(d("3.34")), "3.33 floored plus the 0.01 remainder")
	assert.True(t, sumOf(got).Equal(d("10")))
}

func TestTableSuggesterFallsBackToFewerPlaces(t *testing.T) {
	s, err := NewTableSuggester(DefaultTable())
	require.NoError(t, err)

	got, err := s.Suggest(context.Background(), d("1000"), 9)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = s.Suggest(context.Background(), d("1000"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedPlaces)
}

func TestTableSuggesterHonoursContext(t *testing.T) {
	s, err := NewTableSuggester(DefaultTable())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Suggest(ctx, d("10"), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTableSuggesterValidation(t *testing.T) {
	tests := map[string][][]int{
		"empty table":     nil,
		"empty row":       {{}},
		"short row":       {{5000, 4000}},
		"negative share":  {{11000, -1000}},
		"duplicate width": {{10000}, {10000}},
	}
	for name, rows := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewTableSuggester(rows)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestParseTable(t *testing.T) {
	rows, err := ParseTable(" 10000 ; 6500,3500;")
	require.NoError(t, err)
	assert.Equal(t, [][]int{{10000}, {6500, 3500}}, rows)

	_, err = ParseTable("50x0")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

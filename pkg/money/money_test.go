package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int64
	}{
		{name: "exact", value: "100", expected: 100},
		{name: "below half", value: "100.49", expected: 100},
		{name: "half rounds up", value: "100.5", expected: 101},
		{name: "above half", value: "100.51", expected: 101},
		{name: "zero", value: "0", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Round(decimal.RequireFromString(tt.value)))
		})
	}
}

func TestApplyPercent(t *testing.T) {
	assert.Equal(t, int64(1000), ApplyPercent(50000, decimal.NewFromInt(2)))
	assert.Equal(t, int64(3), ApplyPercent(125, decimal.NewFromFloat(2.5)))
	assert.Equal(t, int64(0), ApplyPercent(50000, decimal.Zero))
}

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name      string
		principal int64
		rate      decimal.Decimal
		term      int
		expected  int64
		err       error
	}{
		{
			name:      "one million at 2% over 12 months",
			principal: 1_000_000,
			rate:      decimal.NewFromInt(2),
			term:      12,
			expected:  94_560,
		},
		{
			name:      "zero interest splits evenly",
			principal: 1_200_000,
			rate:      decimal.Zero,
			term:      12,
			expected:  100_000,
		},
		{
			name:      "single installment carries one period of interest",
			principal: 500_000,
			rate:      decimal.NewFromInt(2),
			term:      1,
			expected:  510_000,
		},
		{
			name:      "negative rate",
			principal: 1_000_000,
			rate:      decimal.NewFromInt(-1),
			term:      12,
			err:       customError.ErrInvalidRate,
		},
		{
			name:      "zero term",
			principal: 1_000_000,
			rate:      decimal.NewFromInt(2),
			term:      0,
			err:       customError.ErrInvalidTerm,
		},
		{
			name:      "non-positive principal",
			principal: 0,
			rate:      decimal.NewFromInt(2),
			term:      12,
			err:       customError.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment, err := MonthlyPayment(tt.principal, tt.rate, tt.term)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, payment)
		})
	}
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, int64(3), Min(3, 7))
	assert.Equal(t, int64(7), Max(3, 7))
}

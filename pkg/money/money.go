// Package money holds integer currency arithmetic and interest-rate helpers.
//
// Amounts are int64 values in the smallest currency unit. Rates are percentages
// carried as decimal.Decimal (2 means 2%). Every monetary result is rounded
// half-up to a whole unit.
package money

import (
	"github.com/shopspring/decimal"

	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

// divisionPrecision keeps intermediate quotients well above ten significant digits.
const divisionPrecision = 16

var hundred = decimal.NewFromInt(100)

// Round rounds d half-up to a whole currency unit.
func Round(d decimal.Decimal) int64 {
	return d.Add(decimal.NewFromFloat(0.5)).Floor().IntPart()
}

// Fraction converts a percentage into a fraction, 2 -> 0.02.
func Fraction(percent decimal.Decimal) decimal.Decimal {
	return percent.DivRound(hundred, divisionPrecision)
}

// ApplyPercent returns round(amount * percent / 100).
func ApplyPercent(amount int64, percent decimal.Decimal) int64 {
	return Round(decimal.NewFromInt(amount).Mul(Fraction(percent)))
}

// Interest returns the interest accrued on balance for one period at ratePercent.
func Interest(balance int64, ratePercent decimal.Decimal) int64 {
	return ApplyPercent(balance, ratePercent)
}

// MonthlyPayment calculates the level payment of an annuity
// Formula: P * r(1+r)^n / ((1+r)^n - 1)
func MonthlyPayment(principal int64, monthlyRatePercent decimal.Decimal, termMonths int) (int64, error) {
	if principal <= 0 {
		return 0, customError.ErrInvalidAmount
	}
	if monthlyRatePercent.IsNegative() {
		return 0, customError.ErrInvalidRate
	}
	if termMonths < 1 {
		return 0, customError.ErrInvalidTerm
	}

	p := decimal.NewFromInt(principal)
	n := decimal.NewFromInt(int64(termMonths))

	if monthlyRatePercent.IsZero() {
		return Round(p.DivRound(n, divisionPrecision)), nil
	}

	r := Fraction(monthlyRatePercent)
	growth := decimal.NewFromInt(1).Add(r).Pow(n)
	payment := p.Mul(r).Mul(growth).DivRound(growth.Sub(decimal.NewFromInt(1)), divisionPrecision)

	return Round(payment), nil
}

// Min returns the smaller of two amounts.
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two amounts.
func Max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

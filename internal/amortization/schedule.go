// Package amortization builds fixed-payment loan schedules.
//
// GenerateSchedule is a pure function of its arguments: the same principal,
// rate, term and start date always produce the same installments.
package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/fund-ledger/pkg/money"
	"github.com/segyhp/fund-ledger/pkg/utils"
)

// Installment is one period of an amortization schedule.
type Installment struct {
	Number           int
	DueDate          time.Time
	Amount           int64
	Principal        int64
	Interest         int64
	RemainingBalance int64
}

// Totals aggregates a schedule.
type Totals struct {
	MonthlyPayment int64
	TotalInterest  int64
	TotalAmount    int64
}

// GenerateSchedule computes a level-payment schedule. Installment i is due i
// calendar months after startDate. The last installment absorbs rounding
// residue so that principals sum to the loan amount and the balance ends at 0.
func GenerateSchedule(principal int64, monthlyRatePercent decimal.Decimal, termMonths int, startDate time.Time) ([]Installment, error) {
	payment, err := money.MonthlyPayment(principal, monthlyRatePercent, termMonths)
	if err != nil {
		return nil, err
	}

	schedule := make([]Installment, 0, termMonths)
	balance := principal

	for i := 1; i <= termMonths; i++ {
		interest := money.Interest(balance, monthlyRatePercent)
		principalPart := payment - interest
		if principalPart < 0 {
			principalPart = 0
		}
		if i == termMonths || principalPart > balance {
			principalPart = balance
		}
		balance -= principalPart

		schedule = append(schedule, Installment{
			Number:           i,
			DueDate:          utils.CalculateDueDate(startDate, i),
			Amount:           principalPart + interest,
			Principal:        principalPart,
			Interest:         interest,
			RemainingBalance: balance,
		})
	}

	return schedule, nil
}

// Summarize returns the payment, interest and payable totals of a schedule.
func Summarize(schedule []Installment) Totals {
	var totals Totals
	if len(schedule) == 0 {
		return totals
	}
	totals.MonthlyPayment = schedule[0].Amount
	for _, inst := range schedule {
		totals.TotalInterest += inst.Interest
		totals.TotalAmount += inst.Amount
	}
	return totals
}

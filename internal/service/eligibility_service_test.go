package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/internal/repository/mocks"
	"github.com/segyhp/fund-ledger/pkg/clock"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

func TestCheckEligibility(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(t *testing.T, f *fixture)
		eligible      bool
		reasons       []string
		maxLoanAmount int64
		creditScore   int
	}{
		{
			name:     "member without savings",
			setup:    func(t *testing.T, f *fixture) {},
			eligible: false,
			reasons: []string{
				fmt.Sprintf(ReasonInsufficientSavings, 0, 100000),
			},
			maxLoanAmount: 0,
			creditScore:   100,
		},
		{
			name: "enough savings and no loans",
			setup: func(t *testing.T, f *fixture) {
				_, err := f.savings.Deposit(context.Background(), "m1", domain.DepositRequest{Amount: 150000})
				require.NoError(t, err)
			},
			eligible:      true,
			reasons:       []string{},
			maxLoanAmount: 1500000,
			creditScore:   100,
		},
		{
			name: "max loan amount is capped by the ceiling",
			setup: func(t *testing.T, f *fixture) {
				_, err := f.savings.Deposit(context.Background(), "m1", domain.DepositRequest{Amount: 2000000})
				require.NoError(t, err)
			},
			eligible:      true,
			reasons:       []string{},
			maxLoanAmount: 10000000,
			creditScore:   100,
		},
		{
			name: "active loan blocks a new one",
			setup: func(t *testing.T, f *fixture) {
				f.activeLoan(t, "m1")
			},
			eligible:      false,
			reasons:       []string{ReasonActiveLoan},
			maxLoanAmount: 2000000,
			creditScore:   100,
		},
		{
			name: "overdue installment is reported alongside the active loan",
			setup: func(t *testing.T, f *fixture) {
				f.activeLoan(t, "m1")
				f.clock.Set(time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC))
			},
			eligible: false,
			reasons: []string{
				ReasonActiveLoan,
				fmt.Sprintf(ReasonOverdueInstallments, 1),
			},
			maxLoanAmount: 2000000,
			creditScore:   70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testRules())
			tt.setup(t, f)

			result, err := f.eligibility.CheckEligibility(context.Background(), "m1")

			require.NoError(t, err)
			assert.Equal(t, "m1", result.MemberID)
			assert.Equal(t, tt.eligible, result.IsEligible)
			assert.Equal(t, tt.reasons, result.Reasons)
			assert.Equal(t, tt.maxLoanAmount, result.MaxLoanAmount)
			assert.Equal(t, tt.creditScore, result.CreditScore)
		})
	}
}

func TestCheckEligibility_PendingLoanDoesNotBlock(t *testing.T) {
	f := newFixture(t, testRules())
	ctx := context.Background()

	_, err := f.savings.Deposit(ctx, "m1", domain.DepositRequest{Amount: 200000})
	require.NoError(t, err)
	_, err = f.loans.Submit(ctx, loanRequest("m1", 500000, 6))
	require.NoError(t, err)

	result, err := f.eligibility.CheckEligibility(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, result.IsEligible)
}

func TestCheckEligibility_StorageFailure(t *testing.T) {
	ledger := &mocks.MockLedgerStore{}
	loans := &mocks.MockLoanStore{}
	svc := NewEligibilityService(ledger, loans, testRules(), clock.Fixed(testNow), nil)

	ledger.On("GetAccount", mock.Anything, "m1").Return(&domain.SavingsAccount{ID: "m1", Balance: 500000}, nil)
	loans.On("ListLoansByMember", mock.Anything, "m1").Return(nil, errors.New("timeout"))

	_, err := svc.CheckEligibility(context.Background(), "m1")

	require.Error(t, err)
	assert.Equal(t, customError.KindInternal, customError.KindOf(err))
	loans.AssertNotCalled(t, "ListInstallmentsByMember", mock.Anything, mock.Anything)
}

func TestGetStats_AfterLatePayment(t *testing.T) {
	f := newFixture(t, testRules())
	ctx := context.Background()

	loan := f.activeLoan(t, "m1")
	f.clock.Set(time.Date(2024, 4, 25, 10, 0, 0, 0, time.UTC))
	_, err := f.payments.RecordPayment(ctx, domain.RecordPaymentRequest{
		LoanID:            loan.ID,
		InstallmentNumber: 1,
		Amount:            loan.MonthlyPayment,
		Method:            "cash",
	})
	require.NoError(t, err)

	stats, err := f.eligibility.GetStats(ctx, "m1")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalLoans)
	assert.Equal(t, 1, stats.LoansByStatus[domain.LoanStatusActive])
	assert.Equal(t, int64(1000000), stats.TotalBorrowed)
	assert.Equal(t, loan.MonthlyPayment, stats.TotalPaid)
	assert.Equal(t, loan.TotalAmount-loan.MonthlyPayment, stats.TotalOutstanding)
	assert.Equal(t, int64(10000), stats.TotalLateFees)
	assert.Equal(t, 1, stats.PaymentsMade)
	assert.Equal(t, 1, stats.LatePayments)
	assert.Zero(t, stats.OnTimePayments)
	assert.Zero(t, stats.OverdueAmount)
	assert.InDelta(t, 10.0, stats.AverageLateDays, 0.001)
	// on-time ratio 0% and 10 average late days
	assert.Equal(t, 70, stats.CreditScore)
}

func TestCreditScore(t *testing.T) {
	tests := []struct {
		name  string
		stats domain.LoanStats
		want  int
	}{
		{name: "no history", stats: domain.LoanStats{}, want: 100},
		{name: "all on time", stats: domain.LoanStats{PaymentsMade: 20, OnTimePayments: 20}, want: 100},
		{name: "ninety-four percent on time", stats: domain.LoanStats{PaymentsMade: 50, OnTimePayments: 47, AverageLateDays: 0.1}, want: 90},
		{name: "eighty-five percent on time", stats: domain.LoanStats{PaymentsMade: 20, OnTimePayments: 17, AverageLateDays: 1}, want: 85},
		{name: "overdue amount", stats: domain.LoanStats{OverdueAmount: 1}, want: 70},
		{name: "average lateness above five days", stats: domain.LoanStats{PaymentsMade: 10, OnTimePayments: 10, AverageLateDays: 6}, want: 90},
		{
			name:  "every penalty",
			stats: domain.LoanStats{PaymentsMade: 10, OnTimePayments: 1, OverdueAmount: 5000, AverageLateDays: 30},
			want:  30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.stats
			assert.Equal(t, tt.want, creditScore(&stats))
		})
	}
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/segyhp/fund-ledger/internal/config"
	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/internal/repository"
	"github.com/segyhp/fund-ledger/internal/repository/memory"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// manualClock is a clock tests can move forward.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func testRules() Rules {
	return RulesFromConfig(config.BusinessConfig{
		MinDeposit:              1000,
		WithdrawalFeePercent:    "2",
		MaxWithdrawalsPerMonth:  2,
		MinMonthlyContribution:  50000,
		MonthlyFineAmount:       5000,
		LoanInterestRate:        "2",
		MinLoanAmount:           100000,
		MaxLoanAmount:           10000000,
		MinTermMonths:           1,
		MaxTermMonths:           36,
		MinCoSigners:            2,
		MaxCoSigners:            3,
		MinSavingsForLoan:       100000,
		LoanToSavingsMultiplier: 10,
		MaxLoanCeiling:          10000000,
		DailyLateFee:            1000,
		DefaultAfterOverdue:     3,
		MaxRetries:              5,
	})
}

type fixture struct {
	store       *memory.Store
	clock       *manualClock
	savings     *SavingsService
	eligibility *EligibilityService
	loans       *LoanService
	payments    *PaymentService
}

func newFixture(t *testing.T, rules Rules) *fixture {
	return newFixtureWithCache(t, rules, nil)
}

func newFixtureWithCache(t *testing.T, rules Rules, cache repository.ScheduleCache) *fixture {
	t.Helper()

	store := memory.NewStore()
	clk := &manualClock{now: testNow}
	eligibility := NewEligibilityService(store, store, rules, clk, nil)

	return &fixture{
		store:       store,
		clock:       clk,
		savings:     NewSavingsService(store, rules, clk, nil),
		eligibility: eligibility,
		loans:       NewLoanService(store, eligibility, cache, rules, clk, nil),
		payments:    NewPaymentService(store, cache, rules, clk, nil),
	}
}

func coSigners(ids ...string) []domain.CoSignerInput {
	out := make([]domain.CoSignerInput, len(ids))
	for i, id := range ids {
		out[i] = domain.CoSignerInput{MemberID: id, Name: "Member " + id}
	}
	return out
}

func loanRequest(memberID string, amount int64, term int) domain.SubmitLoanRequest {
	return domain.SubmitLoanRequest{
		MemberID:   memberID,
		MemberName: "Borrower " + memberID,
		Amount:     amount,
		TermMonths: term,
		Purpose:    "working capital",
		CoSigners:  coSigners("c1", "c2"),
	}
}

// activeLoan funds the member's savings and returns an approved loan of
// 1,000,000 at 2% over 12 months.
func (f *fixture) activeLoan(t *testing.T, memberID string) *domain.LoanApplication {
	t.Helper()
	ctx := context.Background()

	_, err := f.savings.Deposit(ctx, memberID, domain.DepositRequest{Amount: 200000})
	require.NoError(t, err)

	loan, err := f.loans.Submit(ctx, loanRequest(memberID, 1000000, 12))
	require.NoError(t, err)

	loan, err = f.loans.Approve(ctx, loan.ID, domain.ApproveLoanRequest{
		ApproverID:   "treasurer",
		Disbursement: domain.Disbursement{Method: "transfer", Account: "001-22"},
	})
	require.NoError(t, err)
	return loan
}

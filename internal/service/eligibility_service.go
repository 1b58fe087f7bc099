package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/internal/repository"
	"github.com/segyhp/fund-ledger/pkg/clock"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
	"github.com/segyhp/fund-ledger/pkg/money"
)

// Eligibility reasons
const (
	ReasonInsufficientSavings = "savings balance %d is below the required %d"
	ReasonActiveLoan          = "already has an active loan"
	ReasonOverdueInstallments = "has %d overdue installments"
	ReasonAboveMaxLoan        = "requested amount %d exceeds the maximum of %d"
)

// EligibilityService scores members from their savings and repayment history.
// It never writes.
type EligibilityService struct {
	ledger repository.LedgerStore
	loans  repository.LoanStore
	rules  Rules
	clock  clock.Clock
	logger *zap.Logger
}

func NewEligibilityService(ledger repository.LedgerStore, loans repository.LoanStore, rules Rules, clk clock.Clock, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		ledger: ledger,
		loans:  loans,
		rules:  rules,
		clock:  clk,
		logger: logger,
	}
}

// CheckEligibility evaluates every rule and collects all failing reasons.
func (s *EligibilityService) CheckEligibility(ctx context.Context, memberID string) (*domain.Eligibility, error) {
	balance, err := s.savingsBalance(ctx, memberID)
	if err != nil {
		return nil, err
	}

	loans, installments, err := s.history(ctx, memberID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	stats := computeStats(memberID, loans, installments, now)

	reasons := []string{}
	if balance < s.rules.MinSavingsForLoan {
		reasons = append(reasons, fmt.Sprintf(ReasonInsufficientSavings, balance, s.rules.MinSavingsForLoan))
	}
	for _, l := range loans {
		if l.Status.IsOpen() {
			reasons = append(reasons, ReasonActiveLoan)
			break
		}
	}
	if overdue := countOverdue(installments, now); overdue > 0 {
		reasons = append(reasons, fmt.Sprintf(ReasonOverdueInstallments, overdue))
	}

	return &domain.Eligibility{
		MemberID:       memberID,
		IsEligible:     len(reasons) == 0,
		Reasons:        reasons,
		MaxLoanAmount:  money.Min(balance*s.rules.LoanToSavingsMultiplier, s.rules.MaxLoanCeiling),
		CreditScore:    stats.CreditScore,
		SavingsBalance: balance,
	}, nil
}

// GetStats summarizes the member's loans and repayment behavior.
func (s *EligibilityService) GetStats(ctx context.Context, memberID string) (*domain.LoanStats, error) {
	loans, installments, err := s.history(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return computeStats(memberID, loans, installments, s.clock.Now()), nil
}

func (s *EligibilityService) savingsBalance(ctx context.Context, memberID string) (int64, error) {
	account, err := s.ledger.GetAccount(ctx, memberID)
	if errors.Is(err, customError.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr(err)
	}
	return account.Balance, nil
}

func (s *EligibilityService) history(ctx context.Context, memberID string) ([]*domain.LoanApplication, []*domain.LoanPayment, error) {
	loans, err := s.loans.ListLoansByMember(ctx, memberID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	installments, err := s.loans.ListInstallmentsByMember(ctx, memberID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return loans, installments, nil
}

func countOverdue(installments []*domain.LoanPayment, now time.Time) int {
	var n int
	for _, p := range installments {
		if p.IsOverdueAt(now) {
			n++
		}
	}
	return n
}

func computeStats(memberID string, loans []*domain.LoanApplication, installments []*domain.LoanPayment, now time.Time) *domain.LoanStats {
	stats := &domain.LoanStats{
		MemberID:      memberID,
		TotalLoans:    len(loans),
		LoansByStatus: make(map[domain.LoanStatus]int),
	}

	for _, l := range loans {
		stats.LoansByStatus[l.Status]++
		if l.DisbursedAt != nil {
			stats.TotalBorrowed += l.Amount
		}
		if l.Status.AcceptsPayments() {
			stats.TotalOutstanding += l.RemainingBalance
		}
		stats.TotalLateFees += l.TotalLateFees
	}

	var lateDays int
	for _, p := range installments {
		stats.TotalPaid += p.PaidAmount
		if p.PaidAt != nil {
			stats.PaymentsMade++
			lateDays += p.LateDays
			if p.LateDays > 0 {
				stats.LatePayments++
			} else {
				stats.OnTimePayments++
			}
		}
		if p.IsOverdueAt(now) {
			stats.OverdueAmount += p.Outstanding()
		}
	}
	if stats.PaymentsMade > 0 {
		stats.AverageLateDays = float64(lateDays) / float64(stats.PaymentsMade)
	}

	stats.CreditScore = creditScore(stats)
	return stats
}

// creditScore starts at 100 and subtracts the on-time, overdue and lateness
// penalties, clamped to [0, 100].
func creditScore(stats *domain.LoanStats) int {
	score := 100

	if stats.PaymentsMade > 0 {
		onTimeRatio := float64(stats.OnTimePayments) / float64(stats.PaymentsMade) * 100
		switch {
		case onTimeRatio < 80:
			score -= 20
		case onTimeRatio < 90:
			score -= 10
		case onTimeRatio < 95:
			score -= 5
		}
	}

	if stats.OverdueAmount > 0 {
		score -= 30
	}

	switch {
	case stats.AverageLateDays > 10:
		score -= 20
	case stats.AverageLateDays > 5:
		score -= 10
	case stats.AverageLateDays > 0:
		score -= 5
	}

	return max(0, min(100, score))
}

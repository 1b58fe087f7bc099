package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/internal/repository"
	"github.com/segyhp/fund-ledger/pkg/clock"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
	"github.com/segyhp/fund-ledger/pkg/money"
	"github.com/segyhp/fund-ledger/pkg/utils"
)

// PaymentService applies installment payments and serves schedules.
type PaymentService struct {
	loans  repository.LoanStore
	cache  repository.ScheduleCache
	rules  Rules
	clock  clock.Clock
	logger *zap.Logger
}

func NewPaymentService(loans repository.LoanStore, cache repository.ScheduleCache, rules Rules, clk clock.Clock, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		loans:  loans,
		cache:  cache,
		rules:  rules,
		clock:  clk,
		logger: logger,
	}
}

// RecordPayment applies a payment to one installment and updates the loan
// aggregates in the same write. Late fees are tracked on the loan but never
// reduce RemainingBalance.
func (s *PaymentService) RecordPayment(ctx context.Context, req domain.RecordPaymentRequest) (*domain.LoanPayment, error) {
	if req.Amount <= 0 {
		return nil, customError.WrapInvalidAmount(req.Amount, "must be positive")
	}

	var (
		installment *domain.LoanPayment
		loan        *domain.LoanApplication
	)
	err := withRetry(ctx, s.logger, "record_payment", s.rules.attempts(), func() error {
		var err error
		loan, err = loadLoan(ctx, s.loans, req.LoanID)
		if err != nil {
			return err
		}
		installments, err := s.loans.GetInstallments(ctx, loan.ID)
		if err != nil {
			return storeErr(err)
		}
		installment = nil
		for _, p := range installments {
			if p.Number == req.InstallmentNumber {
				installment = p
				break
			}
		}
		// A settled installment reports AlreadyPaid whatever the loan status.
		if installment != nil && installment.Status.IsSettled() {
			return customError.WrapAlreadyPaid(loan.ID, req.InstallmentNumber)
		}
		if !loan.Status.AcceptsPayments() {
			return customError.WrapLoanNotActive(loan.ID, string(loan.Status))
		}
		if installment == nil {
			return customError.WrapInstallmentNotFound(loan.ID, req.InstallmentNumber)
		}

		now := s.clock.Now()
		lateDays := utils.DaysLate(installment.DueDate, now)
		lateFee := int64(lateDays) * s.rules.DailyLateFee
		feeDelta := money.Max(0, lateFee-installment.LateFee)

		installment.PaidAmount += req.Amount
		installment.PaidAt = &now
		installment.LateDays = lateDays
		installment.LateFee += feeDelta
		installment.Method = req.Method
		installment.ReceiptRef = req.ReceiptRef
		installment.Notes = req.Notes
		installment.Status = domain.PaymentStatusPartiallyPaid
		if installment.PaidAmount >= installment.Amount {
			installment.Status = domain.PaymentStatusPaid
			loan.PaidPayments++
		}

		loan.RemainingBalance = money.Max(0, loan.RemainingBalance-req.Amount)
		loan.TotalLateFees += feeDelta
		loan.LastPaymentDate = &now
		loan.NextPaymentDate = nextDueDate(installments)
		loan.OverduePayments, loan.TotalOverdueDays = delinquency(installments, now)
		loan.UpdatedAt = now

		next := domain.LoanStatusActive
		switch {
		case loan.NextPaymentDate == nil:
			next = domain.LoanStatusPaid
		case loan.OverduePayments > 0:
			next = domain.LoanStatusOverdue
		}
		if next != loan.Status && !loan.Status.CanTransitionTo(next) {
			return customError.WrapInvalidTransition(loan.ID, string(loan.Status), string(next))
		}
		loan.Status = next

		return storeErr(s.loans.UpdateLoan(ctx, loan, installment))
	})
	if err != nil {
		return nil, err
	}

	invalidateSchedule(ctx, s.cache, s.logger, req.LoanID)
	s.logger.Info("payment recorded",
		zap.String("loan_id", req.LoanID),
		zap.Int("installment", req.InstallmentNumber),
		zap.Int64("amount", req.Amount),
		zap.Int("late_days", installment.LateDays),
		zap.String("loan_status", string(loan.Status)),
	)
	return installment, nil
}

// GetSchedule returns the loan's installments with running totals, served
// from the cache when one is configured.
func (s *PaymentService) GetSchedule(ctx context.Context, loanID string) (*domain.PaymentSchedule, error) {
	// The loan is read before the installments so a schedule is never tagged
	// with a version newer than its contents.
	loan, err := loadLoan(ctx, s.loans, loanID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, loanID)
		switch {
		case err != nil:
			s.logger.Warn("schedule cache read failed", zap.String("loan_id", loanID), zap.Error(err))
		case found && cached.LoanVersion == loan.Version:
			return cached, nil
		case found:
			s.logger.Debug("stale cached schedule",
				zap.String("loan_id", loanID),
				zap.Int64("cached_version", cached.LoanVersion),
				zap.Int64("loan_version", loan.Version),
			)
		}
	}

	installments, err := s.loans.GetInstallments(ctx, loanID)
	if err != nil {
		return nil, storeErr(err)
	}

	schedule := &domain.PaymentSchedule{
		LoanID:           loan.ID,
		LoanVersion:      loan.Version,
		Status:           loan.Status,
		Installments:     installments,
		RemainingBalance: loan.RemainingBalance,
		TotalLateFees:    loan.TotalLateFees,
	}
	if schedule.Installments == nil {
		schedule.Installments = []*domain.LoanPayment{}
	}
	for _, p := range installments {
		schedule.TotalScheduled += p.Amount
		schedule.TotalPaid += p.PaidAmount
	}
	schedule.NextDue = nextDue(installments)

	if s.cache != nil {
		if err := s.cache.Set(ctx, schedule); err != nil {
			s.logger.Warn("schedule cache write failed", zap.String("loan_id", loanID), zap.Error(err))
		}
	}
	return schedule, nil
}

// GetInstallment returns one installment of a loan.
func (s *PaymentService) GetInstallment(ctx context.Context, loanID string, number int) (*domain.LoanPayment, error) {
	installment, err := s.loans.GetInstallment(ctx, loanID, number)
	if errors.Is(err, customError.ErrNotFound) {
		return nil, customError.WrapInstallmentNotFound(loanID, number)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return installment, nil
}

// nextDue is the first installment still owed.
func nextDue(installments []*domain.LoanPayment) *domain.LoanPayment {
	for _, p := range installments {
		if !p.Status.IsSettled() {
			return p
		}
	}
	return nil
}

func nextDueDate(installments []*domain.LoanPayment) *time.Time {
	p := nextDue(installments)
	if p == nil {
		return nil
	}
	due := p.DueDate
	return &due
}

// invalidateSchedule drops the cached schedule after a committed loan write. A
// failure is logged since the write itself already succeeded.
func invalidateSchedule(ctx context.Context, cache repository.ScheduleCache, logger *zap.Logger, loanID string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, loanID); err != nil {
		logger.Warn("schedule cache invalidation failed",
			zap.String("loan_id", loanID),
			zap.Error(customError.WrapCacheError(err)),
		)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/amortization"
	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/internal/repository"
	"github.com/segyhp/fund-ledger/pkg/clock"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
	"github.com/segyhp/fund-ledger/pkg/utils"
)

// LoanService drives a loan from submission to its terminal state. It is the
// only writer of loan status.
type LoanService struct {
	loans       repository.LoanStore
	eligibility *EligibilityService
	cache       repository.ScheduleCache
	rules       Rules
	clock       clock.Clock
	logger      *zap.Logger
}

func NewLoanService(
	loans repository.LoanStore,
	eligibility *EligibilityService,
	cache repository.ScheduleCache,
	rules Rules,
	clk clock.Clock,
	logger *zap.Logger,
) *LoanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanService{
		loans:       loans,
		eligibility: eligibility,
		cache:       cache,
		rules:       rules,
		clock:       clk,
		logger:      logger,
	}
}

// Submit validates the application, checks eligibility and stores it as pending.
func (s *LoanService) Submit(ctx context.Context, req domain.SubmitLoanRequest) (*domain.LoanApplication, error) {
	if reasons := s.validateSubmission(req); len(reasons) > 0 {
		return nil, customError.WrapValidation(reasons)
	}

	eligibility, err := s.eligibility.CheckEligibility(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	reasons := append([]string{}, eligibility.Reasons...)
	if req.Amount > eligibility.MaxLoanAmount {
		reasons = append(reasons, fmt.Sprintf(ReasonAboveMaxLoan, req.Amount, eligibility.MaxLoanAmount))
	}
	if len(reasons) > 0 {
		s.logger.Info("loan application not eligible",
			zap.String("member_id", req.MemberID),
			zap.Strings("reasons", reasons),
		)
		return nil, customError.WrapNotEligible(req.MemberID, reasons)
	}

	now := s.clock.Now()
	schedule, err := amortization.GenerateSchedule(req.Amount, s.rules.LoanInterestRate, req.TermMonths, now)
	if err != nil {
		return nil, customError.WrapInvalidAmount(req.Amount, err.Error())
	}
	totals := amortization.Summarize(schedule)

	coSigners := make(domain.CoSigners, len(req.CoSigners))
	for i, cs := range req.CoSigners {
		coSigners[i] = domain.CoSigner{
			MemberID: cs.MemberID,
			Name:     cs.Name,
			Phone:    cs.Phone,
			Email:    cs.Email,
			Status:   domain.CoSignerStatusPending,
		}
	}

	loan := &domain.LoanApplication{
		ID:             uuid.New().String(),
		MemberID:       req.MemberID,
		MemberName:     req.MemberName,
		Amount:         req.Amount,
		TermMonths:     req.TermMonths,
		Purpose:        req.Purpose,
		InterestRate:   s.rules.LoanInterestRate,
		MonthlyPayment: totals.MonthlyPayment,
		TotalInterest:  totals.TotalInterest,
		TotalAmount:    totals.TotalAmount,
		CoSigners:      coSigners,
		Status:         domain.LoanStatusPending,
		TotalPayments:  req.TermMonths,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.loans.CreateLoan(ctx, loan); err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info("loan submitted",
		zap.String("loan_id", loan.ID),
		zap.String("member_id", loan.MemberID),
		zap.Int64("amount", loan.Amount),
		zap.Int("term_months", loan.TermMonths),
	)
	return loan, nil
}

func (s *LoanService) validateSubmission(req domain.SubmitLoanRequest) []string {
	var reasons []string

	if req.Amount < s.rules.MinLoanAmount || req.Amount > s.rules.MaxLoanAmount {
		reasons = append(reasons, fmt.Sprintf("amount must be between %d and %d", s.rules.MinLoanAmount, s.rules.MaxLoanAmount))
	}
	if req.TermMonths < s.rules.MinTermMonths || req.TermMonths > s.rules.MaxTermMonths {
		reasons = append(reasons, fmt.Sprintf("term must be between %d and %d months", s.rules.MinTermMonths, s.rules.MaxTermMonths))
	}
	if n := len(req.CoSigners); n < s.rules.MinCoSigners || n > s.rules.MaxCoSigners {
		reasons = append(reasons, fmt.Sprintf("between %d and %d co-signers are required", s.rules.MinCoSigners, s.rules.MaxCoSigners))
	}

	seen := make(map[string]bool, len(req.CoSigners))
	for _, cs := range req.CoSigners {
		if cs.MemberID == req.MemberID {
			reasons = append(reasons, "the borrower cannot co-sign their own loan")
		}
		if seen[cs.MemberID] {
			reasons = append(reasons, fmt.Sprintf("co-signer %s is listed more than once", cs.MemberID))
		}
		seen[cs.MemberID] = true
	}

	return reasons
}

// Approve activates a pending loan and persists its schedule, anchored at the
// approval time. The schedule is never regenerated afterwards.
func (s *LoanService) Approve(ctx context.Context, loanID string, req domain.ApproveLoanRequest) (*domain.LoanApplication, error) {
	var loan *domain.LoanApplication
	err := withRetry(ctx, s.logger, "approve_loan", s.rules.attempts(), func() error {
		var err error
		loan, err = s.loadLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusPending {
			return customError.WrapLoanNotPending(loanID, string(loan.Status))
		}
		if s.rules.RequireCoSignerAcceptance && !loan.CoSigners.AllAccepted() {
			return customError.WrapCoSignersPending(loanID)
		}

		now := s.clock.Now()
		schedule, err := amortization.GenerateSchedule(loan.Amount, loan.InterestRate, loan.TermMonths, now)
		if err != nil {
			return customError.WrapInvalidAmount(loan.Amount, err.Error())
		}
		totals := amortization.Summarize(schedule)

		installments := make([]*domain.LoanPayment, len(schedule))
		for i, inst := range schedule {
			installments[i] = &domain.LoanPayment{
				ID:               uuid.New().String(),
				LoanID:           loan.ID,
				MemberID:         loan.MemberID,
				Number:           inst.Number,
				DueDate:          inst.DueDate,
				Amount:           inst.Amount,
				Principal:        inst.Principal,
				Interest:         inst.Interest,
				RemainingBalance: inst.RemainingBalance,
				Status:           domain.PaymentStatusPending,
				CreatedAt:        now,
			}
		}

		loan.Status = domain.LoanStatusActive
		loan.ApprovedBy = req.ApproverID
		loan.ApprovedAt = &now
		loan.Disbursement = req.Disbursement
		loan.DisbursedAt = &now
		loan.MonthlyPayment = totals.MonthlyPayment
		loan.TotalInterest = totals.TotalInterest
		loan.TotalAmount = totals.TotalAmount
		loan.TotalPayments = len(installments)
		loan.RemainingBalance = totals.TotalAmount
		firstDue := installments[0].DueDate
		loan.NextPaymentDate = &firstDue
		loan.UpdatedAt = now

		return storeErr(s.loans.UpdateLoan(ctx, loan, installments...))
	})
	if err != nil {
		return nil, err
	}

	invalidateSchedule(ctx, s.cache, s.logger, loanID)
	s.logger.Info("loan approved",
		zap.String("loan_id", loanID),
		zap.String("approver_id", req.ApproverID),
		zap.Int("installments", loan.TotalPayments),
	)
	return loan, nil
}

// Reject closes a pending loan.
func (s *LoanService) Reject(ctx context.Context, loanID string, req domain.RejectLoanRequest) (*domain.LoanApplication, error) {
	loan, err := s.mutate(ctx, "reject_loan", loanID, func(loan *domain.LoanApplication, now time.Time) error {
		if loan.Status != domain.LoanStatusPending {
			return customError.WrapLoanNotPending(loanID, string(loan.Status))
		}
		loan.Status = domain.LoanStatusRejected
		loan.ApprovedBy = req.ApproverID
		loan.RejectionReason = req.Reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan rejected", zap.String("loan_id", loanID), zap.String("approver_id", req.ApproverID))
	return loan, nil
}

// Cancel withdraws a pending application or closes an active loan. The reason
// is kept in RejectionReason.
func (s *LoanService) Cancel(ctx context.Context, loanID string, req domain.CancelLoanRequest) (*domain.LoanApplication, error) {
	loan, err := s.mutate(ctx, "cancel_loan", loanID, func(loan *domain.LoanApplication, now time.Time) error {
		if !loan.Status.CanTransitionTo(domain.LoanStatusCancelled) {
			return customError.WrapInvalidTransition(loanID, string(loan.Status), string(domain.LoanStatusCancelled))
		}
		loan.Status = domain.LoanStatusCancelled
		loan.RejectionReason = req.Reason
		loan.NextPaymentDate = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan cancelled", zap.String("loan_id", loanID))
	return loan, nil
}

// RespondCoSigner records a co-signer's answer on a pending loan.
func (s *LoanService) RespondCoSigner(ctx context.Context, loanID, memberID string, accept bool) (*domain.LoanApplication, error) {
	loan, err := s.mutate(ctx, "cosigner_response", loanID, func(loan *domain.LoanApplication, now time.Time) error {
		if loan.Status != domain.LoanStatusPending {
			return customError.WrapLoanNotPending(loanID, string(loan.Status))
		}
		i, ok := loan.CoSigners.Find(memberID)
		if !ok {
			return customError.WrapCoSignerNotFound(loanID, memberID)
		}

		loan.CoSigners[i].Status = domain.CoSignerStatusRejected
		if accept {
			loan.CoSigners[i].Status = domain.CoSignerStatusAccepted
		}
		loan.CoSigners[i].RespondedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("co-signer responded",
		zap.String("loan_id", loanID),
		zap.String("member_id", memberID),
		zap.Bool("accepted", accept),
	)
	return loan, nil
}

// RefreshDelinquency flags past-due installments as overdue and moves the loan
// between active, overdue and defaulted. Loans that no longer accept payments
// are returned unchanged.
func (s *LoanService) RefreshDelinquency(ctx context.Context, loanID string) (*domain.LoanApplication, error) {
	var (
		loan    *domain.LoanApplication
		changed bool
	)
	err := withRetry(ctx, s.logger, "refresh_delinquency", s.rules.attempts(), func() error {
		var err error
		changed = false
		loan, err = s.loadLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if !loan.Status.AcceptsPayments() {
			return nil
		}

		installments, err := s.loans.GetInstallments(ctx, loanID)
		if err != nil {
			return storeErr(err)
		}

		now := s.clock.Now()
		var flagged []*domain.LoanPayment
		for _, p := range installments {
			if !p.Status.IsSettled() && p.Status != domain.PaymentStatusOverdue && utils.IsDateOverdue(p.DueDate, now) {
				p.Status = domain.PaymentStatusOverdue
				flagged = append(flagged, p)
			}
		}

		count, days := delinquency(installments, now)
		next := domain.LoanStatusActive
		switch {
		case count >= s.rules.DefaultAfterOverdue:
			next = domain.LoanStatusDefaulted
		case count > 0:
			next = domain.LoanStatusOverdue
		}

		if len(flagged) == 0 && next == loan.Status && count == loan.OverduePayments && days == loan.TotalOverdueDays {
			return nil
		}
		if next != loan.Status && !loan.Status.CanTransitionTo(next) {
			return customError.WrapInvalidTransition(loanID, string(loan.Status), string(next))
		}

		loan.Status = next
		loan.OverduePayments = count
		loan.TotalOverdueDays = days
		loan.UpdatedAt = now
		if next == domain.LoanStatusDefaulted {
			loan.NextPaymentDate = nil
		}

		changed = true
		return storeErr(s.loans.UpdateLoan(ctx, loan, flagged...))
	})
	if err != nil {
		return nil, err
	}

	if changed {
		invalidateSchedule(ctx, s.cache, s.logger, loanID)
		s.logger.Info("loan delinquency refreshed",
			zap.String("loan_id", loanID),
			zap.String("status", string(loan.Status)),
			zap.Int("overdue_payments", loan.OverduePayments),
		)
	}
	return loan, nil
}

func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*domain.LoanApplication, error) {
	return s.loadLoan(ctx, loanID)
}

func (s *LoanService) ListMemberLoans(ctx context.Context, memberID string) ([]*domain.LoanApplication, error) {
	loans, err := s.loans.ListLoansByMember(ctx, memberID)
	if err != nil {
		return nil, storeErr(err)
	}
	return loans, nil
}

// ListOpenLoans returns the loans the delinquency sweep has to visit.
func (s *LoanService) ListOpenLoans(ctx context.Context) ([]*domain.LoanApplication, error) {
	loans, err := s.loans.ListLoansByStatus(ctx, domain.LoanStatusActive, domain.LoanStatusOverdue)
	if err != nil {
		return nil, storeErr(err)
	}
	return loans, nil
}

// mutate runs a loan-only change as a retried read-modify-write unit.
func (s *LoanService) mutate(ctx context.Context, op, loanID string, apply func(*domain.LoanApplication, time.Time) error) (*domain.LoanApplication, error) {
	var loan *domain.LoanApplication
	err := withRetry(ctx, s.logger, op, s.rules.attempts(), func() error {
		var err error
		loan, err = s.loadLoan(ctx, loanID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if err := apply(loan, now); err != nil {
			return err
		}
		loan.UpdatedAt = now
		return storeErr(s.loans.UpdateLoan(ctx, loan))
	})
	if err != nil {
		return nil, err
	}

	invalidateSchedule(ctx, s.cache, s.logger, loanID)
	return loan, nil
}

func (s *LoanService) loadLoan(ctx context.Context, loanID string) (*domain.LoanApplication, error) {
	return loadLoan(ctx, s.loans, loanID)
}

func loadLoan(ctx context.Context, store repository.LoanStore, loanID string) (*domain.LoanApplication, error) {
	loan, err := store.GetLoan(ctx, loanID)
	if errors.Is(err, customError.ErrNotFound) {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return loan, nil
}

// delinquency counts overdue installments and their accumulated late days at now.
func delinquency(installments []*domain.LoanPayment, now time.Time) (count, days int) {
	for _, p := range installments {
		if p.IsOverdueAt(now) {
			count++
			days += utils.DaysLate(p.DueDate, now)
		}
	}
	return count, days
}

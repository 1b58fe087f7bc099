package repository

import (
	"context"

	"github.com/segyhp/fund-ledger/internal/domain"
)

// Stores signal missing records with errors.ErrNotFound and lost optimistic
// races with errors.ErrVersionConflict (both from pkg/errors). Writes that take
// an aggregate with a Version only succeed when the stored version still equals
// it; on success the stored version and the in-memory Version are incremented.

// LedgerStore persists savings accounts and their postings.
type LedgerStore interface {
	// GetAccount retrieves a savings account by id
	GetAccount(ctx context.Context, accountID string) (*domain.SavingsAccount, error)

	// ListAccounts lists accounts in the given status, ordered by id
	ListAccounts(ctx context.Context, status domain.AccountStatus) ([]*domain.SavingsAccount, error)

	// CommitPosting writes the account and appends the posting in one atomic unit.
	// An account with Version 0 is inserted; posting may be nil for counter-only updates.
	CommitPosting(ctx context.Context, account *domain.SavingsAccount, posting *domain.SavingsTransaction) error

	// ListTransactions returns the newest postings of an account first
	ListTransactions(ctx context.Context, accountID string, limit int) ([]*domain.SavingsTransaction, error)
}

// LoanStore persists loan applications and their installments.
type LoanStore interface {
	// CreateLoan inserts a new loan application
	CreateLoan(ctx context.Context, loan *domain.LoanApplication) error

	// GetLoan retrieves a loan by id
	GetLoan(ctx context.Context, loanID string) (*domain.LoanApplication, error)

	// ListLoansByMember lists a member's loans, newest first
	ListLoansByMember(ctx context.Context, memberID string) ([]*domain.LoanApplication, error)

	// ListLoansByStatus lists loans in any of the given statuses
	ListLoansByStatus(ctx context.Context, statuses ...domain.LoanStatus) ([]*domain.LoanApplication, error)

	// UpdateLoan writes the loan and, in the same atomic unit, upserts the given
	// installments. Used for approval (which inserts the whole schedule), payments
	// and delinquency updates.
	UpdateLoan(ctx context.Context, loan *domain.LoanApplication, installments ...*domain.LoanPayment) error

	// GetInstallments retrieves the schedule of a loan ordered by number
	GetInstallments(ctx context.Context, loanID string) ([]*domain.LoanPayment, error)

	// GetInstallment retrieves one installment of a loan
	GetInstallment(ctx context.Context, loanID string, number int) (*domain.LoanPayment, error)

	// ListInstallmentsByMember lists every installment of a member's loans
	ListInstallmentsByMember(ctx context.Context, memberID string) ([]*domain.LoanPayment, error)
}

// ScheduleCache caches payment schedule read models.
type ScheduleCache interface {
	Get(ctx context.Context, loanID string) (*domain.PaymentSchedule, bool, error)
	Set(ctx context.Context, schedule *domain.PaymentSchedule) error
	Invalidate(ctx context.Context, loanID string) error
}

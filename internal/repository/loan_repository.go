package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/fund-ledger/internal/domain"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanStore {
	return &loanRepository{db: db}
}

const loanColumns = `id, member_id, member_name, amount, term_months, purpose, interest_rate, monthly_payment,
	total_interest, total_amount, co_signers, status, approved_by, approved_at, rejection_reason,
	disbursement_method AS "disbursement.method", disbursement_account AS "disbursement.account", disbursed_at,
	paid_payments, total_payments, remaining_balance, last_payment_date, next_payment_date,
	overdue_payments, total_overdue_days, total_late_fees, version, created_at, updated_at`

func (r *loanRepository) CreateLoan(ctx context.Context, loan *domain.LoanApplication) error {
	query := `
		INSERT INTO loans (id, member_id, member_name, amount, term_months, purpose, interest_rate, monthly_payment,
			total_interest, total_amount, co_signers, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.MemberID,
		loan.MemberName,
		loan.Amount,
		loan.TermMonths,
		loan.Purpose,
		loan.InterestRate,
		loan.MonthlyPayment,
		loan.TotalInterest,
		loan.TotalAmount,
		loan.CoSigners,
		loan.Status,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	loan.Version = 1
	return nil
}

func (r *loanRepository) GetLoan(ctx context.Context, loanID string) (*domain.LoanApplication, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.LoanApplication
	err := r.db.GetContext(ctx, &loan, query, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListLoansByMember(ctx context.Context, memberID string) ([]*domain.LoanApplication, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE member_id = $1 ORDER BY created_at DESC`

	var loans []*domain.LoanApplication
	if err := r.db.SelectContext(ctx, &loans, query, memberID); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListLoansByStatus(ctx context.Context, statuses ...domain.LoanStatus) ([]*domain.LoanApplication, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = ANY($1) ORDER BY created_at`

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var loans []*domain.LoanApplication
	if err := r.db.SelectContext(ctx, &loans, query, pq.Array(values)); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) UpdateLoan(ctx context.Context, loan *domain.LoanApplication, installments ...*domain.LoanPayment) error {
	query := `
		UPDATE loans
		SET co_signers = $3, status = $4, approved_by = $5, approved_at = $6, rejection_reason = $7,
			disbursement_method = $8, disbursement_account = $9, disbursed_at = $10, paid_payments = $11,
			total_payments = $12, remaining_balance = $13, last_payment_date = $14, next_payment_date = $15,
			overdue_payments = $16, total_overdue_days = $17, total_late_fees = $18, updated_at = $19,
			version = version + 1
		WHERE id = $1 AND version = $2
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query,
		loan.ID,
		loan.Version,
		loan.CoSigners,
		loan.Status,
		loan.ApprovedBy,
		loan.ApprovedAt,
		loan.RejectionReason,
		loan.Disbursement.Method,
		loan.Disbursement.Account,
		loan.DisbursedAt,
		loan.PaidPayments,
		loan.TotalPayments,
		loan.RemainingBalance,
		loan.LastPaymentDate,
		loan.NextPaymentDate,
		loan.OverduePayments,
		loan.TotalOverdueDays,
		loan.TotalLateFees,
		loan.UpdatedAt,
	)
	if err = checkAffected(res, err); err != nil {
		return err
	}

	if err = upsertInstallments(ctx, tx, installments); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	loan.Version++
	return nil
}

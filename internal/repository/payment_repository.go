package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/fund-ledger/internal/domain"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

const installmentColumns = `id, loan_id, member_id, number, due_date, amount, principal, interest, remaining_balance,
	status, paid_at, paid_amount, late_days, late_fee, method, receipt_ref, notes, created_at`

// upsertInstallments inserts new installments and updates the payment fields of
// existing ones. The amortization fields are never rewritten.
func upsertInstallments(ctx context.Context, tx *sqlx.Tx, installments []*domain.LoanPayment) error {
	query := `
		INSERT INTO loan_payments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (loan_id, number) DO UPDATE
		SET status = EXCLUDED.status, paid_at = EXCLUDED.paid_at, paid_amount = EXCLUDED.paid_amount,
			late_days = EXCLUDED.late_days, late_fee = EXCLUDED.late_fee, method = EXCLUDED.method,
			receipt_ref = EXCLUDED.receipt_ref, notes = EXCLUDED.notes
	`

	for _, p := range installments {
		_, err := tx.ExecContext(ctx, query,
			p.ID,
			p.LoanID,
			p.MemberID,
			p.Number,
			p.DueDate,
			p.Amount,
			p.Principal,
			p.Interest,
			p.RemainingBalance,
			p.Status,
			p.PaidAt,
			p.PaidAmount,
			p.LateDays,
			p.LateFee,
			p.Method,
			p.ReceiptRef,
			p.Notes,
			p.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *loanRepository) GetInstallments(ctx context.Context, loanID string) ([]*domain.LoanPayment, error) {
	query := `SELECT ` + installmentColumns + ` FROM loan_payments WHERE loan_id = $1 ORDER BY number`

	var installments []*domain.LoanPayment
	if err := r.db.SelectContext(ctx, &installments, query, loanID); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *loanRepository) GetInstallment(ctx context.Context, loanID string, number int) (*domain.LoanPayment, error) {
	query := `SELECT ` + installmentColumns + ` FROM loan_payments WHERE loan_id = $1 AND number = $2`

	var installment domain.LoanPayment
	err := r.db.GetContext(ctx, &installment, query, loanID, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &installment, nil
}

func (r *loanRepository) ListInstallmentsByMember(ctx context.Context, memberID string) ([]*domain.LoanPayment, error) {
	query := `SELECT ` + installmentColumns + ` FROM loan_payments WHERE member_id = $1 ORDER BY loan_id, number`

	var installments []*domain.LoanPayment
	if err := r.db.SelectContext(ctx, &installments, query, memberID); err != nil {
		return nil, err
	}

	return installments, nil
}

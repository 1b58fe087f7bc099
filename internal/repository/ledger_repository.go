package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/fund-ledger/internal/domain"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

type ledgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerStore {
	return &ledgerRepository{db: db}
}

const accountColumns = `id, member_id, balance, total_deposits, total_withdrawals, monthly_contribution,
	min_monthly_contribution, consecutive_months_met, withdrawals_this_month, max_withdrawals_per_month,
	total_fines, fines_pending, status, version, created_at, updated_at`

func (r *ledgerRepository) GetAccount(ctx context.Context, accountID string) (*domain.SavingsAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM savings_accounts WHERE id = $1`

	var account domain.SavingsAccount
	err := r.db.GetContext(ctx, &account, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *ledgerRepository) ListAccounts(ctx context.Context, status domain.AccountStatus) ([]*domain.SavingsAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM savings_accounts WHERE status = $1 ORDER BY id`

	var accounts []*domain.SavingsAccount
	if err := r.db.SelectContext(ctx, &accounts, query, status); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *ledgerRepository) CommitPosting(ctx context.Context, account *domain.SavingsAccount, posting *domain.SavingsTransaction) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if account.Version == 0 {
		err = insertAccount(ctx, tx, account)
	} else {
		err = updateAccount(ctx, tx, account)
	}
	if err != nil {
		return err
	}

	if posting != nil {
		query := `
			INSERT INTO savings_transactions (id, account_id, type, amount, balance, concept, fee, approved_by, receipt_ref, created_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err = tx.ExecContext(ctx, query,
			posting.ID,
			posting.AccountID,
			posting.Type,
			posting.Amount,
			posting.Balance,
			posting.Concept,
			posting.Metadata.Fee,
			posting.Metadata.ApprovedBy,
			posting.Metadata.ReceiptRef,
			posting.CreatedAt,
			posting.CreatedBy,
		)
		if err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	account.Version++
	return nil
}

func insertAccount(ctx context.Context, tx *sqlx.Tx, a *domain.SavingsAccount) error {
	query := `
		INSERT INTO savings_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`

	res, err := tx.ExecContext(ctx, query,
		a.ID, a.MemberID, a.Balance, a.TotalDeposits, a.TotalWithdrawals, a.MonthlyContribution,
		a.MinMonthlyContribution, a.ConsecutiveMonthsMet, a.WithdrawalsThisMonth, a.MaxWithdrawalsPerMonth,
		a.TotalFines, a.FinesPending, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	return checkAffected(res, err)
}

func updateAccount(ctx context.Context, tx *sqlx.Tx, a *domain.SavingsAccount) error {
	query := `
		UPDATE savings_accounts
		SET balance = $3, total_deposits = $4, total_withdrawals = $5, monthly_contribution = $6,
			min_monthly_contribution = $7, consecutive_months_met = $8, withdrawals_this_month = $9,
			max_withdrawals_per_month = $10, total_fines = $11, fines_pending = $12, status = $13,
			updated_at = $14, version = version + 1
		WHERE id = $1 AND version = $2
	`

	res, err := tx.ExecContext(ctx, query,
		a.ID, a.Version, a.Balance, a.TotalDeposits, a.TotalWithdrawals, a.MonthlyContribution,
		a.MinMonthlyContribution, a.ConsecutiveMonthsMet, a.WithdrawalsThisMonth,
		a.MaxWithdrawalsPerMonth, a.TotalFines, a.FinesPending, a.Status, a.UpdatedAt,
	)
	return checkAffected(res, err)
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, accountID string, limit int) ([]*domain.SavingsTransaction, error) {
	query := `
		SELECT id, account_id, type, amount, balance, concept, fee AS "metadata.fee",
			approved_by AS "metadata.approved_by", receipt_ref AS "metadata.receipt_ref", created_at, created_by
		FROM savings_transactions
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`

	var transactions []*domain.SavingsTransaction
	if err := r.db.SelectContext(ctx, &transactions, query, accountID, limit); err != nil {
		return nil, err
	}

	return transactions, nil
}

// checkAffected turns a conditional write that matched nothing into a version conflict.
func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return customError.ErrVersionConflict
	}
	return nil
}

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/fund-ledger/internal/domain"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

// openTestDB connects to TEST_DATABASE_URL, applies scripts/init.sql and
// empties every table. The test is skipped when the variable is unset.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../scripts/init.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	_, err = db.Exec(`TRUNCATE loan_payments, loans, savings_transactions, savings_accounts RESTART IDENTITY`)
	require.NoError(t, err)

	return db
}

func TestLedgerRepository_Postgres(t *testing.T) {
	db := openTestDB(t)
	store := NewLedgerRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	account := &domain.SavingsAccount{
		ID:                     "m1",
		MemberID:               "m1",
		Balance:                20000,
		TotalDeposits:          20000,
		MinMonthlyContribution: 50000,
		MaxWithdrawalsPerMonth: 2,
		Status:                 domain.AccountStatusActive,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	deposit := &domain.SavingsTransaction{
		ID:        uuid.New().String(),
		AccountID: "m1",
		Type:      domain.TransactionDeposit,
		Amount:    20000,
		Balance:   20000,
		Concept:   "Deposit",
		CreatedAt: now,
		CreatedBy: "m1",
	}

	require.NoError(t, store.CommitPosting(ctx, account, deposit))
	assert.Equal(t, int64(1), account.Version)

	t.Run("second insert of the same account conflicts", func(t *testing.T) {
		dup := *account
		dup.Version = 0
		err := store.CommitPosting(ctx, &dup, nil)
		assert.ErrorIs(t, err, customError.ErrVersionConflict)
	})

	t.Run("versioned update", func(t *testing.T) {
		stale, err := store.GetAccount(ctx, "m1")
		require.NoError(t, err)

		account.Balance = 9800
		account.TotalWithdrawals = 10000
		account.WithdrawalsThisMonth = 1
		withdrawal := &domain.SavingsTransaction{
			ID:        uuid.New().String(),
			AccountID: "m1",
			Type:      domain.TransactionWithdrawal,
			Amount:    10000,
			Balance:   9800,
			Concept:   "Withdrawal",
			Metadata:  domain.TransactionMetadata{Fee: 200},
			CreatedAt: now.Add(time.Minute),
			CreatedBy: "m1",
		}
		require.NoError(t, store.CommitPosting(ctx, account, withdrawal))
		assert.Equal(t, int64(2), account.Version)

		stale.Balance = 0
		assert.ErrorIs(t, store.CommitPosting(ctx, stale, nil), customError.ErrVersionConflict)
	})

	t.Run("reads", func(t *testing.T) {
		got, err := store.GetAccount(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, int64(9800), got.Balance)
		assert.Equal(t, domain.AccountStatusActive, got.Status)

		history, err := store.ListTransactions(ctx, "m1", 10)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, domain.TransactionWithdrawal, history[0].Type)
		assert.Equal(t, int64(200), history[0].Metadata.Fee)

		active, err := store.ListAccounts(ctx, domain.AccountStatusActive)
		require.NoError(t, err)
		assert.Len(t, active, 1)

		_, err = store.GetAccount(ctx, "missing")
		assert.ErrorIs(t, err, customError.ErrNotFound)
	})
}

func TestLoanRepository_Postgres(t *testing.T) {
	db := openTestDB(t)
	store := NewLoanRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	loan := &domain.LoanApplication{
		ID:             uuid.New().String(),
		MemberID:       "m1",
		MemberName:     "Member One",
		Amount:         100000,
		TermMonths:     2,
		Purpose:        "tools",
		InterestRate:   decimal.NewFromInt(2),
		MonthlyPayment: 51505,
		TotalInterest:  3010,
		TotalAmount:    103010,
		CoSigners:      domain.CoSigners{{MemberID: "c1", Name: "Co One", Status: domain.CoSignerStatusPending}},
		Status:         domain.LoanStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, store.CreateLoan(ctx, loan))
	assert.Equal(t, int64(1), loan.Version)

	approvedAt := now.Add(time.Hour)
	loan.Status = domain.LoanStatusActive
	loan.ApprovedBy = "treasurer"
	loan.ApprovedAt = &approvedAt
	loan.Disbursement = domain.Disbursement{Method: "transfer", Account: "ACC-1"}
	loan.TotalPayments = 2
	loan.RemainingBalance = 103010
	installments := []*domain.LoanPayment{
		{ID: uuid.New().String(), LoanID: loan.ID, MemberID: "m1", Number: 1, DueDate: now.AddDate(0, 1, 0),
			Amount: 51505, Principal: 49505, Interest: 2000, RemainingBalance: 50495, Status: domain.PaymentStatusPending, CreatedAt: now},
		{ID: uuid.New().String(), LoanID: loan.ID, MemberID: "m1", Number: 2, DueDate: now.AddDate(0, 2, 0),
			Amount: 51505, Principal: 50495, Interest: 1010, Status: domain.PaymentStatusPending, CreatedAt: now},
	}
	require.NoError(t, store.UpdateLoan(ctx, loan, installments...))
	assert.Equal(t, int64(2), loan.Version)

	t.Run("loan round trip", func(t *testing.T) {
		got, err := store.GetLoan(ctx, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LoanStatusActive, got.Status)
		assert.Equal(t, "transfer", got.Disbursement.Method)
		assert.True(t, got.InterestRate.Equal(decimal.NewFromInt(2)))
		require.Len(t, got.CoSigners, 1)
		assert.Equal(t, "c1", got.CoSigners[0].MemberID)
	})

	t.Run("payment updates only the payment fields", func(t *testing.T) {
		paidAt := now.AddDate(0, 1, 0)
		first := *installments[0]
		first.Status = domain.PaymentStatusPaid
		first.PaidAt = &paidAt
		first.PaidAmount = 51505
		first.Principal = 1

		loan.PaidPayments = 1
		loan.RemainingBalance = 51505
		require.NoError(t, store.UpdateLoan(ctx, loan, &first))

		got, err := store.GetInstallment(ctx, loan.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPaid, got.Status)
		assert.Equal(t, int64(49505), got.Principal)

		_, err = store.GetInstallment(ctx, loan.ID, 3)
		assert.ErrorIs(t, err, customError.ErrNotFound)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := *loan
		stale.Version = 1
		assert.ErrorIs(t, store.UpdateLoan(ctx, &stale), customError.ErrVersionConflict)
	})

	t.Run("listing", func(t *testing.T) {
		byMember, err := store.ListLoansByMember(ctx, "m1")
		require.NoError(t, err)
		assert.Len(t, byMember, 1)

		open, err := store.ListLoansByStatus(ctx, domain.LoanStatusActive, domain.LoanStatusOverdue)
		require.NoError(t, err)
		assert.Len(t, open, 1)

		schedule, err := store.GetInstallments(ctx, loan.ID)
		require.NoError(t, err)
		require.Len(t, schedule, 2)
		assert.Equal(t, 1, schedule[0].Number)

		memberInstallments, err := store.ListInstallmentsByMember(ctx, "m1")
		require.NoError(t, err)
		assert.Len(t, memberInstallments, 2)
	})
}

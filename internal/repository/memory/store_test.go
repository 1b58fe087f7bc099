package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/fund-ledger/internal/domain"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newAccount(id string) *domain.SavingsAccount {
	return &domain.SavingsAccount{ID: id, MemberID: id, Status: domain.AccountStatusActive, CreatedAt: now, UpdatedAt: now}
}

func TestCommitPosting_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	acc := newAccount("m1")
	acc.Balance = 100
	require.NoError(t, s.CommitPosting(ctx, acc, &domain.SavingsTransaction{ID: "t1", AccountID: "m1", Type: domain.TransactionDeposit, Amount: 100, Balance: 100}))
	assert.Equal(t, int64(1), acc.Version)

	// a second first-deposit loses the race
	err := s.CommitPosting(ctx, newAccount("m1"), nil)
	assert.ErrorIs(t, err, customError.ErrVersionConflict)

	stale := *acc
	acc.Balance = 250
	require.NoError(t, s.CommitPosting(ctx, acc, &domain.SavingsTransaction{ID: "t2", AccountID: "m1", Type: domain.TransactionDeposit, Amount: 150, Balance: 250}))
	assert.Equal(t, int64(2), acc.Version)

	err = s.CommitPosting(ctx, &stale, nil)
	assert.ErrorIs(t, err, customError.ErrVersionConflict)

	got, err := s.GetAccount(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.Balance)

	history, err := s.ListTransactions(ctx, "m1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "t2", history[0].ID)

	history, err = s.ListTransactions(ctx, "m1", 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestGetAccount_NotFound(t *testing.T) {
	_, err := NewStore().GetAccount(context.Background(), "ghost")
	assert.ErrorIs(t, err, customError.ErrNotFound)
}

func TestGetAccount_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CommitPosting(ctx, newAccount("m1"), nil))

	got, err := s.GetAccount(ctx, "m1")
	require.NoError(t, err)
	got.Balance = 999

	again, err := s.GetAccount(ctx, "m1")
	require.NoError(t, err)
	assert.Zero(t, again.Balance)
}

func TestCommitPosting_ConcurrentWritersOneWins(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CommitPosting(ctx, newAccount("m1"), nil))

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc, err := s.GetAccount(ctx, "m1")
			if err != nil {
				results <- err
				return
			}
			acc.Balance += 10
			results <- s.CommitPosting(ctx, acc, nil)
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, customError.ErrVersionConflict)
	}

	got, err := s.GetAccount(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(ok*10), got.Balance)
}

func TestUpdateLoan_UpsertsInstallments(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	loan := &domain.LoanApplication{ID: "l1", MemberID: "m1", Status: domain.LoanStatusPending, CreatedAt: now}
	require.NoError(t, s.CreateLoan(ctx, loan))
	assert.Equal(t, int64(1), loan.Version)

	loan.Status = domain.LoanStatusActive
	schedule := []*domain.LoanPayment{
		{ID: "p2", LoanID: "l1", MemberID: "m1", Number: 2, Amount: 50, Status: domain.PaymentStatusPending},
		{ID: "p1", LoanID: "l1", MemberID: "m1", Number: 1, Amount: 50, Status: domain.PaymentStatusPending},
	}
	require.NoError(t, s.UpdateLoan(ctx, loan, schedule...))

	got, err := s.GetInstallments(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)

	// amortization fields stay fixed on update
	paid := *got[0]
	paid.Status = domain.PaymentStatusPaid
	paid.PaidAmount = 50
	paid.Amount = 1
	require.NoError(t, s.UpdateLoan(ctx, loan, &paid))

	first, err := s.GetInstallment(ctx, "l1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, first.Status)
	assert.Equal(t, int64(50), first.Amount)

	_, err = s.GetInstallment(ctx, "l1", 9)
	assert.ErrorIs(t, err, customError.ErrNotFound)

	stale := *loan
	stale.Version = 1
	assert.ErrorIs(t, s.UpdateLoan(ctx, &stale), customError.ErrVersionConflict)

	byMember, err := s.ListInstallmentsByMember(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, byMember, 2)
}

func TestListLoans(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.CreateLoan(ctx, &domain.LoanApplication{ID: "a", MemberID: "m1", Status: domain.LoanStatusPending, CreatedAt: now}))
	require.NoError(t, s.CreateLoan(ctx, &domain.LoanApplication{ID: "b", MemberID: "m1", Status: domain.LoanStatusActive, CreatedAt: now.Add(time.Hour)}))
	require.NoError(t, s.CreateLoan(ctx, &domain.LoanApplication{ID: "c", MemberID: "m2", Status: domain.LoanStatusOverdue, CreatedAt: now}))

	mine, err := s.ListLoansByMember(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "b", mine[0].ID)

	open, err := s.ListLoansByStatus(ctx, domain.LoanStatusActive, domain.LoanStatusOverdue)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	_, err = s.GetLoan(ctx, "zzz")
	assert.ErrorIs(t, err, customError.ErrNotFound)

	assert.ErrorIs(t, s.CreateLoan(ctx, &domain.LoanApplication{ID: "a"}), customError.ErrVersionConflict)
}

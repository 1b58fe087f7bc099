package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

func TestParseLoanStatus(t *testing.T) {
	for _, s := range []string{"pending", "approved", "rejected", "active", "overdue", "paid", "defaulted", "cancelled"} {
		status, err := ParseLoanStatus(s)
		require.NoError(t, err)
		assert.Equal(t, LoanStatus(s), status)
	}

	_, err := ParseLoanStatus("")
	assert.ErrorIs(t, err, customError.ErrUnknownStatus)

	_, err = ParseLoanStatus("ACTIVE")
	assert.ErrorIs(t, err, customError.ErrUnknownStatus)
}

func TestStatusScanFailsClosed(t *testing.T) {
	var ps PaymentStatus
	require.NoError(t, ps.Scan([]byte("partially_paid")))
	assert.Equal(t, PaymentStatusPartiallyPaid, ps)

	assert.ErrorIs(t, ps.Scan(nil), customError.ErrUnknownStatus)
	assert.ErrorIs(t, ps.Scan("late"), customError.ErrUnknownStatus)
	assert.Error(t, ps.Scan(42))

	var as AccountStatus
	require.NoError(t, as.Scan("frozen"))
	assert.Equal(t, AccountStatusFrozen, as)
}

func TestStatusJSONFailsClosed(t *testing.T) {
	var p LoanPayment
	err := json.Unmarshal([]byte(`{"status":"paid"}`), &p)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, p.Status)

	err = json.Unmarshal([]byte(`{"status":"settled"}`), &p)
	assert.ErrorIs(t, err, customError.ErrUnknownStatus)
}

func TestLoanStatusTransitions(t *testing.T) {
	tests := []struct {
		from     LoanStatus
		to       LoanStatus
		expected bool
	}{
		{LoanStatusPending, LoanStatusActive, true},
		{LoanStatusPending, LoanStatusRejected, true},
		{LoanStatusPending, LoanStatusPaid, false},
		{LoanStatusActive, LoanStatusOverdue, true},
		{LoanStatusActive, LoanStatusPending, false},
		{LoanStatusOverdue, LoanStatusActive, true},
		{LoanStatusOverdue, LoanStatusDefaulted, true},
		{LoanStatusOverdue, LoanStatusCancelled, false},
		{LoanStatusPaid, LoanStatusActive, false},
		{LoanStatusRejected, LoanStatusActive, false},
		{LoanStatusDefaulted, LoanStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestLoanStatusPredicates(t *testing.T) {
	assert.True(t, LoanStatusActive.AcceptsPayments())
	assert.True(t, LoanStatusOverdue.AcceptsPayments())
	assert.False(t, LoanStatusPaid.AcceptsPayments())
	assert.False(t, LoanStatusPending.AcceptsPayments())

	assert.True(t, LoanStatusApproved.IsOpen())
	assert.False(t, LoanStatusPending.IsOpen())
	assert.False(t, LoanStatusPaid.IsOpen())
}

func TestTransactionDelta(t *testing.T) {
	deposit := &SavingsTransaction{Type: TransactionDeposit, Amount: 15000}
	withdrawal := &SavingsTransaction{Type: TransactionWithdrawal, Amount: 50000, Metadata: TransactionMetadata{Fee: 1000}}
	fine := &SavingsTransaction{Type: TransactionFine, Amount: 5000}

	assert.Equal(t, int64(15000), deposit.Delta())
	assert.Equal(t, int64(-51000), withdrawal.Delta())
	assert.Equal(t, int64(-5000), fine.Delta())
}

func TestLoanPaymentOutstandingAndOverdue(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p := &LoanPayment{Amount: 94560, PaidAmount: 40000, DueDate: due, Status: PaymentStatusPartiallyPaid}

	assert.Equal(t, int64(54560), p.Outstanding())
	assert.False(t, p.IsOverdueAt(due))
	assert.True(t, p.IsOverdueAt(due.AddDate(0, 0, 3)))

	p.Status = PaymentStatusPaid
	p.PaidAmount = 94560
	assert.Equal(t, int64(0), p.Outstanding())
	assert.False(t, p.IsOverdueAt(due.AddDate(0, 0, 3)))
}

func TestCoSignersValueScan(t *testing.T) {
	in := CoSigners{
		{MemberID: "m-2", Name: "Ana", Status: CoSignerStatusAccepted},
		{MemberID: "m-3", Name: "Luis", Status: CoSignerStatusPending},
	}

	raw, err := in.Value()
	require.NoError(t, err)

	var out CoSigners
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, in, out)

	idx, ok := out.Find("m-3")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.False(t, out.AllAccepted())

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)
}

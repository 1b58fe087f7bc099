package domain

import (
	"time"

	"github.com/segyhp/fund-ledger/pkg/utils"
)

// LoanPayment represents one scheduled installment of an active loan.
// Principal, Interest, Amount and DueDate are fixed at activation.
type LoanPayment struct {
	ID               string        `json:"id" db:"id"`
	LoanID           string        `json:"loan_id" db:"loan_id"`
	MemberID         string        `json:"member_id" db:"member_id"`
	Number           int           `json:"number" db:"number"`
	DueDate          time.Time     `json:"due_date" db:"due_date"`
	Amount           int64         `json:"amount" db:"amount"`
	Principal        int64         `json:"principal" db:"principal"`
	Interest         int64         `json:"interest" db:"interest"`
	RemainingBalance int64         `json:"remaining_balance" db:"remaining_balance"`
	Status           PaymentStatus `json:"status" db:"status"` // pending, paid, overdue, partially_paid
	PaidAt           *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	PaidAmount       int64         `json:"paid_amount" db:"paid_amount"`
	LateDays         int           `json:"late_days" db:"late_days"`
	LateFee          int64         `json:"late_fee" db:"late_fee"`
	Method           string        `json:"method,omitempty" db:"method"`
	ReceiptRef       string        `json:"receipt_ref,omitempty" db:"receipt_ref"`
	Notes            string        `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

// Outstanding is what is still owed on the installment, excluding late fees.
func (p *LoanPayment) Outstanding() int64 {
	if p.PaidAmount >= p.Amount {
		return 0
	}
	return p.Amount - p.PaidAmount
}

// IsOverdueAt reports whether the installment is unpaid past its due date at now,
// or has already been flagged overdue.
func (p *LoanPayment) IsOverdueAt(now time.Time) bool {
	if p.Status.IsSettled() {
		return false
	}
	return p.Status == PaymentStatusOverdue || utils.IsDateOverdue(p.DueDate, now)
}

// PaymentSchedule is the read model of a loan's installments.
type PaymentSchedule struct {
	LoanID string `json:"loan_id"`
	// LoanVersion is the loan version the schedule was built from.
	LoanVersion      int64          `json:"loan_version"`
	Status           LoanStatus     `json:"status"`
	Installments     []*LoanPayment `json:"installments"`
	TotalScheduled   int64          `json:"total_scheduled"`
	TotalPaid        int64          `json:"total_paid"`
	RemainingBalance int64          `json:"remaining_balance"`
	TotalLateFees    int64          `json:"total_late_fees"`
	NextDue          *LoanPayment   `json:"next_due,omitempty"`
}

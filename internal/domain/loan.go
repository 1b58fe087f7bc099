package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LoanApplication represents a loan from request to payoff
type LoanApplication struct {
	ID               string          `json:"id" db:"id"`
	MemberID         string          `json:"member_id" db:"member_id"`
	MemberName       string          `json:"member_name" db:"member_name"`
	Amount           int64           `json:"amount" db:"amount"`
	TermMonths       int             `json:"term_months" db:"term_months"`
	Purpose          string          `json:"purpose" db:"purpose"`
	InterestRate     decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	MonthlyPayment   int64           `json:"monthly_payment" db:"monthly_payment"`
	TotalInterest    int64           `json:"total_interest" db:"total_interest"`
	TotalAmount      int64           `json:"total_amount" db:"total_amount"`
	CoSigners        CoSigners       `json:"co_signers" db:"co_signers"`
	Status           LoanStatus      `json:"status" db:"status"`
	ApprovedBy       string          `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty" db:"approved_at"`
	RejectionReason  string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
	Disbursement     Disbursement    `json:"disbursement" db:"disbursement"`
	DisbursedAt      *time.Time      `json:"disbursed_at,omitempty" db:"disbursed_at"`
	PaidPayments     int             `json:"paid_payments" db:"paid_payments"`
	TotalPayments    int             `json:"total_payments" db:"total_payments"`
	RemainingBalance int64           `json:"remaining_balance" db:"remaining_balance"`
	LastPaymentDate  *time.Time      `json:"last_payment_date,omitempty" db:"last_payment_date"`
	NextPaymentDate  *time.Time      `json:"next_payment_date,omitempty" db:"next_payment_date"`
	OverduePayments  int             `json:"overdue_payments" db:"overdue_payments"`
	TotalOverdueDays int             `json:"total_overdue_days" db:"total_overdue_days"`
	TotalLateFees    int64           `json:"total_late_fees" db:"total_late_fees"`
	Version          int64           `json:"version" db:"version"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Disbursement records how an approved loan was paid out.
type Disbursement struct {
	Method  string `json:"method" db:"method" validate:"required"`
	Account string `json:"account" db:"account"`
}

// CoSigner is a member who accepts joint liability for a loan.
type CoSigner struct {
	MemberID    string         `json:"member_id"`
	Name        string         `json:"name"`
	Phone       string         `json:"phone,omitempty"`
	Email       string         `json:"email,omitempty"`
	Status      CoSignerStatus `json:"status"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
}

// CoSigners is stored as a single JSON document next to the loan row.
type CoSigners []CoSigner

func (c CoSigners) Value() (driver.Value, error) {
	if c == nil {
		c = CoSigners{}
	}
	return json.Marshal(c)
}

func (c *CoSigners) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*c = CoSigners{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into co-signers", src)
	}
	return json.Unmarshal(raw, c)
}

// Find returns the co-signer with memberID.
func (c CoSigners) Find(memberID string) (int, bool) {
	for i := range c {
		if c[i].MemberID == memberID {
			return i, true
		}
	}
	return -1, false
}

// AllAccepted reports whether every co-signer accepted.
func (c CoSigners) AllAccepted() bool {
	for _, cs := range c {
		if cs.Status != CoSignerStatusAccepted {
			return false
		}
	}
	return true
}

// DTOs for requests and responses

type SubmitLoanRequest struct {
	MemberID   string          `json:"member_id" validate:"required"`
	MemberName string          `json:"member_name" validate:"required"`
	Amount     int64           `json:"amount" validate:"required,gt=0"`
	TermMonths int             `json:"term_months" validate:"required,gt=0"`
	Purpose    string          `json:"purpose" validate:"required,max=500"`
	CoSigners  []CoSignerInput `json:"co_signers" validate:"dive"`
}

// CoSignerInput names a co-signer on a new application. The status is
// assigned by the server.
type CoSignerInput struct {
	MemberID string `json:"member_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

type ApproveLoanRequest struct {
	ApproverID   string       `json:"approver_id" validate:"required"`
	Disbursement Disbursement `json:"disbursement" validate:"required"`
}

type RejectLoanRequest struct {
	ApproverID string `json:"approver_id" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

type CancelLoanRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type CoSignerResponseRequest struct {
	Accept bool `json:"accept"`
}

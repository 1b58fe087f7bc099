package domain

import (
	"time"
)

// SavingsAccount is a member's savings balance and its monthly counters.
// The account id is the owner's member id; each member has one account.
type SavingsAccount struct {
	ID                     string        `json:"id" db:"id"`
	MemberID               string        `json:"member_id" db:"member_id"`
	Balance                int64         `json:"balance" db:"balance"`
	TotalDeposits          int64         `json:"total_deposits" db:"total_deposits"`
	TotalWithdrawals       int64         `json:"total_withdrawals" db:"total_withdrawals"`
	MonthlyContribution    int64         `json:"monthly_contribution" db:"monthly_contribution"`
	MinMonthlyContribution int64         `json:"min_monthly_contribution" db:"min_monthly_contribution"`
	ConsecutiveMonthsMet   int           `json:"consecutive_months_met" db:"consecutive_months_met"`
	WithdrawalsThisMonth   int           `json:"withdrawals_this_month" db:"withdrawals_this_month"`
	MaxWithdrawalsPerMonth int           `json:"max_withdrawals_per_month" db:"max_withdrawals_per_month"`
	TotalFines             int64         `json:"total_fines" db:"total_fines"`
	FinesPending           int64         `json:"fines_pending" db:"fines_pending"`
	Status                 AccountStatus `json:"status" db:"status"`
	Version                int64         `json:"version" db:"version"`
	CreatedAt              time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at" db:"updated_at"`
}

// SavingsTransaction is one immutable ledger posting. Amount is always
// positive; Balance is the account balance right after the posting.
type SavingsTransaction struct {
	ID        string              `json:"id" db:"id"`
	AccountID string              `json:"account_id" db:"account_id"`
	Type      TransactionType     `json:"type" db:"type"`
	Amount    int64               `json:"amount" db:"amount"`
	Balance   int64               `json:"balance" db:"balance"`
	Concept   string              `json:"concept" db:"concept"`
	Metadata  TransactionMetadata `json:"metadata" db:"metadata"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
	CreatedBy string              `json:"created_by" db:"created_by"`
}

// TransactionMetadata carries optional facts about a posting.
type TransactionMetadata struct {
	Fee        int64  `json:"fee,omitempty" db:"fee"`
	ApprovedBy string `json:"approved_by,omitempty" db:"approved_by"`
	ReceiptRef string `json:"receipt_ref,omitempty" db:"receipt_ref"`
}

// Delta is the signed change the posting applied to the account balance.
func (t *SavingsTransaction) Delta() int64 {
	switch t.Type {
	case TransactionDeposit, TransactionInterest:
		return t.Amount
	case TransactionWithdrawal:
		return -(t.Amount + t.Metadata.Fee)
	default:
		return -t.Amount
	}
}

// DTOs for requests and responses

type DepositRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Concept   string `json:"concept" validate:"max=200"`
	CreatedBy string `json:"created_by"`
}

type WithdrawRequest struct {
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	Concept    string `json:"concept" validate:"max=200"`
	ApproverID string `json:"approver_id" validate:"required"`
}

type AccountStatusRequest struct {
	Status AccountStatus `json:"status" validate:"required"`
}

type PostingResponse struct {
	Transaction *SavingsTransaction `json:"transaction"`
	Balance     int64               `json:"balance"`
}

package domain

import (
	"database/sql/driver"
	"fmt"

	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

// AccountStatus is the lifecycle status of a savings account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
	AccountStatusFrozen   AccountStatus = "frozen"
)

// TransactionType is the kind of a ledger posting.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionFine       TransactionType = "fine"
	TransactionInterest   TransactionType = "interest"
)

// LoanStatus is the lifecycle status of a loan application.
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusApproved  LoanStatus = "approved"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusOverdue   LoanStatus = "overdue"
	LoanStatusPaid      LoanStatus = "paid"
	LoanStatusDefaulted LoanStatus = "defaulted"
	LoanStatusCancelled LoanStatus = "cancelled"
)

// PaymentStatus is the status of one scheduled installment.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusOverdue       PaymentStatus = "overdue"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
)

// CoSignerStatus is a co-signer's answer to a loan request.
type CoSignerStatus string

const (
	CoSignerStatusPending  CoSignerStatus = "pending"
	CoSignerStatusAccepted CoSignerStatus = "accepted"
	CoSignerStatusRejected CoSignerStatus = "rejected"
)

// Parse functions fail closed: empty or unknown values are errors, never defaults.

func ParseAccountStatus(s string) (AccountStatus, error) {
	switch v := AccountStatus(s); v {
	case AccountStatusActive, AccountStatusInactive, AccountStatusFrozen:
		return v, nil
	}
	return "", customError.WrapUnknownStatus("account", s)
}

func ParseTransactionType(s string) (TransactionType, error) {
	switch v := TransactionType(s); v {
	case TransactionDeposit, TransactionWithdrawal, TransactionFine, TransactionInterest:
		return v, nil
	}
	return "", customError.WrapUnknownStatus("transaction type", s)
}

func ParseLoanStatus(s string) (LoanStatus, error) {
	switch v := LoanStatus(s); v {
	case LoanStatusPending, LoanStatusApproved, LoanStatusRejected, LoanStatusActive,
		LoanStatusOverdue, LoanStatusPaid, LoanStatusDefaulted, LoanStatusCancelled:
		return v, nil
	}
	return "", customError.WrapUnknownStatus("loan", s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch v := PaymentStatus(s); v {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusPartiallyPaid:
		return v, nil
	}
	return "", customError.WrapUnknownStatus("payment", s)
}

func ParseCoSignerStatus(s string) (CoSignerStatus, error) {
	switch v := CoSignerStatus(s); v {
	case CoSignerStatusPending, CoSignerStatusAccepted, CoSignerStatusRejected:
		return v, nil
	}
	return "", customError.WrapUnknownStatus("co-signer", s)
}

// loanTransitions lists every allowed loan status change.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending:  {LoanStatusApproved, LoanStatusActive, LoanStatusRejected, LoanStatusCancelled},
	LoanStatusApproved: {LoanStatusActive, LoanStatusCancelled},
	LoanStatusActive:   {LoanStatusPaid, LoanStatusOverdue, LoanStatusDefaulted, LoanStatusCancelled},
	LoanStatusOverdue:  {LoanStatusActive, LoanStatusPaid, LoanStatusDefaulted},
}

// CanTransitionTo reports whether a loan may move from s to next.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsPayments reports whether installments of a loan in s can be paid.
func (s LoanStatus) AcceptsPayments() bool {
	return s == LoanStatusActive || s == LoanStatusOverdue
}

// IsOpen reports whether s counts as an outstanding loan for eligibility.
func (s LoanStatus) IsOpen() bool {
	return s == LoanStatusActive || s == LoanStatusOverdue || s == LoanStatusApproved
}

// IsSettled reports whether an installment needs no further payment.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusPaid
}

// sql and text codecs route every adapter through the parsers above.

func (s AccountStatus) Value() (driver.Value, error)   { return string(s), nil }
func (s TransactionType) Value() (driver.Value, error) { return string(s), nil }
func (s LoanStatus) Value() (driver.Value, error)      { return string(s), nil }
func (s PaymentStatus) Value() (driver.Value, error)   { return string(s), nil }
func (s CoSignerStatus) Value() (driver.Value, error)  { return string(s), nil }

func (s *AccountStatus) Scan(src any) error {
	return scanStatus(src, func(v string) (err error) { *s, err = ParseAccountStatus(v); return })
}

func (s *TransactionType) Scan(src any) error {
	return scanStatus(src, func(v string) (err error) { *s, err = ParseTransactionType(v); return })
}

func (s *LoanStatus) Scan(src any) error {
	return scanStatus(src, func(v string) (err error) { *s, err = ParseLoanStatus(v); return })
}

func (s *PaymentStatus) Scan(src any) error {
	return scanStatus(src, func(v string) (err error) { *s, err = ParsePaymentStatus(v); return })
}

func (s *CoSignerStatus) Scan(src any) error {
	return scanStatus(src, func(v string) (err error) { *s, err = ParseCoSignerStatus(v); return })
}

func (s *AccountStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseAccountStatus(string(b))
	return err
}

func (s *TransactionType) UnmarshalText(b []byte) (err error) {
	*s, err = ParseTransactionType(string(b))
	return err
}

func (s *LoanStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseLoanStatus(string(b))
	return err
}

func (s *PaymentStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParsePaymentStatus(string(b))
	return err
}

func (s *CoSignerStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseCoSignerStatus(string(b))
	return err
}

func scanStatus(src any, parse func(string) error) error {
	switch v := src.(type) {
	case string:
		return parse(v)
	case []byte:
		return parse(string(v))
	case nil:
		return parse("")
	default:
		return fmt.Errorf("cannot scan %T into a status", src)
	}
}

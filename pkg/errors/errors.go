package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidRate            = errors.New("invalid interest rate")
	ErrInvalidTerm            = errors.New("invalid term")
	ErrValidation             = errors.New("validation failed")
	ErrUnknownStatus          = errors.New("unknown status")
	ErrAccountNotFound        = errors.New("savings account not found")
	ErrAccountNotActive       = errors.New("savings account is not active")
	ErrWithdrawalLimitReached = errors.New("monthly withdrawal limit reached")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrNotEligible            = errors.New("member is not eligible for a loan")
	ErrLoanNotFound           = errors.New("loan not found")
	ErrLoanNotPending         = errors.New("loan is not pending")
	ErrLoanNotActive          = errors.New("loan does not accept payments")
	ErrInvalidTransition      = errors.New("invalid loan status transition")
	ErrCoSignerNotFound       = errors.New("co-signer not found")
	ErrCoSignersPending       = errors.New("co-signers have not accepted")
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrAlreadyPaid            = errors.New("installment already paid")
	ErrVersionConflict        = errors.New("version conflict")
	ErrConcurrencyConflict    = errors.New("concurrent modification, retries exhausted")
	ErrNotFound               = errors.New("record not found")
)

// Kind groups error codes the way callers render them.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindEligibility   Kind = "eligibility"
	KindStateConflict Kind = "state_conflict"
	KindNotFound      Kind = "not_found"
	KindConcurrency   Kind = "concurrency"
	KindInternal      Kind = "internal"
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Kind    Kind
	Message string
	Reasons []string
	Err     error
}

func (e *BusinessError) Error() string {
	msg := e.Message
	if len(e.Reasons) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Reasons, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code string, kind Kind, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf reports the kind of err, KindInternal for anything that is not a BusinessError.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// ReasonsOf returns the reasons attached to err, if any.
func ReasonsOf(err error) []string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Reasons
	}
	return nil
}

// Error codes
const (
	ErrCodeInvalidAmount          = "INVALID_AMOUNT"
	ErrCodeValidation             = "VALIDATION_FAILED"
	ErrCodeUnknownStatus          = "UNKNOWN_STATUS"
	ErrCodeAccountNotFound        = "ACCOUNT_NOT_FOUND"
	ErrCodeAccountNotActive       = "ACCOUNT_NOT_ACTIVE"
	ErrCodeWithdrawalLimitReached = "WITHDRAWAL_LIMIT_REACHED"
	ErrCodeInsufficientBalance    = "INSUFFICIENT_BALANCE"
	ErrCodeNotEligible            = "NOT_ELIGIBLE"
	ErrCodeLoanNotFound           = "LOAN_NOT_FOUND"
	ErrCodeLoanNotPending         = "LOAN_NOT_PENDING"
	ErrCodeLoanNotActive          = "LOAN_NOT_ACTIVE"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
	ErrCodeCoSignerNotFound       = "COSIGNER_NOT_FOUND"
	ErrCodeCoSignersPending       = "COSIGNERS_PENDING"
	ErrCodeInstallmentNotFound    = "INSTALLMENT_NOT_FOUND"
	ErrCodeAlreadyPaid            = "ALREADY_PAID"
	ErrCodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapInvalidAmount(amount int64, reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		KindValidation,
		fmt.Sprintf("Invalid amount %d: %s", amount, reason),
		ErrInvalidAmount,
	)
}

func WrapValidation(reasons []string) *BusinessError {
	e := NewBusinessError(ErrCodeValidation, KindValidation, "Request validation failed", ErrValidation)
	e.Reasons = reasons
	return e
}

func WrapUnknownStatus(dimension, value string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnknownStatus,
		KindInternal,
		fmt.Sprintf("Unknown %s status %q", dimension, value),
		ErrUnknownStatus,
	)
}

func WrapAccountNotFound(accountID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAccountNotFound,
		KindNotFound,
		fmt.Sprintf("Savings account %s not found", accountID),
		ErrAccountNotFound,
	)
}

func WrapAccountNotActive(accountID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeAccountNotActive,
		KindStateConflict,
		fmt.Sprintf("Savings account %s is %s", accountID, status),
		ErrAccountNotActive,
	)
}

func WrapWithdrawalLimitReached(accountID string, limit int) *BusinessError {
	return NewBusinessError(
		ErrCodeWithdrawalLimitReached,
		KindStateConflict,
		fmt.Sprintf("Savings account %s reached the limit of %d withdrawals this month", accountID, limit),
		ErrWithdrawalLimitReached,
	)
}

func WrapInsufficientBalance(accountID string, balance, required int64) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientBalance,
		KindStateConflict,
		fmt.Sprintf("Savings account %s has balance %d, %d required", accountID, balance, required),
		ErrInsufficientBalance,
	)
}

func WrapNotEligible(memberID string, reasons []string) *BusinessError {
	e := NewBusinessError(
		ErrCodeNotEligible,
		KindEligibility,
		fmt.Sprintf("Member %s is not eligible for a loan", memberID),
		ErrNotEligible,
	)
	e.Reasons = reasons
	return e
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		KindNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanNotPending(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotPending,
		KindStateConflict,
		fmt.Sprintf("Loan with ID %s is %s, expected pending", loanID, status),
		ErrLoanNotPending,
	)
}

func WrapLoanNotActive(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotActive,
		KindStateConflict,
		fmt.Sprintf("Loan with ID %s is %s and does not accept payments", loanID, status),
		ErrLoanNotActive,
	)
}

func WrapInvalidTransition(loanID, from, to string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		KindStateConflict,
		fmt.Sprintf("Loan with ID %s cannot move from %s to %s", loanID, from, to),
		ErrInvalidTransition,
	)
}

func WrapCoSignerNotFound(loanID, memberID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCoSignerNotFound,
		KindNotFound,
		fmt.Sprintf("Member %s is not a co-signer of loan %s", memberID, loanID),
		ErrCoSignerNotFound,
	)
}

func WrapCoSignersPending(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCoSignersPending,
		KindStateConflict,
		fmt.Sprintf("Loan with ID %s still has co-signers that did not accept", loanID),
		ErrCoSignersPending,
	)
}

func WrapInstallmentNotFound(loanID string, number int) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		KindNotFound,
		fmt.Sprintf("Installment %d of loan %s not found", number, loanID),
		ErrInstallmentNotFound,
	)
}

func WrapAlreadyPaid(loanID string, number int) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyPaid,
		KindStateConflict,
		fmt.Sprintf("Installment %d of loan %s is already paid", number, loanID),
		ErrAlreadyPaid,
	)
}

func WrapConcurrencyConflict(op string, attempts int) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrencyConflict,
		KindConcurrency,
		fmt.Sprintf("%s gave up after %d attempts", op, attempts),
		ErrConcurrencyConflict,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		KindInternal,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		KindInternal,
		"Cache operation failed",
		err,
	)
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/domain"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
	"github.com/segyhp/fund-ledger/pkg/response"
)

const maxBodyBytes = 1 << 20

// Savings is the savings ledger as the API uses it.
type Savings interface {
	Deposit(ctx context.Context, accountID string, req domain.DepositRequest) (*domain.PostingResponse, error)
	Withdraw(ctx context.Context, accountID string, req domain.WithdrawRequest) (*domain.PostingResponse, error)
	ApplyMonthlyFine(ctx context.Context, accountID string) (*domain.PostingResponse, error)
	History(ctx context.Context, accountID string, limit int) ([]*domain.SavingsTransaction, error)
	GetAccount(ctx context.Context, accountID string) (*domain.SavingsAccount, error)
	SetAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus) (*domain.SavingsAccount, error)
}

type Eligibility interface {
	CheckEligibility(ctx context.Context, memberID string) (*domain.Eligibility, error)
	GetStats(ctx context.Context, memberID string) (*domain.LoanStats, error)
}

type Loans interface {
	Submit(ctx context.Context, req domain.SubmitLoanRequest) (*domain.LoanApplication, error)
	Approve(ctx context.Context, loanID string, req domain.ApproveLoanRequest) (*domain.LoanApplication, error)
	Reject(ctx context.Context, loanID string, req domain.RejectLoanRequest) (*domain.LoanApplication, error)
	Cancel(ctx context.Context, loanID string, req domain.CancelLoanRequest) (*domain.LoanApplication, error)
	RespondCoSigner(ctx context.Context, loanID, memberID string, accept bool) (*domain.LoanApplication, error)
	GetLoan(ctx context.Context, loanID string) (*domain.LoanApplication, error)
	ListMemberLoans(ctx context.Context, memberID string) ([]*domain.LoanApplication, error)
}

type Payments interface {
	RecordPayment(ctx context.Context, req domain.RecordPaymentRequest) (*domain.LoanPayment, error)
	GetSchedule(ctx context.Context, loanID string) (*domain.PaymentSchedule, error)
	GetInstallment(ctx context.Context, loanID string, number int) (*domain.LoanPayment, error)
}

// LedgerHandler serves the fund's JSON API.
type LedgerHandler struct {
	savings     Savings
	eligibility Eligibility
	loans       Loans
	payments    Payments
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewLedgerHandler(savings Savings, eligibility Eligibility, loans Loans, payments Payments, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{
		savings:     savings,
		eligibility: eligibility,
		loans:       loans,
		payments:    payments,
		validator:   validator.New(),
		logger:      logger,
	}
}

// Register mounts the API routes on r.
func (h *LedgerHandler) Register(r *mux.Router) {
	accounts := r.PathPrefix("/accounts/{accountId}").Subrouter()
	accounts.HandleFunc("", h.GetAccount).Methods(http.MethodGet)
	accounts.HandleFunc("/deposits", h.Deposit).Methods(http.MethodPost)
	accounts.HandleFunc("/withdrawals", h.Withdraw).Methods(http.MethodPost)
	accounts.HandleFunc("/monthly-close", h.MonthlyClose).Methods(http.MethodPost)
	accounts.HandleFunc("/status", h.SetAccountStatus).Methods(http.MethodPut)
	accounts.HandleFunc("/transactions", h.History).Methods(http.MethodGet)

	members := r.PathPrefix("/members/{memberId}").Subrouter()
	members.HandleFunc("/eligibility", h.CheckEligibility).Methods(http.MethodGet)
	members.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
	members.HandleFunc("/loans", h.ListMemberLoans).Methods(http.MethodGet)

	r.HandleFunc("/loans", h.SubmitLoan).Methods(http.MethodPost)
	loans := r.PathPrefix("/loans/{loanId}").Subrouter()
	loans.HandleFunc("", h.GetLoan).Methods(http.MethodGet)
	loans.HandleFunc("/approve", h.ApproveLoan).Methods(http.MethodPost)
	loans.HandleFunc("/reject", h.RejectLoan).Methods(http.MethodPost)
	loans.HandleFunc("/cancel", h.CancelLoan).Methods(http.MethodPost)
	loans.HandleFunc("/cosigners/{memberId}", h.RespondCoSigner).Methods(http.MethodPost)
	loans.HandleFunc("/payments", h.RecordPayment).Methods(http.MethodPost)
	loans.HandleFunc("/schedule", h.GetSchedule).Methods(http.MethodGet)
	loans.HandleFunc("/installments/{number}", h.GetInstallment).Methods(http.MethodGet)
}

// decode reads a JSON body into dst and validates it. Failures come back as
// validation errors.
func (h *LedgerHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return customError.WrapValidation([]string{"invalid request body: " + err.Error()})
	}
	if err := h.validator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return customError.WrapValidation([]string{err.Error()})
		}
		reasons := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			reasons = append(reasons, fieldReason(fe))
		}
		return customError.WrapValidation(reasons)
	}
	return nil
}

func fieldReason(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s long", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// fail renders err and logs the ones that are not the caller's fault.
func (h *LedgerHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := response.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	response.FromError(w, err)
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, customError.WrapValidation([]string{fmt.Sprintf("%s must be a positive integer", name)})
	}
	return n, nil
}

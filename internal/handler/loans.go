package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/pkg/response"
)

func (h *LedgerHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	result, err := h.eligibility.CheckEligibility(r.Context(), mux.Vars(r)["memberId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *LedgerHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.eligibility.GetStats(r.Context(), mux.Vars(r)["memberId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, stats)
}

func (h *LedgerHandler) ListMemberLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.ListMemberLoans(r.Context(), mux.Vars(r)["memberId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if loans == nil {
		loans = []*domain.LoanApplication{}
	}
	response.Success(w, loans)
}

func (h *LedgerHandler) SubmitLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitLoanRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	loan, err := h.loans.Submit(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, loan)
}

func (h *LedgerHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.loans.GetLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LedgerHandler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.ApproveLoanRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	loan, err := h.loans.Approve(r.Context(), mux.Vars(r)["loanId"], req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LedgerHandler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.RejectLoanRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	loan, err := h.loans.Reject(r.Context(), mux.Vars(r)["loanId"], req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LedgerHandler) CancelLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CancelLoanRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	loan, err := h.loans.Cancel(r.Context(), mux.Vars(r)["loanId"], req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LedgerHandler) RespondCoSigner(w http.ResponseWriter, r *http.Request) {
	var req domain.CoSignerResponseRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	vars := mux.Vars(r)
	loan, err := h.loans.RespondCoSigner(r.Context(), vars["loanId"], vars["memberId"], req.Accept)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LedgerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordPaymentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.LoanID = mux.Vars(r)["loanId"]

	installment, err := h.payments.RecordPayment(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, installment)
}

func (h *LedgerHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.payments.GetSchedule(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, schedule)
}

func (h *LedgerHandler) GetInstallment(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	installment, err := h.payments.GetInstallment(r.Context(), mux.Vars(r)["loanId"], number)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, installment)
}

package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/segyhp/fund-ledger/internal/domain"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
	"github.com/segyhp/fund-ledger/pkg/response"
)

func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.savings.GetAccount(r.Context(), mux.Vars(r)["accountId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, account)
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req domain.DepositRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.savings.Deposit(r.Context(), mux.Vars(r)["accountId"], req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, result)
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req domain.WithdrawRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.savings.Withdraw(r.Context(), mux.Vars(r)["accountId"], req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, result)
}

// MonthlyClose runs the month-end fine for one account.
func (h *LedgerHandler) MonthlyClose(w http.ResponseWriter, r *http.Request) {
	result, err := h.savings.ApplyMonthlyFine(r.Context(), mux.Vars(r)["accountId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *LedgerHandler) SetAccountStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.AccountStatusRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	account, err := h.savings.SetAccountStatus(r.Context(), mux.Vars(r)["accountId"], req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, account)
}

// History lists postings newest first. The optional limit query parameter is
// clamped by the service.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, r, customError.WrapValidation([]string{fmt.Sprintf("limit %q is not a number", raw)}))
			return
		}
		limit = n
	}

	transactions, err := h.savings.History(r.Context(), mux.Vars(r)["accountId"], limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, transactions)
}

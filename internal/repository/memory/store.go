// Package memory implements the storage ports on process memory. It backs the
// memory storage driver and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/internal/repository"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

// Store holds accounts, postings, loans and installments behind one mutex.
// Every value crossing the boundary is copied so callers never share state
// with the store.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]domain.SavingsAccount
	postings     map[string][]domain.SavingsTransaction
	loans        map[string]domain.LoanApplication
	installments map[string][]domain.LoanPayment
}

var (
	_ repository.LedgerStore = (*Store)(nil)
	_ repository.LoanStore   = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.SavingsAccount),
		postings:     make(map[string][]domain.SavingsTransaction),
		loans:        make(map[string]domain.LoanApplication),
		installments: make(map[string][]domain.LoanPayment),
	}
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (*domain.SavingsAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, customError.ErrNotFound
	}
	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context, status domain.AccountStatus) ([]*domain.SavingsAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SavingsAccount
	for _, a := range s.accounts {
		if a.Status == status {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CommitPosting(ctx context.Context, account *domain.SavingsAccount, posting *domain.SavingsTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.accounts[account.ID]
	if account.Version == 0 {
		if exists {
			return customError.ErrVersionConflict
		}
	} else if !exists || stored.Version != account.Version {
		return customError.ErrVersionConflict
	}

	next := *account
	next.Version++
	s.accounts[account.ID] = next
	if posting != nil {
		s.postings[account.ID] = append(s.postings[account.ID], *posting)
	}

	account.Version = next.Version
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID string, limit int) ([]*domain.SavingsTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	postings := s.postings[accountID]
	if limit <= 0 {
		return []*domain.SavingsTransaction{}, nil
	}
	out := make([]*domain.SavingsTransaction, 0, min(limit, len(postings)))
	for i := len(postings) - 1; i >= 0 && len(out) < limit; i-- {
		t := postings[i]
		out = append(out, &t)
	}
	return out, nil
}

func (s *Store) CreateLoan(ctx context.Context, loan *domain.LoanApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.loans[loan.ID]; exists {
		return customError.ErrVersionConflict
	}

	loan.Version = 1
	s.loans[loan.ID] = cloneLoan(loan)
	return nil
}

func (s *Store) GetLoan(ctx context.Context, loanID string) (*domain.LoanApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.loans[loanID]
	if !ok {
		return nil, customError.ErrNotFound
	}
	out := cloneLoan(&l)
	return &out, nil
}

func (s *Store) ListLoansByMember(ctx context.Context, memberID string) ([]*domain.LoanApplication, error) {
	out := s.filterLoans(func(l *domain.LoanApplication) bool { return l.MemberID == memberID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListLoansByStatus(ctx context.Context, statuses ...domain.LoanStatus) ([]*domain.LoanApplication, error) {
	out := s.filterLoans(func(l *domain.LoanApplication) bool {
		for _, st := range statuses {
			if l.Status == st {
				return true
			}
		}
		return false
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) filterLoans(keep func(*domain.LoanApplication) bool) []*domain.LoanApplication {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.LoanApplication
	for _, l := range s.loans {
		if keep(&l) {
			c := cloneLoan(&l)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) UpdateLoan(ctx context.Context, loan *domain.LoanApplication, installments ...*domain.LoanPayment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.loans[loan.ID]
	if !ok || stored.Version != loan.Version {
		return customError.ErrVersionConflict
	}

	schedule := append([]domain.LoanPayment(nil), s.installments[loan.ID]...)
	for _, p := range installments {
		idx := sort.Search(len(schedule), func(i int) bool { return schedule[i].Number >= p.Number })
		if idx < len(schedule) && schedule[idx].Number == p.Number {
			merged := schedule[idx]
			applyPaymentFields(&merged, p)
			schedule[idx] = merged
			continue
		}
		schedule = append(schedule, clonePayment(p))
		sort.Slice(schedule, func(i, j int) bool { return schedule[i].Number < schedule[j].Number })
	}

	next := cloneLoan(loan)
	next.Version++
	s.loans[loan.ID] = next
	s.installments[loan.ID] = schedule

	loan.Version = next.Version
	return nil
}

func (s *Store) GetInstallments(ctx context.Context, loanID string) ([]*domain.LoanPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyPayments(s.installments[loanID], nil), nil
}

func (s *Store) GetInstallment(ctx context.Context, loanID string, number int) (*domain.LoanPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.installments[loanID] {
		if p.Number == number {
			c := clonePayment(&p)
			return &c, nil
		}
	}
	return nil, customError.ErrNotFound
}

func (s *Store) ListInstallmentsByMember(ctx context.Context, memberID string) ([]*domain.LoanPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.installments))
	for id := range s.installments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*domain.LoanPayment
	for _, id := range ids {
		out = copyPayments(s.installments[id], out, func(p *domain.LoanPayment) bool { return p.MemberID == memberID })
	}
	return out, nil
}

// applyPaymentFields mirrors the SQL upsert: only the payment facts change.
func applyPaymentFields(dst *domain.LoanPayment, src *domain.LoanPayment) {
	dst.Status = src.Status
	dst.PaidAt = cloneTime(src.PaidAt)
	dst.PaidAmount = src.PaidAmount
	dst.LateDays = src.LateDays
	dst.LateFee = src.LateFee
	dst.Method = src.Method
	dst.ReceiptRef = src.ReceiptRef
	dst.Notes = src.Notes
}

func copyPayments(src []domain.LoanPayment, out []*domain.LoanPayment, keep ...func(*domain.LoanPayment) bool) []*domain.LoanPayment {
	for i := range src {
		if len(keep) > 0 && !keep[0](&src[i]) {
			continue
		}
		c := clonePayment(&src[i])
		out = append(out, &c)
	}
	return out
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/fund-ledger/internal/domain"
)

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) GetAccount(ctx context.Context, accountID string) (*domain.SavingsAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavingsAccount), args.Error(1)
}

func (m *MockLedgerStore) ListAccounts(ctx context.Context, status domain.AccountStatus) ([]*domain.SavingsAccount, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SavingsAccount), args.Error(1)
}

func (m *MockLedgerStore) CommitPosting(ctx context.Context, account *domain.SavingsAccount, posting *domain.SavingsTransaction) error {
	args := m.Called(ctx, account, posting)
	return args.Error(0)
}

func (m *MockLedgerStore) ListTransactions(ctx context.Context, accountID string, limit int) ([]*domain.SavingsTransaction, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SavingsTransaction), args.Error(1)
}

type MockLoanStore struct {
	mock.Mock
}

func (m *MockLoanStore) CreateLoan(ctx context.Context, loan *domain.LoanApplication) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanStore) GetLoan(ctx context.Context, loanID string) (*domain.LoanApplication, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanStore) ListLoansByMember(ctx context.Context, memberID string) ([]*domain.LoanApplication, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanStore) ListLoansByStatus(ctx context.Context, statuses ...domain.LoanStatus) ([]*domain.LoanApplication, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanStore) UpdateLoan(ctx context.Context, loan *domain.LoanApplication, installments ...*domain.LoanPayment) error {
	args := m.Called(ctx, loan, installments)
	return args.Error(0)
}

func (m *MockLoanStore) GetInstallments(ctx context.Context, loanID string) ([]*domain.LoanPayment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanPayment), args.Error(1)
}

func (m *MockLoanStore) GetInstallment(ctx context.Context, loanID string, number int) (*domain.LoanPayment, error) {
	args := m.Called(ctx, loanID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanPayment), args.Error(1)
}

func (m *MockLoanStore) ListInstallmentsByMember(ctx context.Context, memberID string) ([]*domain.LoanPayment, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanPayment), args.Error(1)
}

type MockScheduleCache struct {
	mock.Mock
}

func (m *MockScheduleCache) Get(ctx context.Context, loanID string) (*domain.PaymentSchedule, bool, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.PaymentSchedule), args.Bool(1), args.Error(2)
}

func (m *MockScheduleCache) Set(ctx context.Context, schedule *domain.PaymentSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleCache) Invalidate(ctx context.Context, loanID string) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}

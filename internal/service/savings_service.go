package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/internal/repository"
	"github.com/segyhp/fund-ledger/pkg/clock"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
	"github.com/segyhp/fund-ledger/pkg/money"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// SavingsService is the only writer of savings accounts and their postings.
type SavingsService struct {
	store  repository.LedgerStore
	rules  Rules
	clock  clock.Clock
	logger *zap.Logger
}

func NewSavingsService(store repository.LedgerStore, rules Rules, clk clock.Clock, logger *zap.Logger) *SavingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SavingsService{
		store:  store,
		rules:  rules,
		clock:  clk,
		logger: logger,
	}
}

// Deposit credits the account, opening it on the first deposit.
func (s *SavingsService) Deposit(ctx context.Context, accountID string, req domain.DepositRequest) (*domain.PostingResponse, error) {
	if req.Amount < s.rules.MinDeposit {
		return nil, customError.WrapInvalidAmount(req.Amount, "below the minimum deposit")
	}

	var result *domain.PostingResponse
	err := withRetry(ctx, s.logger, "deposit", s.rules.attempts(), func() error {
		now := s.clock.Now()

		account, err := s.store.GetAccount(ctx, accountID)
		if errors.Is(err, customError.ErrNotFound) {
			account = s.openAccount(accountID)
		} else if err != nil {
			return storeErr(err)
		}
		if account.Status != domain.AccountStatusActive {
			return customError.WrapAccountNotActive(accountID, string(account.Status))
		}

		account.Balance += req.Amount
		account.TotalDeposits += req.Amount
		account.MonthlyContribution += req.Amount
		account.UpdatedAt = now

		posting := &domain.SavingsTransaction{
			ID:        uuid.New().String(),
			AccountID: accountID,
			Type:      domain.TransactionDeposit,
			Amount:    req.Amount,
			Balance:   account.Balance,
			Concept:   req.Concept,
			CreatedAt: now,
			CreatedBy: req.CreatedBy,
		}

		if err := s.store.CommitPosting(ctx, account, posting); err != nil {
			return storeErr(err)
		}
		result = &domain.PostingResponse{Transaction: posting, Balance: account.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deposit posted",
		zap.String("account_id", accountID),
		zap.Int64("amount", req.Amount),
		zap.Int64("balance", result.Balance),
	)
	return result, nil
}

func (s *SavingsService) openAccount(accountID string) *domain.SavingsAccount {
	now := s.clock.Now()
	return &domain.SavingsAccount{
		ID:                     accountID,
		MemberID:               accountID,
		MinMonthlyContribution: s.rules.MinMonthlyContribution,
		MaxWithdrawalsPerMonth: s.rules.MaxWithdrawalsPerMonth,
		Status:                 domain.AccountStatusActive,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// Withdraw debits amount plus the withdrawal fee.
func (s *SavingsService) Withdraw(ctx context.Context, accountID string, req domain.WithdrawRequest) (*domain.PostingResponse, error) {
	if req.Amount <= 0 {
		return nil, customError.WrapInvalidAmount(req.Amount, "must be positive")
	}

	fee := money.ApplyPercent(req.Amount, s.rules.WithdrawalFeePercent)
	debit := req.Amount + fee

	var result *domain.PostingResponse
	err := withRetry(ctx, s.logger, "withdraw", s.rules.attempts(), func() error {
		account, err := s.loadAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Status != domain.AccountStatusActive {
			return customError.WrapAccountNotActive(accountID, string(account.Status))
		}
		if account.WithdrawalsThisMonth >= account.MaxWithdrawalsPerMonth {
			return customError.WrapWithdrawalLimitReached(accountID, account.MaxWithdrawalsPerMonth)
		}
		if account.Balance < debit {
			return customError.WrapInsufficientBalance(accountID, account.Balance, debit)
		}

		now := s.clock.Now()
		account.Balance -= debit
		account.TotalWithdrawals += debit
		account.WithdrawalsThisMonth++
		account.UpdatedAt = now

		posting := &domain.SavingsTransaction{
			ID:        uuid.New().String(),
			AccountID: accountID,
			Type:      domain.TransactionWithdrawal,
			Amount:    req.Amount,
			Balance:   account.Balance,
			Concept:   req.Concept,
			Metadata:  domain.TransactionMetadata{Fee: fee, ApprovedBy: req.ApproverID},
			CreatedAt: now,
			CreatedBy: req.ApproverID,
		}

		if err := s.store.CommitPosting(ctx, account, posting); err != nil {
			return storeErr(err)
		}
		result = &domain.PostingResponse{Transaction: posting, Balance: account.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal posted",
		zap.String("account_id", accountID),
		zap.Int64("amount", req.Amount),
		zap.Int64("fee", fee),
		zap.Int64("balance", result.Balance),
	)
	return result, nil
}

// ApplyMonthlyFine closes the month for one account: a short contribution is
// fined, a met one extends the streak. The caller runs it once per account per
// month. The returned posting is nil when no fine was charged.
func (s *SavingsService) ApplyMonthlyFine(ctx context.Context, accountID string) (*domain.PostingResponse, error) {
	var result *domain.PostingResponse
	err := withRetry(ctx, s.logger, "monthly_fine", s.rules.attempts(), func() error {
		account, err := s.loadAccount(ctx, accountID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		var posting *domain.SavingsTransaction

		if account.MonthlyContribution < account.MinMonthlyContribution {
			fine := s.rules.MonthlyFineAmount
			charged := money.Min(fine, account.Balance)

			// TotalFines tracks what was posted; the uncovered rest stays pending.
			account.TotalFines += charged
			account.FinesPending += fine - charged
			account.ConsecutiveMonthsMet = 0

			if charged > 0 {
				account.Balance -= charged
				posting = &domain.SavingsTransaction{
					ID:        uuid.New().String(),
					AccountID: accountID,
					Type:      domain.TransactionFine,
					Amount:    charged,
					Balance:   account.Balance,
					Concept:   "monthly contribution below minimum",
					CreatedAt: now,
					CreatedBy: "system",
				}
			}
		} else {
			account.ConsecutiveMonthsMet++
		}

		account.MonthlyContribution = 0
		account.WithdrawalsThisMonth = 0
		account.UpdatedAt = now

		if err := s.store.CommitPosting(ctx, account, posting); err != nil {
			return storeErr(err)
		}
		result = &domain.PostingResponse{Transaction: posting, Balance: account.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Transaction != nil {
		s.logger.Info("monthly fine posted",
			zap.String("account_id", accountID),
			zap.Int64("amount", result.Transaction.Amount),
		)
	}
	return result, nil
}

// History returns postings newest first.
func (s *SavingsService) History(ctx context.Context, accountID string, limit int) ([]*domain.SavingsTransaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	if _, err := s.loadAccount(ctx, accountID); err != nil {
		return nil, err
	}

	transactions, err := s.store.ListTransactions(ctx, accountID, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return transactions, nil
}

func (s *SavingsService) GetAccount(ctx context.Context, accountID string) (*domain.SavingsAccount, error) {
	return s.loadAccount(ctx, accountID)
}

// ListAccounts returns the accounts in status, ordered by id.
func (s *SavingsService) ListAccounts(ctx context.Context, status domain.AccountStatus) ([]*domain.SavingsAccount, error) {
	accounts, err := s.store.ListAccounts(ctx, status)
	if err != nil {
		return nil, storeErr(err)
	}
	return accounts, nil
}

// SetAccountStatus freezes, reactivates or deactivates an account. Accounts are
// never deleted.
func (s *SavingsService) SetAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus) (*domain.SavingsAccount, error) {
	if _, err := domain.ParseAccountStatus(string(status)); err != nil {
		return nil, err
	}

	var account *domain.SavingsAccount
	err := withRetry(ctx, s.logger, "account_status", s.rules.attempts(), func() error {
		var err error
		account, err = s.loadAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Status == status {
			return nil
		}

		account.Status = status
		account.UpdatedAt = s.clock.Now()
		return storeErr(s.store.CommitPosting(ctx, account, nil))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account status changed", zap.String("account_id", accountID), zap.String("status", string(status)))
	return account, nil
}

func (s *SavingsService) loadAccount(ctx context.Context, accountID string) (*domain.SavingsAccount, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, customError.ErrNotFound) {
		return nil, customError.WrapAccountNotFound(accountID)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return account, nil
}

package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/config"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

// Rules are the fund's tunables as the services consume them.
type Rules struct {
	MinDeposit                int64
	WithdrawalFeePercent      decimal.Decimal
	MaxWithdrawalsPerMonth    int
	MinMonthlyContribution    int64
	MonthlyFineAmount         int64
	LoanInterestRate          decimal.Decimal
	MinLoanAmount             int64
	MaxLoanAmount             int64
	MinTermMonths             int
	MaxTermMonths             int
	MinCoSigners              int
	MaxCoSigners              int
	RequireCoSignerAcceptance bool
	MinSavingsForLoan         int64
	LoanToSavingsMultiplier   int64
	MaxLoanCeiling            int64
	DailyLateFee              int64
	DefaultAfterOverdue       int
	MaxRetries                int
}

func RulesFromConfig(b config.BusinessConfig) Rules {
	return Rules{
		MinDeposit:                b.MinDeposit,
		WithdrawalFeePercent:      b.GetWithdrawalFeePercent(),
		MaxWithdrawalsPerMonth:    b.MaxWithdrawalsPerMonth,
		MinMonthlyContribution:    b.MinMonthlyContribution,
		MonthlyFineAmount:         b.MonthlyFineAmount,
		LoanInterestRate:          b.GetLoanInterestRate(),
		MinLoanAmount:             b.MinLoanAmount,
		MaxLoanAmount:             b.MaxLoanAmount,
		MinTermMonths:             b.MinTermMonths,
		MaxTermMonths:             b.MaxTermMonths,
		MinCoSigners:              b.MinCoSigners,
		MaxCoSigners:              b.MaxCoSigners,
		RequireCoSignerAcceptance: b.RequireCoSignerAcceptance,
		MinSavingsForLoan:         b.MinSavingsForLoan,
		LoanToSavingsMultiplier:   b.LoanToSavingsMultiplier,
		MaxLoanCeiling:            b.MaxLoanCeiling,
		DailyLateFee:              b.DailyLateFee,
		DefaultAfterOverdue:       b.DefaultAfterOverdue,
		MaxRetries:                b.MaxRetries,
	}
}

func (r Rules) attempts() int {
	if r.MaxRetries < 1 {
		return 1
	}
	return r.MaxRetries
}

// withRetry runs one read-compute-write unit and reruns it from the read while
// the store reports a version conflict.
func withRetry(ctx context.Context, logger *zap.Logger, op string, attempts int, unit func() error) error {
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := unit()
		if !errors.Is(err, customError.ErrVersionConflict) {
			return err
		}
		logger.Debug("version conflict, retrying", zap.String("op", op), zap.Int("attempt", attempt))
	}

	logger.Warn("retries exhausted", zap.String("op", op), zap.Int("attempts", attempts))
	return customError.WrapConcurrencyConflict(op, attempts)
}

// storeErr passes business errors and version conflicts through and wraps
// everything else as a database failure.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var be *customError.BusinessError
	if errors.Is(err, customError.ErrVersionConflict) || errors.As(err, &be) {
		return err
	}
	return customError.WrapDatabaseError(err)
}

// Package scheduler runs the periodic jobs the ledger depends on: the monthly
// contribution close and the daily delinquency sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/config"
	"github.com/segyhp/fund-ledger/internal/domain"
)

type AccountCloser interface {
	ListAccounts(ctx context.Context, status domain.AccountStatus) ([]*domain.SavingsAccount, error)
	ApplyMonthlyFine(ctx context.Context, accountID string) (*domain.PostingResponse, error)
}

type DelinquencySweeper interface {
	ListOpenLoans(ctx context.Context) ([]*domain.LoanApplication, error)
	RefreshDelinquency(ctx context.Context, loanID string) (*domain.LoanApplication, error)
}

// Result summarizes one job run. Err joins every per-item failure.
type Result struct {
	Processed int
	Changed   int
	Failed    int
	Err       error
}

type Jobs struct {
	accounts AccountCloser
	loans    DelinquencySweeper
	timeout  time.Duration
	logger   *zap.Logger
}

func NewJobs(accounts AccountCloser, loans DelinquencySweeper, timeout time.Duration, logger *zap.Logger) *Jobs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Jobs{
		accounts: accounts,
		loans:    loans,
		timeout:  timeout,
		logger:   logger,
	}
}

// MonthlyClose applies the month-end fine to every active account. One failing
// account does not stop the others.
func (j *Jobs) MonthlyClose(ctx context.Context) Result {
	var res Result

	accounts, err := j.accounts.ListAccounts(ctx, domain.AccountStatusActive)
	if err != nil {
		res.Err = fmt.Errorf("list active accounts: %w", err)
		return res
	}

	for _, account := range accounts {
		if ctx.Err() != nil {
			res.Err = multierr.Append(res.Err, ctx.Err())
			break
		}

		posting, err := j.accounts.ApplyMonthlyFine(ctx, account.ID)
		res.Processed++
		if err != nil {
			res.Failed++
			res.Err = multierr.Append(res.Err, fmt.Errorf("account %s: %w", account.ID, err))
			j.logger.Error("monthly close failed", zap.String("account_id", account.ID), zap.Error(err))
			continue
		}
		if posting.Transaction != nil {
			res.Changed++
		}
	}

	j.logger.Info("monthly close finished",
		zap.Int("accounts", res.Processed),
		zap.Int("fined", res.Changed),
		zap.Int("failed", res.Failed),
	)
	return res
}

// DelinquencySweep refreshes the status of every active or overdue loan.
func (j *Jobs) DelinquencySweep(ctx context.Context) Result {
	var res Result

	loans, err := j.loans.ListOpenLoans(ctx)
	if err != nil {
		res.Err = fmt.Errorf("list open loans: %w", err)
		return res
	}

	for _, loan := range loans {
		if ctx.Err() != nil {
			res.Err = multierr.Append(res.Err, ctx.Err())
			break
		}

		refreshed, err := j.loans.RefreshDelinquency(ctx, loan.ID)
		res.Processed++
		if err != nil {
			res.Failed++
			res.Err = multierr.Append(res.Err, fmt.Errorf("loan %s: %w", loan.ID, err))
			j.logger.Error("delinquency refresh failed", zap.String("loan_id", loan.ID), zap.Error(err))
			continue
		}
		if refreshed.Status != loan.Status {
			res.Changed++
		}
	}

	j.logger.Info("delinquency sweep finished",
		zap.Int("loans", res.Processed),
		zap.Int("status_changes", res.Changed),
		zap.Int("failed", res.Failed),
	)
	return res
}

// Register schedules both jobs on c. Overlapping runs of the same job are
// skipped.
func (j *Jobs) Register(c *cron.Cron, cfg config.SchedulerConfig) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) Result
	}{
		{name: "monthly_close", spec: cfg.MonthlyCloseSpec, run: j.MonthlyClose},
		{name: "delinquency_sweep", spec: cfg.DelinquencySpec, run: j.DelinquencySweep},
	}

	skip := cron.SkipIfStillRunning(NewCronLogger(j.logger))
	for _, job := range jobs {
		job := job
		wrapped := skip(cron.FuncJob(func() { j.runOnce(job.name, job.run) }))
		if _, err := c.AddJob(job.spec, wrapped); err != nil {
			return fmt.Errorf("schedule %s job with spec %q: %w", job.name, job.spec, err)
		}
		j.logger.Info("job scheduled", zap.String("job", job.name), zap.String("spec", job.spec))
	}
	return nil
}

func (j *Jobs) runOnce(name string, run func(context.Context) Result) {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	j.logger.Info("job started", zap.String("job", name))
	if res := run(ctx); res.Err != nil {
		j.logger.Warn("job finished with errors",
			zap.String("job", name),
			zap.Int("failed", res.Failed),
			zap.Errors("errors", multierr.Errors(res.Err)),
		)
	}
}

// cronLogger routes cron's own log lines through zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func NewCronLogger(logger *zap.Logger) cron.Logger {
	return cronLogger{sugar: logger.Sugar()}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

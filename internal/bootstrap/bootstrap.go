// Package bootstrap wires storage, cache and services from configuration for
// the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/cache"
	"github.com/segyhp/fund-ledger/internal/config"
	"github.com/segyhp/fund-ledger/internal/handler"
	"github.com/segyhp/fund-ledger/internal/repository"
	"github.com/segyhp/fund-ledger/internal/repository/memory"
	"github.com/segyhp/fund-ledger/internal/repository/mongodb"
	"github.com/segyhp/fund-ledger/internal/service"
	"github.com/segyhp/fund-ledger/pkg/clock"
)

// Stores holds the storage adapters selected by STORAGE_DRIVER and the
// optional schedule cache.
type Stores struct {
	Ledger repository.LedgerStore
	Loans  repository.LoanStore
	// Cache is nil when redis is not configured.
	Cache  repository.ScheduleCache
	Checks map[string]handler.Check

	closers []func() error
}

// Open connects to the configured backends.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	s := &Stores{Checks: make(map[string]handler.Check)}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := initDB(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.Ledger = repository.NewLedgerRepository(db)
		s.Loans = repository.NewLoanRepository(db)
		s.Checks["database"] = db.PingContext
		s.closers = append(s.closers, db.Close)
		logger.Info("using postgres storage")

	case config.DriverMongo:
		if !cfg.Mongo.Transactions {
			return nil, fmt.Errorf("mongo storage requires transactions")
		}
		db, err := mongodb.Connect(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		client := db.Client()
		s.closers = append(s.closers, func() error { return client.Disconnect(context.Background()) })

		store := mongodb.NewStore(db, cfg.Mongo.Transactions)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to create mongo indexes: %w", err)
		}
		s.Ledger = store
		s.Loans = store
		s.Checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		logger.Info("using mongo storage", zap.String("database", cfg.Mongo.DBName))

	case config.DriverMemory:
		store := memory.NewStore()
		s.Ledger = store
		s.Loans = store
		logger.Warn("using in-memory storage, data is lost on restart")

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Database.Driver)
	}

	client, err := cache.NewClient(cfg.Redis.URL, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if client != nil {
		s.Cache = cache.NewScheduleCache(client, cfg.Redis.ScheduleTTL)
		s.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		s.closers = append(s.closers, client.Close)
		logger.Info("schedule cache enabled", zap.Duration("ttl", cfg.Redis.ScheduleTTL))
	}

	return s, nil
}

// Close releases every backend connection.
func (s *Stores) Close() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i]())
	}
	s.closers = nil
	return err
}

func initDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

type Services struct {
	Savings     *service.SavingsService
	Eligibility *service.EligibilityService
	Loans       *service.LoanService
	Payments    *service.PaymentService
}

func NewServices(stores *Stores, cfg config.BusinessConfig, clk clock.Clock, logger *zap.Logger) *Services {
	rules := service.RulesFromConfig(cfg)
	eligibility := service.NewEligibilityService(stores.Ledger, stores.Loans, rules, clk, logger.Named("eligibility"))

	return &Services{
		Savings:     service.NewSavingsService(stores.Ledger, rules, clk, logger.Named("savings")),
		Eligibility: eligibility,
		Loans:       service.NewLoanService(stores.Loans, eligibility, stores.Cache, rules, clk, logger.Named("loans")),
		Payments:    service.NewPaymentService(stores.Loans, stores.Cache, rules, clk, logger.Named("payments")),
	}
}

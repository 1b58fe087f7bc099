package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/config"
	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/pkg/clock"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Redis:    config.RedisConfig{Port: "6379", ScheduleTTL: time.Minute},
		Business: config.BusinessConfig{
			MinDeposit:             1000,
			WithdrawalFeePercent:   "2",
			MaxWithdrawalsPerMonth: 2,
			LoanInterestRate:       "2",
			MaxRetries:             3,
		},
	}
}

func TestOpen_Memory(t *testing.T) {
	stores, err := Open(context.Background(), memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	defer stores.Close()

	assert.NotNil(t, stores.Ledger)
	assert.NotNil(t, stores.Loans)
	assert.Nil(t, stores.Cache)
	assert.Empty(t, stores.Checks)

	services := NewServices(stores, memoryConfig().Business, clock.System{}, zap.NewNop())
	res, err := services.Savings.Deposit(context.Background(), "m1", domain.DepositRequest{Amount: 5000})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), res.Balance)
}

func TestOpen_RedisConfigured(t *testing.T) {
	cfg := memoryConfig()
	cfg.Redis.URL = "redis://localhost:6379/1"

	stores, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, stores.Cache)
	assert.Contains(t, stores.Checks, "redis")
	assert.NoError(t, stores.Close())
}

func TestOpen_Errors(t *testing.T) {
	t.Run("bad redis url", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Redis.URL = "http://not-redis"

		_, err := Open(context.Background(), cfg, zap.NewNop())
		assert.ErrorContains(t, err, "invalid redis url")
	})

	t.Run("mongo without transactions", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Database.Driver = config.DriverMongo
		cfg.Mongo = config.MongoConfig{URI: "mongodb://localhost:27017", DBName: "fund"}

		_, err := Open(context.Background(), cfg, zap.NewNop())
		assert.ErrorContains(t, err, "requires transactions")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Database.Driver = "sqlite"

		_, err := Open(context.Background(), cfg, zap.NewNop())
		assert.ErrorContains(t, err, "unknown storage driver")
	})
}

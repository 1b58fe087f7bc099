package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Mongo     MongoConfig     `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"STORAGE_DRIVER"`
	URL             string        `mapstructure:"DATABASE_URL"`
	Host            string        `mapstructure:"DATABASE_HOST"`
	Port            string        `mapstructure:"DATABASE_PORT"`
	Name            string        `mapstructure:"DATABASE_NAME"`
	User            string        `mapstructure:"DATABASE_USER"`
	Password        string        `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string        `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"MONGO_URI"`
	DBName         string        `mapstructure:"MONGO_DB_NAME"`
	ConnectTimeout time.Duration `mapstructure:"MONGO_CONNECT_TIMEOUT"`
	MaxPoolSize    uint64        `mapstructure:"MONGO_MAX_POOL_SIZE"`
	MinPoolSize    uint64        `mapstructure:"MONGO_MIN_POOL_SIZE"`
	// Transactions needs a replica set. The mongo driver refuses to start
	// without it.
	Transactions bool `mapstructure:"MONGO_TRANSACTIONS"`
}

type RedisConfig struct {
	URL         string        `mapstructure:"REDIS_URL"`
	Host        string        `mapstructure:"REDIS_HOST"`
	Port        string        `mapstructure:"REDIS_PORT"`
	Password    string        `mapstructure:"REDIS_PASSWORD"`
	DB          int           `mapstructure:"REDIS_DB"`
	ScheduleTTL time.Duration `mapstructure:"REDIS_SCHEDULE_TTL"`
}

type SchedulerConfig struct {
	MonthlyCloseSpec string        `mapstructure:"SCHEDULER_MONTHLY_CLOSE_SPEC"`
	DelinquencySpec  string        `mapstructure:"SCHEDULER_DELINQUENCY_SPEC"`
	Timezone         string        `mapstructure:"SCHEDULER_TIMEZONE"`
	JobTimeout       time.Duration `mapstructure:"SCHEDULER_JOB_TIMEOUT"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// BusinessConfig holds the fund's rules. Amounts are in the smallest currency
// unit; rates and percentages are decimal strings (2 means 2%).
type BusinessConfig struct {
	MinDeposit                int64  `mapstructure:"MIN_DEPOSIT"`
	WithdrawalFeePercent      string `mapstructure:"WITHDRAWAL_FEE_PERCENT"`
	MaxWithdrawalsPerMonth    int    `mapstructure:"MAX_WITHDRAWALS_PER_MONTH"`
	MinMonthlyContribution    int64  `mapstructure:"MIN_MONTHLY_CONTRIBUTION"`
	MonthlyFineAmount         int64  `mapstructure:"MONTHLY_FINE_AMOUNT"`
	LoanInterestRate          string `mapstructure:"LOAN_MONTHLY_INTEREST_RATE"`
	MinLoanAmount             int64  `mapstructure:"MIN_LOAN_AMOUNT"`
	MaxLoanAmount             int64  `mapstructure:"MAX_LOAN_AMOUNT"`
	MinTermMonths             int    `mapstructure:"MIN_TERM_MONTHS"`
	MaxTermMonths             int    `mapstructure:"MAX_TERM_MONTHS"`
	MinCoSigners              int    `mapstructure:"MIN_COSIGNERS"`
	MaxCoSigners              int    `mapstructure:"MAX_COSIGNERS"`
	RequireCoSignerAcceptance bool   `mapstructure:"REQUIRE_COSIGNER_ACCEPTANCE"`
	MinSavingsForLoan         int64  `mapstructure:"MIN_SAVINGS_FOR_LOAN"`
	LoanToSavingsMultiplier   int64  `mapstructure:"LOAN_TO_SAVINGS_MULTIPLIER"`
	MaxLoanCeiling            int64  `mapstructure:"MAX_LOAN_CEILING"`
	DailyLateFee              int64  `mapstructure:"DAILY_LATE_FEE"`
	DefaultAfterOverdue       int    `mapstructure:"DEFAULT_AFTER_OVERDUE_INSTALLMENTS"`
	MaxRetries                int    `mapstructure:"MAX_RETRIES"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")

	v.SetDefault("STORAGE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "fund_ledger")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "fund_ledger")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 50)
	v.SetDefault("MONGO_MIN_POOL_SIZE", 0)
	v.SetDefault("MONGO_TRANSACTIONS", true)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_SCHEDULE_TTL", "10m")

	v.SetDefault("SCHEDULER_MONTHLY_CLOSE_SPEC", "0 5 0 1 * *")
	v.SetDefault("SCHEDULER_DELINQUENCY_SPEC", "0 0 1 * * *")
	v.SetDefault("SCHEDULER_TIMEZONE", "America/Bogota")
	v.SetDefault("SCHEDULER_JOB_TIMEOUT", "30m")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MIN_DEPOSIT", 1000)
	v.SetDefault("WITHDRAWAL_FEE_PERCENT", "2")
	v.SetDefault("MAX_WITHDRAWALS_PER_MONTH", 2)
	v.SetDefault("MIN_MONTHLY_CONTRIBUTION", 50000)
	v.SetDefault("MONTHLY_FINE_AMOUNT", 5000)
	v.SetDefault("LOAN_MONTHLY_INTEREST_RATE", "2")
	v.SetDefault("MIN_LOAN_AMOUNT", 100000)
	v.SetDefault("MAX_LOAN_AMOUNT", 10000000)
	v.SetDefault("MIN_TERM_MONTHS", 1)
	v.SetDefault("MAX_TERM_MONTHS", 36)
	v.SetDefault("MIN_COSIGNERS", 2)
	v.SetDefault("MAX_COSIGNERS", 3)
	v.SetDefault("REQUIRE_COSIGNER_ACCEPTANCE", false)
	v.SetDefault("MIN_SAVINGS_FOR_LOAN", 100000)
	v.SetDefault("LOAN_TO_SAVINGS_MULTIPLIER", 10)
	v.SetDefault("MAX_LOAN_CEILING", 10000000)
	v.SetDefault("DAILY_LATE_FEE", 1000)
	v.SetDefault("DEFAULT_AFTER_OVERDUE_INSTALLMENTS", 3)
	v.SetDefault("MAX_RETRIES", 5)

	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required for the postgres driver")
		}
	case DriverMongo:
		if c.Mongo.URI == "" || c.Mongo.DBName == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DB_NAME are required for the mongo driver")
		}
		if !c.Mongo.Transactions {
			return fmt.Errorf("MONGO_TRANSACTIONS must be enabled for the mongo driver, postings and balances are written together")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of postgres, mongo, memory, got %q", c.Database.Driver)
	}

	b := c.Business
	if b.MinDeposit <= 0 {
		return fmt.Errorf("MIN_DEPOSIT must be greater than 0")
	}
	if b.MaxWithdrawalsPerMonth <= 0 {
		return fmt.Errorf("MAX_WITHDRAWALS_PER_MONTH must be greater than 0")
	}
	if b.MinLoanAmount <= 0 || b.MaxLoanAmount < b.MinLoanAmount {
		return fmt.Errorf("MIN_LOAN_AMOUNT must be positive and not above MAX_LOAN_AMOUNT")
	}
	if b.MinTermMonths < 1 || b.MaxTermMonths < b.MinTermMonths {
		return fmt.Errorf("MIN_TERM_MONTHS must be at least 1 and not above MAX_TERM_MONTHS")
	}
	if b.MinCoSigners < 0 || b.MaxCoSigners < b.MinCoSigners {
		return fmt.Errorf("MIN_COSIGNERS must not be negative nor above MAX_COSIGNERS")
	}
	if b.MaxRetries <= 0 {
		return fmt.Errorf("MAX_RETRIES must be greater than 0")
	}
	if b.DefaultAfterOverdue <= 0 {
		return fmt.Errorf("DEFAULT_AFTER_OVERDUE_INSTALLMENTS must be greater than 0")
	}

	// Validate rates
	for key, value := range map[string]string{
		"WITHDRAWAL_FEE_PERCENT":     b.WithdrawalFeePercent,
		"LOAN_MONTHLY_INTEREST_RATE": b.LoanInterestRate,
	} {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid decimal: %w", key, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", key)
		}
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Addr returns the redis address, empty when redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

// GetWithdrawalFeePercent returns the withdrawal fee as decimal
func (b BusinessConfig) GetWithdrawalFeePercent() decimal.Decimal {
	rate, _ := decimal.NewFromString(b.WithdrawalFeePercent)
	return rate
}

// GetLoanInterestRate returns the monthly loan rate as decimal
func (b BusinessConfig) GetLoanInterestRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(b.LoanInterestRate)
	return rate
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

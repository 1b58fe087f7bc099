package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/bootstrap"
	"github.com/segyhp/fund-ledger/internal/config"
	"github.com/segyhp/fund-ledger/internal/logger"
	"github.com/segyhp/fund-ledger/internal/scheduler"
	"github.com/segyhp/fund-ledger/pkg/clock"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)
	zl = zl.Named("scheduler")

	// Validate already checked the zone
	loc, _ := time.LoadLocation(cfg.Scheduler.Timezone)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	stores, err := bootstrap.Open(startCtx, cfg, zl)
	cancelStart()
	if err != nil {
		zl.Fatal("failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			zl.Error("failed to close storage", zap.Error(err))
		}
	}()

	services := bootstrap.NewServices(stores, cfg.Business, clock.System{}, zl)
	jobs := scheduler.NewJobs(services.Savings, services.Loans, cfg.Scheduler.JobTimeout, zl)

	// Initialize cron scheduler
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithLogger(scheduler.NewCronLogger(zl)),
		cron.WithChain(cron.Recover(scheduler.NewCronLogger(zl))),
	)
	if err := jobs.Register(c, cfg.Scheduler); err != nil {
		zl.Fatal("failed to schedule jobs", zap.Error(err))
	}

	// Start the scheduler
	c.Start()
	zl.Info("scheduler started", zap.String("timezone", loc.String()))

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down scheduler, waiting for running jobs")
	<-c.Stop().Done()
	zl.Info("scheduler stopped")
}

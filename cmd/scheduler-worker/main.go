package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New("scheduler-worker", slog.LevelInfo)
	log.SetDefault(logger)

	logger.Info("Starting scheduler-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without a broker the ledger still works, alerts are
	// simply not dispatched.
	var publisher services.NotificationPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, notifications will not be dispatched")
	}

	tracker := services.NewBudgetTracker(publisher)
	transactions := services.NewTransactionService(repo, tracker)
	processor := services.NewRecurringProcessor(repo, transactions, publisher)
	cleanup := services.NewCleanupService(repo, cfg.RetentionDays)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Scheduler configured",
		"interval", cfg.SchedulerInterval,
		"sweep_interval", cfg.SweepInterval,
		"retention_days", cfg.RetentionDays,
		"sqlite_db", cfg.SQLiteDBPath)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SchedulerInterval)
		defer ticker.Stop()

		// Run once at startup so a restart never delays due templates.
		runProcessor(ctx, logger, processor, time.Now())

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				runProcessor(ctx, logger, processor, now)
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		runSweep(ctx, logger, cleanup, time.Now())

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				runSweep(ctx, logger, cleanup, now)
			}
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Scheduler stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Scheduler shutdown complete")
}

func runProcessor(ctx context.Context, logger *log.Logger, processor *services.RecurringProcessor, now time.Time) {
	count, err := processor.ProcessDueTransactions(ctx, now)
	if err != nil {
		logger.Error("Recurring processing failed", "error", err)
		return
	}
	if count > 0 {
		logger.Info("Recurring processing complete", "transactions_created", count)
	}
}

func runSweep(ctx context.Context, logger *log.Logger, cleanup *services.CleanupService, now time.Time) {
	removed, err := cleanup.PurgeExpired(ctx, now)
	if err != nil {
		logger.Error("Retention sweep failed", "error", err)
		return
	}
	if removed > 0 {
		logger.Info("Retention sweep complete", "rows_removed", removed)
	}
}

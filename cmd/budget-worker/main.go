package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"simplebudget/internal/amqp"
	"simplebudget/internal/config"
	"simplebudget/internal/core"
	"simplebudget/internal/log"
	"simplebudget/internal/services"
	"simplebudget/internal/storage"
)

// The budget worker keeps budget spent amounts current. It reacts to expense
// change events as they arrive and runs a nightly full pass so lost events
// cannot leave budgets stale for good.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.SetupFromEnv()
	logger.Info("Starting budget-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	budgets := services.NewBudgetService(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nightly := func() {
		if _, err := budgets.MaterializeRecurring(ctx, core.Today().StartOfMonth()); err != nil {
			logger.Error("Recurring budget materialization failed", "error", err)
		}
		if err := budgets.RecomputeAll(ctx); err != nil {
			logger.Error("Nightly budget recompute failed", "error", err)
		} else {
			logger.Info("Nightly budget recompute complete")
		}
	}

	// Startup pass covers whatever happened while the worker was down.
	nightly()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.BudgetCronSpec, nightly); err != nil {
		logger.Error("Invalid budget cron spec", "spec", cfg.BudgetCronSpec, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Budget recompute scheduled", "cron", cfg.BudgetCronSpec)

	if cfg.AMQPURL != "" {
		go consumeEvents(ctx, cfg, budgets, logger)
	} else {
		logger.Info("AMQP disabled - running on the nightly schedule only")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	cancel()
	select {
	case <-scheduler.Stop().Done():
	case <-time.After(cfg.ShutdownTimeout):
		logger.Warn("Shutdown timeout reached")
	}

	logger.Info("Budget-worker shutdown complete")
}

// consumeEvents keeps a consumer alive, reconnecting with a flat backoff
// until the context ends.
func consumeEvents(ctx context.Context, cfg *config.Config, budgets *services.BudgetService, logger *slog.Logger) {
	handler := func(event *amqp.ExpenseChangedEvent) error {
		day, err := event.ExpenseDay()
		if err != nil {
			// Undated events still trigger a full pass for the account's
			// current month.
			day = core.Today()
		}
		return budgets.RecomputeForDay(ctx, day, event.AccountID)
	}

	for {
		if ctx.Err() != nil {
			return
		}

		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("AMQP connect failed, retrying", "error", err)
			select {
			case <-time.After(5 * time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		logger.Info("Consuming expense change events", "queue", cfg.AMQPQueue)
		err = client.ConsumeExpenseChanged(ctx, handler)
		client.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Error("Event consumption stopped, reconnecting", "error", err)

		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

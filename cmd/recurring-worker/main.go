package main

import (
	"context"
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

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.SetupFromEnv()
	logger.Info("Starting recurring-worker")

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

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	processor := services.NewRecurringProcessor(store, services.NewExpenseService(store, publisher))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := func() {
		count, err := processor.ProcessDue(ctx, core.Today())
		if err != nil {
			logger.Error("Recurring processing failed", "error", err)
			return
		}
		logger.Info("Recurring processing complete", "expenses_created", count)
	}

	// Catch up on anything missed while the worker was down.
	logger.Info("Running initial recurring expense processing")
	run()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RecurringCronSpec, run); err != nil {
		logger.Error("Invalid recurring cron spec", "spec", cfg.RecurringCronSpec, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Recurring processor scheduled", "cron", cfg.RecurringCronSpec)

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

	logger.Info("Recurring-worker shutdown complete")
}

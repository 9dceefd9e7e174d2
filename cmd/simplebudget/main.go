package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"simplebudget/internal/amqp"
	"simplebudget/internal/cache"
	"simplebudget/internal/config"
	apphttp "simplebudget/internal/http"
	"simplebudget/internal/log"
	"simplebudget/internal/services"
	"simplebudget/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.SetupFromEnv()
	logger.Info("Starting simplebudget API")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	sqlite, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqlite.Close()

	cached := cache.New(sqlite, cache.NewPool(int64(cfg.CacheFillWorkers)))
	logger.Info("Read-through cache enabled", "fill_workers", cfg.CacheFillWorkers)

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - budget worker will rely on its nightly pass")
	}

	expenses := services.NewExpenseService(cached, publisher)
	budgets := services.NewBudgetService(cached)

	server := apphttp.NewServer(cfg.Port, cfg.RateLimitPerMinute, cached, expenses, budgets, cached.Stats)

	go func() {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := sqlite.ForceFlushToDisk(shutdownCtx); err != nil {
		logger.Error("WAL checkpoint failed", "error", err)
	}

	logger.Info("Shutdown complete")
}

package main

import (
	"context"
	"errors"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg := cli.LoadConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting fintrack-worker", "queue", cfg.AMQPQueue, "journal", cfg.SQLiteDBPath)

	journal, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger.WithComponent(log.ComponentStorage).Logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite journal", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer journal.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP).Logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := cli.ShutdownContext(logger.Logger)
	defer cancel()

	w := worker.NewJournalWorker(journal, logger.Logger)
	if err := client.ConsumeRecordEvents(ctx, w.HandleRecordEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/remote"
	"fintrack/internal/remote/api"
	"fintrack/internal/remote/memory"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type DefaultFactory struct {
	logger *slog.Logger
	// dialAMQP is replaced in tests.
	dialAMQP func(url, exchange, queue string, logger *slog.Logger) (services.Publisher, io.Closer, error)
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, dialAMQP: dialAMQP}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend builds the configured backend and wraps it in a
// services.RecordService that publishes record events when AMQP is configured.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		base    remote.Backend
		closers []io.Closer
	)
	switch config.Type {
	case APIBackend:
		client, err := api.New(config.APIBaseURL,
			api.WithTimeout(config.RemoteTimeout),
			api.WithLogger(f.logger.With("component", "remote")))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize API client: %w", err)
		}
		base = client
		f.logger.Info("Initialized API backend", "base_url", config.APIBaseURL, "timeout", config.RemoteTimeout)

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger.With("component", "storage"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		base = repo
		closers = append(closers, repo)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	case MemoryBackend:
		store := memory.New()
		if config.SeedFile != "" {
			seeded, err := memory.NewFromFile(config.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("failed to seed memory backend: %w", err)
			}
			store = seeded
		}
		base = store
		f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	var publisher services.Publisher
	if config.AMQPURL != "" {
		pub, closer, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger.With("component", "amqp"))
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without record events", "error", err)
		} else {
			publisher = pub
			closers = append(closers, closer)
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	svc := services.NewRecordService(base, publisher, f.logger.With("component", "services"), closers...)
	return &BackendResult{Backend: svc, Cleanup: svc.Close}, nil
}

func dialAMQP(url, exchange, queue string, logger *slog.Logger) (services.Publisher, io.Closer, error) {
	c, err := amqp.NewClient(url, exchange, queue, logger)
	if err != nil {
		return nil, nil, err
	}
	return c, c, nil
}

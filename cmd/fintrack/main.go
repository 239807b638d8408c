package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadConfig(logger, (*config.Config).Validate)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.ShutdownContext(logger.Logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	verifier, err := identity.NewVerifier(cfg.JWTSecret, cfg.SessionCookie, logger.WithComponent(log.ComponentIdentity).Logger)
	if err != nil {
		return err
	}

	registry := store.NewRegistry(res.Backend, store.RegistryConfig{
		MaxWorkspaces: cfg.WorkspaceCacheSize,
		TTL:           cfg.WorkspaceTTL,
		LoadTimeout:   cfg.RemoteTimeout,
	}, logger.WithComponent(log.ComponentRegistry).Logger)

	// With record events on, the worker journals them into SQLITE_DB_PATH.
	var activity apphttp.ActivityLister
	if cfg.AMQPURL != "" {
		journal, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger.WithComponent(log.ComponentStorage).Logger)
		if err != nil {
			return fmt.Errorf("open activity journal: %w", err)
		}
		defer journal.Close()
		activity = journal
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Registry:           registry,
		Verifier:           verifier,
		Backend:            res.Backend,
		Activity:           activity,
		Logger:             logger,
		SignInURL:          cfg.SignInURL,
		DevSignIn:          cfg.DevSignIn,
		JWTSecret:          cfg.JWTSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		return err
	}
	if cfg.DevSignIn {
		logger.Warn("Development sign-in is enabled; do not use in production")
	}

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(registry)
	caches.Register(srv.Limiter())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend, "amqp", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		return caches.Run(gctx, sweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

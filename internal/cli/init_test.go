package cli

import (
	"context"
	"log/slog"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", log.ComponentWorker)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not applied")
	}
	if logger.Component() != log.ComponentWorker {
		t.Errorf("component = %q", logger.Component())
	}

	logger = SetupLogger("loud", log.ComponentApp)
	if logger.Enabled(context.Background(), slog.LevelDebug) || !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("invalid level should fall back to info")
	}
}

func TestLoadConfigRunsValidator(t *testing.T) {
	t.Setenv("PORT", "9090")
	var seen *config.Config
	cfg := LoadConfig(SetupLogger("error", log.ComponentApp), func(c *config.Config) error {
		seen = c
		return nil
	})
	if seen != cfg || cfg.Port != "9090" {
		t.Fatalf("validator saw %+v, got %+v", seen, cfg)
	}
}

// Package cli provides the initialization shared by cmd/purse and
// cmd/purse-render.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"purse/internal/config"
	"purse/internal/ledger"
	"purse/internal/ledger/memory"
	"purse/internal/ledger/remote"
	"purse/internal/log"
)

// SetupLogger creates the application logger at the given level and makes
// it the slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldOperation, log.OpValidate, log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenSources loads the seed store and, when TAGS_URL is set, a remote tag
// client that replaces the store for tag reads.
func OpenSources(cfg *config.Config, logger *log.Logger) (ledger.Sources, error) {
	store := memory.New()
	if cfg.SeedFile != "" {
		s, err := memory.NewFromFile(cfg.SeedFile)
		if err != nil {
			if cfg.TagsURL == "" {
				return ledger.Sources{}, fmt.Errorf("load seed: %w", err)
			}
			logger.Warn("Seed file not loaded, summary and search will be empty", log.FieldError, err)
		} else {
			store = s
		}
	}
	logger.Info("Expenditures loaded", log.FieldRecords, store.Len())

	src := ledger.Sources{Tags: store, Index: store, Summary: store, Search: store, Checkers: []ledger.HealthChecker{store}}
	if cfg.TagsURL != "" {
		client, err := remote.New(cfg.TagsURL, cfg.FetchTimeout, logger)
		if err != nil {
			return ledger.Sources{}, err
		}
		src.Tags = client
		src.Checkers = append(src.Checkers, client)
		logger.Info("Using remote tag endpoint", log.FieldURL, cfg.TagsURL)
	}
	return src, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

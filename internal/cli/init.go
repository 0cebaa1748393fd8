// Package cli provides common initialization utilities shared by
// cmd/fintrack, cmd/recurring-worker and cmd/fintrackctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default. Unknown levels fall back to info.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads .env, the environment and the process logger.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.ErrorContext(context.Background(), "Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// Ledger bundles what a command needs to operate on the ledger. Events is
// nil when AMQP is disabled or unreachable.
type Ledger struct {
	Service *services.LedgerService
	Events  *amqp.Client
	// Ready pings the backend; nil for backends that are always ready.
	Ready func(ctx context.Context) error
}

// Close releases the store and the AMQP connection.
func (l *Ledger) Close() error {
	return l.Service.Close()
}

// InitLedger opens the configured backend, seeds default categories (and
// demo transactions when SEED_DEMO is set) and connects to AMQP if
// configured. An unreachable broker is logged and tolerated.
func InitLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Ledger, error) {
	opts, err := backend.OptionsFrom(cfg)
	if err != nil {
		return nil, err
	}
	h, err := backend.Open(ctx, opts, logger.WithComponent(log.ComponentBackend).Slog())
	if err != nil {
		return nil, err
	}

	store := storage.New(h.Store, storage.WithLogger(logger.WithComponent(log.ComponentStorage).Slog()))
	if _, err := store.Seed(ctx); err != nil {
		return nil, closeOnError(h, fmt.Errorf("seed categories: %w", err))
	}
	if cfg.SeedDemo {
		if _, err := store.SeedDemo(ctx); err != nil {
			return nil, closeOnError(h, fmt.Errorf("seed demo transactions: %w", err))
		}
	}

	ledger := &Ledger{Ready: h.Ready()}
	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			ledger.Events = client
			publisher = client
		}
	}

	ledger.Service = services.NewLedgerService(store, publisher)
	return ledger, nil
}

func closeOnError(h *backend.Handle, err error) error {
	if cerr := h.Close(); cerr != nil {
		return fmt.Errorf("%w (close store: %v)", err, cerr)
	}
	return err
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned channel closes once cleanup has finished or timeout elapsed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.InfoContext(ctx, "Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.WarnContext(shutdownCtx, "Shutdown timeout reached")
		case <-finished:
			logger.InfoContext(shutdownCtx, "Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

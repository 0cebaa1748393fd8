package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)
	ctx := context.Background()

	ledger, err := cli.InitLedger(ctx, cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize ledger", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger.Service, apphttp.Options{
		CatchUpOnRead: cfg.CatchUpOnRead,
		RateLimitRPM:  cfg.RateLimitRPM,
		CacheSize:     cfg.CacheSize,
		CacheTTL:      cfg.CacheTTL,
		Logger:        logger,
		Ready:         ledger.Ready,
	})
	srv.MaxHeaderBytes = 1 << 16

	runCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorContext(shutdownCtx, "Server shutdown error", log.FieldError, err)
		}
		if err := ledger.Close(); err != nil {
			logger.ErrorContext(shutdownCtx, "Ledger close error", log.FieldError, err)
		}
	})

	logger.InfoContext(ctx, "Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"catch_up_on_read", cfg.CatchUpOnRead,
		"amqp_enabled", ledger.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.ErrorContext(ctx, "Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(runCtx, done)
	metrics := srv.Metrics()
	logger.InfoContext(ctx, "Server stopped gracefully",
		"requests", metrics.TotalRequests,
		"server_errors", metrics.ServerErrors)
}

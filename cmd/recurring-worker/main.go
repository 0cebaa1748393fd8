package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.InfoContext(context.Background(), "Starting recurring-worker", "schedule", cfg.CatchUpSchedule)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(context.Background(), "Recurring-worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.InfoContext(context.Background(), "Recurring-worker shutdown complete")
}

// run catches up on the cron schedule and, when AMQP is configured, after
// imports and new templates announced by other processes.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	ledger, err := cli.InitLedger(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize ledger: %w", err)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.ErrorContext(context.Background(), "Ledger close error", log.FieldError, err)
		}
	}()

	scheduler, err := worker.NewScheduler(ledger.Service, cfg.CatchUpSchedule)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := scheduler.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return scheduler.Stop(stopCtx)
	})

	if ledger.Events != nil {
		handler := worker.NewEventHandler(ledger.Service)
		g.Go(func() error {
			err := ledger.Events.ConsumeLedgerEvents(gctx, handler.HandleLedgerEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.InfoContext(ctx, "AMQP disabled - running on schedule only")
	}

	err = g.Wait()
	logger.InfoContext(context.Background(), "Catch-up scheduler finished", "catch_up_runs", scheduler.Runs())
	return err
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

var (
	backendFlag string
	dbPathFlag  string
	verbose     bool

	rootCmd = &cobra.Command{
		Use:   "fintrackctl",
		Short: "Operate a fintrack ledger from the terminal",
		Long: `fintrackctl manages categories, transactions and recurring templates of a
fintrack ledger directly against its store, runs recurring catch-up and
moves whole ledgers in and out as JSON backups.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", fmt.Sprintf("data backend %v; overrides DATA_BACKEND", backend.Kinds()))
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "sqlite database path; overrides SQLITE_DB_PATH")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine activity to stderr")

	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(recurringCmd())
	rootCmd.AddCommand(catchUpCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(seedCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openLedger loads configuration, applies flag overrides and opens the
// ledger. AMQP stays enabled when configured so other processes see the
// changes made here.
func openLedger(ctx context.Context) (*cli.Ledger, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	if backendFlag != "" {
		cfg.DataBackend = backendFlag
	}
	if dbPathFlag != "" {
		cfg.SQLiteDBPath = dbPathFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var out io.Writer = io.Discard
	if verbose {
		out = os.Stderr
	}
	logger := cli.SetupLogger(cfg, log.ComponentCLI, out)
	return cli.InitLedger(ctx, cfg, logger)
}

// withLedger opens the ledger for the duration of fn.
func withLedger(cmd *cobra.Command, fn func(ctx context.Context, l *cli.Ledger) error) error {
	ctx := cmd.Context()
	l, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(ctx, l)
}

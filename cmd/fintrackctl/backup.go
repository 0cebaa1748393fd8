package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
)

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole ledger as a JSON backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				data, err := l.Service.Export(ctx)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = os.Stdout.Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(out, data, 0o600); err != nil {
					return fmt.Errorf("write backup: %w", err)
				}
				fmt.Fprintln(os.Stderr, cli.SuccessStyle.Render("Backup written to "+out))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the whole ledger with a JSON backup",
		Long: `Replace categories, transactions and recurring templates with the contents
of a backup. A document that does not hold all three collections as JSON
arrays is rejected and the ledger is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				if err := l.Service.Import(ctx, data); err != nil {
					return err
				}
				fmt.Println(cli.SuccessStyle.Render("Ledger imported"))
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write default categories, and optionally demo transactions, to an empty ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				store := l.Service.Store()
				// Opening the ledger already seeded the categories.
				if !demo {
					fmt.Println(cli.InfoStyle.Render("Default categories are in place."))
					return nil
				}
				seeded, err := store.SeedDemo(ctx)
				if err != nil {
					return err
				}
				if !seeded {
					fmt.Println(cli.InfoStyle.Render("Transactions already exist; demo data not written."))
					return nil
				}
				fmt.Println(cli.SuccessStyle.Render("Demo transactions written."))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "also write sample transactions")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Manage ledger transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

type transactionFlags struct {
	txType      string
	amount      string
	category    string
	date        string
	description string
}

func (f *transactionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.txType, "type", string(core.Expense), "income or expense")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount, e.g. 12.50 or 12,50")
	cmd.Flags().StringVar(&f.category, "category", "", "category name")
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.description, "desc", "", "description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
}

func (f *transactionFlags) transaction(id string) (core.Transaction, error) {
	t, err := core.ParseTxType(f.txType)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(f.amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", f.amount, err)
	}
	date := core.DateOf(time.Now())
	if f.date != "" {
		if date, err = core.ParseDate(f.date); err != nil {
			return core.Transaction{}, err
		}
	}
	return core.Transaction{
		ID:          id,
		Type:        t,
		Amount:      amount,
		Category:    strings.TrimSpace(f.category),
		Date:        date,
		Description: strings.TrimSpace(f.description),
	}, nil
}

func listTransactionsCmd() *cobra.Command {
	var (
		year, month int
		typeFlag    string
		catchUp     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				txs, err := l.Service.ListTransactions(ctx, catchUp)
				if err != nil {
					return fmt.Errorf("failed to list transactions: %w", err)
				}
				if year > 0 {
					buckets := core.BucketByMonth(txs, year)
					txs = nil
					for _, b := range buckets {
						if month == 0 || b.Month == month {
							txs = append(txs, b.Transactions...)
						}
					}
				}
				if typeFlag != "" {
					t, err := core.ParseTxType(typeFlag)
					if err != nil {
						return err
					}
					filtered := txs[:0]
					for _, tx := range txs {
						if tx.Type == t {
							filtered = append(filtered, tx)
						}
					}
					txs = filtered
				}
				if len(txs) == 0 {
					fmt.Println(cli.InfoStyle.Render("No transactions found."))
					return nil
				}
				printTransactions(txs)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "only show this year")
	cmd.Flags().IntVar(&month, "month", 0, "only show this month of --year (1-12)")
	cmd.Flags().StringVar(&typeFlag, "type", "", "only show income or expense")
	cmd.Flags().BoolVar(&catchUp, "catchup", true, "run recurring catch-up before listing")
	return cmd
}

func printTransactions(txs []core.Transaction) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		cli.HeaderStyle.Render("Date"),
		cli.HeaderStyle.Render("Type"),
		cli.HeaderStyle.Render("Amount"),
		cli.HeaderStyle.Render("Category"),
		cli.HeaderStyle.Render("Description"),
		cli.HeaderStyle.Render("ID"))
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Date.String(),
			renderType(tx.Type),
			core.FormatAmount(core.Amount(tx.Amount)),
			tx.Category,
			tx.Description,
			cli.SubtleStyle.Render(tx.ID))
	}
}

func addTransactionCmd() *cobra.Command {
	var (
		flags  transactionFlags
		repeat bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := flags.transaction("")
			if err != nil {
				return err
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				saved, err := l.Service.AddTransaction(ctx, tx, repeat)
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("Recorded %s of %s in %s (%s)",
					saved.Type, core.FormatAmount(core.Amount(saved.Amount)), saved.Category, saved.ID)
				if repeat {
					msg += ", repeating monthly"
				}
				fmt.Println(cli.SuccessStyle.Render(msg))
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&repeat, "repeat", false, "also create a monthly recurring template")
	return cmd
}

func updateTransactionCmd() *cobra.Command {
	var flags transactionFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a transaction's fields; createdAt is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := flags.transaction(args[0])
			if err != nil {
				return err
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				if err := l.Service.UpdateTransaction(ctx, tx); err != nil {
					return err
				}
				fmt.Println(cli.SuccessStyle.Render("Transaction updated"))
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				if err := l.Service.DeleteTransaction(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println(cli.SuccessStyle.Render("Transaction deleted"))
				return nil
			})
		},
	}
}

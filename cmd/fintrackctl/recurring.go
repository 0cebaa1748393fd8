package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage monthly recurring templates",
	}

	cmd.AddCommand(listRecurringCmd())
	cmd.AddCommand(addRecurringCmd())

	return cmd
}

func listRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				tpls, err := l.Service.ListRecurring(ctx)
				if err != nil {
					return fmt.Errorf("failed to list recurring templates: %w", err)
				}
				if len(tpls) == 0 {
					fmt.Println(cli.InfoStyle.Render("No recurring templates. Add one with 'fintrackctl recurring add' or 'tx add --repeat'."))
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				defer w.Flush()

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					cli.HeaderStyle.Render("Description"),
					cli.HeaderStyle.Render("Type"),
					cli.HeaderStyle.Render("Amount"),
					cli.HeaderStyle.Render("Category"),
					cli.HeaderStyle.Render("Day"),
					cli.HeaderStyle.Render("Last generated"))
				for _, tpl := range tpls {
					last := cli.SubtleStyle.Render("never")
					if !tpl.LastGenerated.IsZero() {
						last = tpl.LastGenerated.UTC().Format(core.DateLayout)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
						tpl.Description,
						renderType(tpl.Type),
						core.FormatAmount(core.Amount(tpl.Amount)),
						tpl.Category,
						tpl.Anchor(),
						last)
				}
				return nil
			})
		},
	}
}

func addRecurringCmd() *cobra.Command {
	var (
		txType, amount, category, description string
		day                                   int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a monthly template",
		Long: `Add a monthly recurring template. Its first occurrence falls on --day
(default today) of next month, clamped to that month's last day; nothing
is generated for the current month.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := core.ParseTxType(txType)
			if err != nil {
				return err
			}
			a, err := core.ParseAmount(amount)
			if err != nil {
				return fmt.Errorf("amount %q: %w", amount, err)
			}
			tpl := core.RecurringTemplate{
				Type:        t,
				Amount:      a,
				Category:    strings.TrimSpace(category),
				Description: strings.TrimSpace(description),
				DayOfMonth:  day,
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				saved, err := l.Service.AddRecurring(ctx, tpl)
				if err != nil {
					return err
				}
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Added recurring %q on day %d (%s)",
					saved.Description, saved.Anchor(), saved.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&txType, "type", string(core.Expense), "income or expense")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 1200 or 15,99")
	cmd.Flags().StringVar(&category, "category", "", "category name")
	cmd.Flags().StringVar(&description, "desc", "", "description")
	cmd.Flags().IntVar(&day, "day", 0, "day of month (default today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func catchUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catchup",
		Short: "Generate every recurring transaction that has come due",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				generated, err := l.Service.CatchUp(ctx)
				if err != nil {
					return err
				}
				if len(generated) == 0 {
					fmt.Println(cli.InfoStyle.Render("Nothing due."))
					return nil
				}
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Generated %d transaction(s)", len(generated))))
				printTransactions(generated)
				return nil
			})
		},
	}
}

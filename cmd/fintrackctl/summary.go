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

func summaryCmd() *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expense and balance",
		Long: `Show totals for the whole ledger, or for --year (with a per-month
breakdown) or --year and --month (with per-category totals).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month != 0 && (month < 1 || month > 12) {
				return core.ErrInvalidMonth
			}
			if month != 0 && year == 0 {
				year = time.Now().Year()
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				txs, err := l.Service.ListTransactions(ctx, false)
				if err != nil {
					return err
				}

				if year == 0 {
					fmt.Println(renderSummary("All time", core.Summarize(txs)))
					return nil
				}

				cats, err := l.Service.ListCategories(ctx)
				if err != nil {
					return err
				}
				months := core.YearOverview(txs, year, cats)

				if month != 0 {
					ov := months[month-1]
					fmt.Println(renderSummary(fmt.Sprintf("%s %d", time.Month(month), year), ov.Summary))
					printCategoryTotals(ov.ByCategory)
					return nil
				}

				var all []core.Transaction
				for _, ov := range core.BucketByMonth(txs, year) {
					all = append(all, ov.Transactions...)
				}
				fmt.Println(renderSummary(fmt.Sprintf("%d", year), core.Summarize(all)))
				printMonths(months)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "summarize this year")
	cmd.Flags().IntVar(&month, "month", 0, "summarize this month (1-12)")
	return cmd
}

func renderSummary(title string, s core.Summary) string {
	balance := core.FormatAmount(s.Balance)
	if s.Balance.IsNegative() {
		balance = cli.ExpenseStyle.Render(balance)
	} else {
		balance = cli.IncomeStyle.Render(balance)
	}
	body := strings.Join([]string{
		cli.TitleStyle.Render(title),
		"Income   " + cli.IncomeStyle.Render(core.FormatAmount(s.Income)),
		"Expense  " + cli.ExpenseStyle.Render(core.FormatAmount(s.Expense)),
		"Balance  " + balance,
	}, "\n")
	return cli.BoxStyle.Render(body)
}

func printMonths(months [12]core.MonthOverview) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		cli.HeaderStyle.Render("Month"),
		cli.HeaderStyle.Render("Income"),
		cli.HeaderStyle.Render("Expense"),
		cli.HeaderStyle.Render("Balance"),
		cli.HeaderStyle.Render("Count"))
	for _, ov := range months {
		if ov.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			time.Month(ov.Month).String()[:3],
			core.FormatAmount(ov.Summary.Income),
			core.FormatAmount(ov.Summary.Expense),
			core.FormatAmount(ov.Summary.Balance),
			ov.Count)
	}
}

func printCategoryTotals(rows []core.CategoryAmount) {
	if len(rows) == 0 {
		fmt.Println(cli.InfoStyle.Render("No transactions this month."))
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\n",
		cli.HeaderStyle.Render("Category"),
		cli.HeaderStyle.Render("Type"),
		cli.HeaderStyle.Render("Total"))
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, renderType(r.Type), core.FormatAmount(r.Amount))
	}
}

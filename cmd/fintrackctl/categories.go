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
	"fintrack/internal/storage"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(renameCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(moveCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				categories, err := l.Service.ListCategories(ctx)
				if err != nil {
					return fmt.Errorf("failed to list categories: %w", err)
				}
				if typeFlag != "" {
					t, err := core.ParseTxType(typeFlag)
					if err != nil {
						return err
					}
					categories = storage.ByType(categories, t)
				}
				if len(categories) == 0 {
					fmt.Println(cli.InfoStyle.Render("No categories found. Use 'fintrackctl categories add' to create one."))
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				defer w.Flush()

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					cli.HeaderStyle.Render("ID"),
					cli.HeaderStyle.Render("Name"),
					cli.HeaderStyle.Render("Type"),
					cli.HeaderStyle.Render("System"))
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					strings.Repeat("-", 8),
					strings.Repeat("-", 20),
					strings.Repeat("-", 7),
					strings.Repeat("-", 6))
				for _, c := range categories {
					system := ""
					if c.System {
						system = cli.SubtleStyle.Render("yes")
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, renderType(c.Type), system)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "only show income or expense categories")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := core.ParseTxType(typeFlag)
			if err != nil {
				return err
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				c, err := l.Service.CreateCategory(ctx, args[0], t)
				if err != nil {
					return err
				}
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Created %s category %q (%s)", c.Type, c.Name, c.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", string(core.Expense), "income or expense")
	return cmd
}

func renameCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a category; existing transactions keep the old label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				if err := l.Service.RenameCategory(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Println(cli.SuccessStyle.Render("Category renamed"))
				return nil
			})
		},
	}
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category; transactions labelled with it are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				if err := l.Service.DeleteCategory(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println(cli.SuccessStyle.Render("Category deleted"))
				return nil
			})
		},
	}
}

func moveCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <over-id>",
		Short: "Move a category to the position of another of the same type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				if err := l.Service.MoveCategory(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Println(cli.SuccessStyle.Render("Category moved"))
				return nil
			})
		},
	}
}

func renderType(t core.TxType) string {
	if t == core.Income {
		return cli.IncomeStyle.Render(string(t))
	}
	return cli.ExpenseStyle.Render(string(t))
}

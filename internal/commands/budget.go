package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetlens/internal/core"
)

func newBudgetCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "budget",
		Aliases: []string{"budgets"},
		Short:   "Set budgets and check their status",
	}

	set := &cobra.Command{
		Use:   "set CATEGORY AMOUNT",
		Short: "Create or replace the budget of a category for --month/--year",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.resolveCategory(ctx, args[0])
			if err != nil {
				return err
			}
			amount, err := core.ParseBudgetAmount(args[1])
			if err != nil {
				return core.Invalid("amount", err)
			}

			b := core.Budget{CategoryID: c.ID, Amount: amount, Month: a.month, Year: a.year}
			existing, err := a.backend().Budgets.ListByMonth(ctx, a.month, a.year)
			if err != nil {
				return err
			}
			for _, e := range existing {
				if e.CategoryID == c.ID {
					b.ID = e.ID
				}
			}

			saved, err := a.backend().Budgets.Save(ctx, b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Budget for %s %04d-%02d set to %s (id %d)\n",
				c.Name, saved.Year, saved.Month, formatMoney(saved.Amount), saved.ID)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.backend().Budgets.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted budget %d\n", id)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status [CATEGORY]",
		Short: "Show budget status for one category or every budgeted category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var rows []core.CategoryStatus

			if len(args) == 1 {
				c, err := a.resolveCategory(ctx, args[0])
				if err != nil {
					return err
				}
				st, err := a.backend().Budgets.Evaluate(ctx, c.ID, a.month, a.year)
				if err != nil {
					return err
				}
				rows = []core.CategoryStatus{{CategoryID: c.ID, CategoryName: c.Name, Month: a.month, Year: a.year, Status: st}}
			} else {
				var err error
				if rows, err = a.backend().Budgets.EvaluateMonth(ctx, a.month, a.year); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTitle(fmt.Sprintf("BUDGETS  %04d-%02d", a.year, a.month)))
			if len(rows) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("  No budgets configured."))
				return nil
			}
			fmt.Fprint(out, renderTable(Table{
				Headers: []string{"Category", "Status", "Budget", "Spent", "Remaining", "Used", ""},
				Rows:    statusRows(rows),
			}))
			return nil
		},
	}

	cmd.AddCommand(set, del, status)
	return cmd
}

func statusRows(rows []core.CategoryStatus) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		st := r.Status
		if st.Status == core.StatusNoBudget {
			out = append(out, []string{r.CategoryName, formatStatus(st.Status), "-", "-", "-", "-", ""})
			continue
		}
		out = append(out, []string{
			r.CategoryName,
			formatStatus(st.Status),
			formatMoney(st.Budget),
			formatMoney(st.Spent),
			formatMoney(st.Remaining),
			formatPercent(st.Utilization),
			utilizationBar(st.Utilization),
		})
	}
	return out
}

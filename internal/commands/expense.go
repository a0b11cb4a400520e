package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"budgetlens/internal/core"
	"budgetlens/internal/report"
)

type expenseFlags struct {
	date  string
	notes string
	id    int64
}

// candidate builds an expense from AMOUNT CATEGORY and the flags. The date
// defaults to today.
func (a *app) candidate(cmd *cobra.Command, args []string, f expenseFlags) (core.Expense, core.Category, error) {
	amount, err := core.ParseAmount(args[0])
	if err != nil {
		return core.Expense{}, core.Category{}, core.Invalid("amount", err)
	}
	c, err := a.resolveCategory(cmd.Context(), args[1])
	if err != nil {
		return core.Expense{}, core.Category{}, err
	}
	date := core.Today(a.opts.Now())
	if f.date != "" {
		if date, err = core.ParseDate(f.date); err != nil {
			return core.Expense{}, core.Category{}, core.Invalid("date", err)
		}
	}
	return core.Expense{ID: f.id, Amount: amount, CategoryID: c.ID, Date: date, Notes: strings.TrimSpace(f.notes)}, c, nil
}

func newExpenseCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expense",
		Aliases: []string{"expenses", "exp"},
		Short:   "Record, list and check expenses",
	}

	var addFlags expenseFlags
	add := &cobra.Command{
		Use:   "add AMOUNT CATEGORY",
		Short: "Record an expense; it is stored even when it breaks the budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, c, err := a.candidate(cmd, args, addFlags)
			if err != nil {
				return err
			}
			res, err := a.backend().Expenses.Save(cmd.Context(), e)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recorded %s in %s on %s (id %d)\n", formatMoney(res.Expense.Amount), c.Name, res.Expense.Date, res.Expense.ID)
			if !res.Advisory.Accepted {
				fmt.Fprintln(out, warnStyle.Render("Warning: "+res.Advisory.Message))
			}
			if res.Status.Status != "" && res.Status.Status != core.StatusNoBudget {
				fmt.Fprintf(out, "Budget status: %s, %s of %s used (%s)\n",
					formatStatus(res.Status.Status), formatMoney(res.Status.Spent),
					formatMoney(res.Status.Budget), formatPercent(res.Status.Utilization))
			}
			return nil
		},
	}
	add.Flags().StringVarP(&addFlags.date, "date", "d", "", "Date, YYYY-MM-DD (default today)")
	add.Flags().StringVarP(&addFlags.notes, "notes", "n", "", "Free-text notes")
	add.Flags().Int64Var(&addFlags.id, "id", 0, "Update the expense with this id instead of adding one")

	var checkFlags expenseFlags
	check := &cobra.Command{
		Use:   "check AMOUNT CATEGORY",
		Short: "Tell whether an expense would fit its budget without recording it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, c, err := a.candidate(cmd, args, checkFlags)
			if err != nil {
				return err
			}
			res, err := a.backend().Budgets.ValidateAgainstBudget(cmd.Context(), e)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case !res.Accepted:
				fmt.Fprintln(out, warnStyle.Render(res.Message))
			case res.Message == core.MsgNoBudget:
				fmt.Fprintf(out, "OK: %s for %s\n", res.Message, c.Name)
			default:
				fmt.Fprintf(out, "OK: %s fits the %s budget\n", formatMoney(e.Amount), c.Name)
			}
			return nil
		},
	}
	check.Flags().StringVarP(&checkFlags.date, "date", "d", "", "Date, YYYY-MM-DD (default today)")
	check.Flags().Int64Var(&checkFlags.id, "id", 0, "Treat the candidate as an edit of this expense")

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the expenses of --month/--year, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var filter int64
			if category != "" {
				c, err := a.resolveCategory(ctx, category)
				if err != nil {
					return err
				}
				filter = c.ID
			}

			expenses, err := a.backend().Expenses.ListByMonth(ctx, a.month, a.year)
			if err != nil {
				return err
			}
			lookup, err := a.backend().Categories.Lookup(ctx)
			if err != nil {
				return err
			}

			var total core.Money
			rows := make([][]string, 0, len(expenses)+2)
			for _, e := range expenses {
				if filter != 0 && e.CategoryID != filter {
					continue
				}
				total = total.Add(e.Amount)
				rows = append(rows, []string{
					e.Date.String(),
					report.CategoryName(lookup, e.CategoryID),
					formatMoney(e.Amount),
					e.Notes,
					strconv.FormatInt(e.ID, 10),
				})
			}
			rows = append(rows, []string{"---"}, []string{"TOTAL", "", formatMoney(total), "", ""})

			fmt.Fprint(cmd.OutOrStdout(), renderTable(Table{
				Title:   fmt.Sprintf("Expenses %04d-%02d", a.year, a.month),
				Headers: []string{"Date", "Category", "Amount", "Notes", "ID"},
				Rows:    rows,
			}))
			return nil
		},
	}
	list.Flags().StringVarP(&category, "category", "c", "", "Only this category (name or id)")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.backend().Expenses.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, check, list, del)
	return cmd
}

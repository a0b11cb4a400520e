package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"budgetlens/internal/core"
)

func newCategoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories", "cat"},
		Short:   "List, add and delete categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := a.backend().Categories.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(cats))
			for _, c := range cats {
				rows = append(rows, []string{c.Name, c.Color, strconv.FormatInt(c.ID, 10)})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(Table{
				Title:   "Categories",
				Headers: []string{"Name", "Color", "ID"},
				Rows:    rows,
			}))
			return nil
		},
	}

	var color string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.backend().Categories.Save(cmd.Context(), core.Category{Name: args[0], Color: color})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %q (id %d, %s)\n", c.Name, c.ID, c.Color)
			return nil
		},
	}
	add.Flags().StringVarP(&color, "color", "c", "#F7DC6F", "Hex color, #RRGGBB")

	del := &cobra.Command{
		Use:   "delete CATEGORY",
		Short: "Delete a category and its budgets; its expenses are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.backend().Categories.Delete(cmd.Context(), c.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %q\n", c.Name)
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

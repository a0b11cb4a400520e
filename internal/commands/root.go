// Package commands implements the budgetctl CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"budgetlens/internal/backend"
	"budgetlens/internal/config"
	"budgetlens/internal/core"
)

// Options wires the CLI to its environment.
type Options struct {
	// Open is called once before any subcommand runs.
	Open   func(ctx context.Context) (*backend.BackendResult, error)
	Config *config.Config
	Now    func() time.Time
	// Sheets overrides the Google Sheets exporter built from Config.
	Sheets func(ctx context.Context) (SheetsExporter, error)
}

type app struct {
	opts  Options
	res   *backend.BackendResult
	month int
	year  int
}

// NewRootCommand builds the budgetctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Config == nil {
		opts.Config = config.Defaults()
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Manage categories, budgets and expenses",
		Long:          "budgetctl records expenses, tracks them against monthly budgets and exports monthly reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.res != nil {
				return nil
			}
			res, err := a.opts.Open(cmd.Context())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			a.res = res
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.res == nil || a.res.Cleanup == nil {
				return nil
			}
			err := a.res.Cleanup()
			a.res = nil
			return err
		},
	}

	now := opts.Now()
	root.PersistentFlags().IntVarP(&a.month, "month", "m", int(now.Month()), "Month (1-12)")
	root.PersistentFlags().IntVarP(&a.year, "year", "y", now.Year(), "Year")

	root.AddCommand(
		newCategoryCommand(a),
		newBudgetCommand(a),
		newExpenseCommand(a),
		newReportCommand(a),
		newExportCommand(a),
	)
	return root
}

// Execute runs the command tree and maps errors to an exit code.
func Execute(ctx context.Context, root *cobra.Command) int {
	if err := root.ExecuteContext(ctx); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(root.ErrOrStderr(), "invalid %s: %v\n", ve.Field, ve.Err)
			return 2
		}
		fmt.Fprintf(root.ErrOrStderr(), "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) backend() *backend.Backend {
	return a.res.Backend
}

// resolveCategory accepts an id or a case-insensitive name.
func (a *app) resolveCategory(ctx context.Context, arg string) (core.Category, error) {
	arg = strings.TrimSpace(arg)
	cats, err := a.backend().Categories.List(ctx)
	if err != nil {
		return core.Category{}, err
	}
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		for _, c := range cats {
			if c.ID == id {
				return c, nil
			}
		}
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, arg) {
			return c, nil
		}
	}
	return core.Category{}, core.Invalid("category", fmt.Errorf("%w: %q", core.ErrUnknownCategory, arg))
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

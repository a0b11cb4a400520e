package worker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Task is a long-running worker component.
type Task interface {
	Run(ctx context.Context) error
}

// RunAll runs every task until ctx is done or one of them fails, in which
// case the others are cancelled and the first error is returned.
func RunAll(ctx context.Context, tasks ...Task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		if t == nil {
			continue
		}
		g.Go(func() error {
			return t.Run(ctx)
		})
	}
	err := g.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "Worker stopped with error", "error", err)
	}
	return err
}

package main

import (
	"context"
	"os"
	"time"

	"budgetlens/internal/backend"
	"budgetlens/internal/cli"
	"budgetlens/internal/commands"
	"budgetlens/internal/config"
	"budgetlens/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	// Keep the terminal clean unless something is wrong.
	logger := cli.SetupLogger(log.ComponentCLI, "warn")
	if cfg.LogLevel == "debug" {
		logger = cli.SetupLogger(log.ComponentCLI, cfg.LogLevel)
	}

	root := commands.NewRootCommand(commands.Options{
		Config: cfg,
		Now:    time.Now,
		Open: func(ctx context.Context) (*backend.BackendResult, error) {
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			bc, err := backend.FromAppConfig(cfg)
			if err != nil {
				return nil, err
			}
			return backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).CreateBackend(ctx, bc)
		},
	})
	os.Exit(commands.Execute(context.Background(), root))
}

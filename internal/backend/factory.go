package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgetlens/internal/amqp"
	"budgetlens/internal/ports"
	"budgetlens/internal/report"
	"budgetlens/internal/services"
	"budgetlens/internal/storage"
	"budgetlens/internal/storage/memory"
)

type DefaultFactory struct {
	logger *slog.Logger
	dial   func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, dial: amqp.NewClient}
}

// CreateBackend opens the store, optionally connects the alert publisher
// and wires the services. AMQP failures are logged, not fatal.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(config)
	if err != nil {
		return nil, err
	}

	var (
		alerts    *amqp.Client
		publisher services.AlertPublisher
	)
	if config.AMQPURL != "" {
		alerts, err = f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without budget alerts", "error", err)
			alerts = nil
		} else {
			// Only a non-nil client goes into the interface.
			publisher = alerts
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	b := Assemble(store, publisher)
	b.Alerts = alerts

	if config.SeedDefaults {
		n, err := b.Categories.SeedDefaults(ctx)
		if err != nil {
			_ = b.Expenses.Close()
			return nil, fmt.Errorf("seed default categories: %w", err)
		}
		if n > 0 {
			f.logger.Info("Seeded default categories", "count", n)
		}
	}

	f.logger.Info("Initialized backend", "type", config.Type, "amqp_enabled", alerts != nil)
	return &BackendResult{Backend: b, Cleanup: b.Expenses.Close}, nil
}

func (f *DefaultFactory) openStore(config Config) (ports.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		return repo, nil
	case MemoryBackend:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// Assemble wires services over an already open store. publisher may be nil.
func Assemble(store ports.Store, publisher services.AlertPublisher) *Backend {
	categories := services.NewCategoryService(store)
	budgets := services.NewBudgetService(store)
	expenses := services.NewExpenseService(store, budgets, publisher)
	return &Backend{
		Store:      store,
		Categories: categories,
		Budgets:    budgets,
		Expenses:   expenses,
		Reports:    report.NewBuilder(expenses, categories),
	}
}

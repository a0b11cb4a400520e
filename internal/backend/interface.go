// Package backend opens the configured record store and assembles the
// services every binary shares.
package backend

import (
	"context"

	"budgetlens/internal/amqp"
	"budgetlens/internal/ports"
	"budgetlens/internal/report"
	"budgetlens/internal/services"
)

// Backend is the wired application core.
type Backend struct {
	Store      ports.Store
	Categories *services.CategoryService
	Budgets    *services.BudgetService
	Expenses   *services.ExpenseService
	Reports    *report.Builder

	// Alerts is nil when AMQP is disabled or unreachable.
	Alerts *amqp.Client
}

type CleanupFunc func() error

type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresDSN  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// SeedDefaults inserts the default categories into an empty store.
	SeedDefaults bool
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

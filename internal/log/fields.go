package log

import (
	"sort"

	"budgetlens/internal/core"
)

// Field names shared by every component.
const (
	FieldComponent    = "component"
	FieldSubcomponent = "subcomponent"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldQuery        = "query"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldUserAgent    = "user_agent"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldYear         = "year"
	FieldMonth        = "month"
	FieldCategoryID   = "category_id"
	FieldExpenseID    = "expense_id"
	FieldBudgetID     = "budget_id"
	FieldAmountCents  = "amount_cents"
	FieldStatus       = "budget_status"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentCLI       = "cli"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentReport    = "report"
	ComponentNotify    = "notify"
	ComponentRateLimit = "rate_limit"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpEvaluate = "evaluate"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Fields collects structured attributes with a builder API.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	if op != "" {
		f[FieldOperation] = op
	}
	return f
}

func (f Fields) WithPeriod(month, year int) Fields {
	f[FieldMonth] = month
	f[FieldYear] = year
	return f
}

func (f Fields) WithExpense(e core.Expense) Fields {
	if e.ID != 0 {
		f[FieldExpenseID] = e.ID
	}
	f[FieldCategoryID] = e.CategoryID
	f[FieldAmountCents] = e.Amount.Cents
	return f.WithPeriod(e.Date.Month(), e.Date.Year())
}

func (f Fields) WithBudget(b core.Budget) Fields {
	if b.ID != 0 {
		f[FieldBudgetID] = b.ID
	}
	f[FieldCategoryID] = b.CategoryID
	f[FieldAmountCents] = b.Amount.Cents
	return f.WithPeriod(b.Month, b.Year)
}

func (f Fields) WithBudgetStatus(categoryID int64, s core.BudgetStatus) Fields {
	f[FieldCategoryID] = categoryID
	f[FieldStatus] = string(s.Status)
	return f
}

func (f Fields) WithHTTPRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f Fields) WithHTTPResponse(statusCode int, durationMs int64) Fields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value args in key order.
func (f Fields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}

package core

import "fmt"

// Status classifies spending against a monthly budget.
type Status string

const (
	StatusOK       Status = "OK"
	StatusWarning  Status = "WARNING"
	StatusExceeded Status = "EXCEEDED"
	StatusNoBudget Status = "NO_BUDGET"
)

// WarningThreshold is the utilization percentage at which a budget warns.
const WarningThreshold = 90

// MsgNoBudget is the advisory message when no budget covers the month.
const MsgNoBudget = "no budget configured"

// MsgWithinBudget is the advisory message when the expense fits.
const MsgWithinBudget = "Budget validation passed"

// BudgetStatus is derived on every request and never stored.
type BudgetStatus struct {
	Status      Status  `json:"status" yaml:"status"`
	Budget      Money   `json:"budget" yaml:"budget"`
	Spent       Money   `json:"spent" yaml:"spent"`
	Remaining   Money   `json:"remaining" yaml:"remaining"`
	Utilization float64 `json:"utilization" yaml:"utilization"`
}

// CategoryStatus pairs a status with the budget it was computed for.
type CategoryStatus struct {
	CategoryID   int64        `json:"category_id" yaml:"category_id"`
	CategoryName string       `json:"category_name" yaml:"category_name"`
	Month        int          `json:"month" yaml:"month"`
	Year         int          `json:"year" yaml:"year"`
	Status       BudgetStatus `json:"status" yaml:"status"`
}

// AdvisoryResult tells the caller whether a candidate expense fits its
// budget. It never blocks persistence.
type AdvisoryResult struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
	Overage  Money  `json:"overage"`
}

// NoBudgetStatus is reported when no budget exists for a category-month.
func NoBudgetStatus() BudgetStatus {
	return BudgetStatus{Status: StatusNoBudget}
}

// EvaluateBudget classifies spent against a budget amount. First match wins:
// negative remaining is EXCEEDED, utilization >= 90% is WARNING, else OK.
// A zero budget has utilization 100% when anything was spent and is never
// EXCEEDED.
func EvaluateBudget(budget, spent Money) BudgetStatus {
	st := BudgetStatus{
		Budget:    budget,
		Spent:     spent,
		Remaining: budget.Sub(spent),
	}
	if budget.Cents == 0 {
		if spent.Cents > 0 {
			st.Utilization = 100
			st.Status = StatusWarning
		} else {
			st.Status = StatusOK
		}
		return st
	}
	st.Utilization = float64(spent.Cents) / float64(budget.Cents) * 100
	switch {
	case st.Remaining.Cents < 0:
		st.Status = StatusExceeded
	case reachesPercent(spent.Cents, budget.Cents, WarningThreshold):
		st.Status = StatusWarning
	default:
		st.Status = StatusOK
	}
	return st
}

// reachesPercent reports spent*100 >= budget*pct for budget > 0 without
// forming either product.
func reachesPercent(spent, budget, pct int64) bool {
	q, r := budget/100, budget%100
	return spent >= q*pct+(r*pct+99)/100
}

// CheckProjected decides whether adding candidate to current stays within
// budget.
func CheckProjected(budget, current, candidate Money) AdvisoryResult {
	projected := current.Add(candidate)
	if projected.Cents > budget.Cents {
		over := projected.Sub(budget)
		return AdvisoryResult{
			Accepted: false,
			Message:  fmt.Sprintf("This expense will exceed the budget by $%s", over),
			Overage:  over,
		}
	}
	return AdvisoryResult{Accepted: true, Message: MsgWithinBudget}
}

// NoBudgetAdvisory is the accepted result when no budget applies.
func NoBudgetAdvisory() AdvisoryResult {
	return AdvisoryResult{Accepted: true, Message: MsgNoBudget}
}

// BudgetAlert is published whenever a save leaves a category-month in
// WARNING or EXCEEDED.
type BudgetAlert struct {
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Month        int     `json:"month"`
	Year         int     `json:"year"`
	Status       Status  `json:"status"`
	Budget       Money   `json:"budget"`
	Spent        Money   `json:"spent"`
	Remaining    Money   `json:"remaining"`
	Utilization  float64 `json:"utilization"`
	ExpenseID    int64   `json:"expense_id"`
}

// Alerting reports whether a status should raise a BudgetAlert.
func (s Status) Alerting() bool {
	return s == StatusWarning || s == StatusExceeded
}

// Subject renders a short human summary, used as the email subject.
func (a BudgetAlert) Subject() string {
	return fmt.Sprintf("[%s] %s budget %04d-%02d: %.1f%% used", a.Status, a.CategoryName, a.Year, a.Month, a.Utilization)
}

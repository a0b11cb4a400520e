package services

import (
	"context"
	"errors"
	"testing"

	"budgetlens/internal/core"
	"budgetlens/internal/ports"
)

func TestEvaluateNoBudget(t *testing.T) {
	f := newFixture(t)
	f.spend(t, 5000, 1)

	st, err := f.budgets.Evaluate(context.Background(), f.food.ID, 6, 2024)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if st.Status != core.StatusNoBudget || st.Spent.Cents != 0 || st.Budget.Cents != 0 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestEvaluateOnlyCountsItsMonth(t *testing.T) {
	f := newFixture(t)
	f.budget(t, 10000)
	f.spend(t, 3000, 1)
	if _, err := f.store.SaveExpense(context.Background(), core.Expense{
		Amount: core.Cents(50000), CategoryID: f.food.ID, Date: core.NewDate(2024, 5, 31),
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	st, err := f.budgets.Evaluate(context.Background(), f.food.ID, 6, 2024)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if st.Status != core.StatusOK || st.Spent.Cents != 3000 || st.Remaining.Cents != 7000 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestEvaluateStoreFailureIsError(t *testing.T) {
	f := newFixture(t)
	f.store.FailWith = errors.New("disk gone")
	st, err := f.budgets.Evaluate(context.Background(), f.food.ID, 6, 2024)
	if err == nil {
		t.Fatalf("expected error, got status %+v", st)
	}
	if st.Status == core.StatusNoBudget {
		t.Fatalf("store failure must not look like NO_BUDGET")
	}
}

func TestEvaluateZeroBudget(t *testing.T) {
	f := newFixture(t)
	f.budget(t, 0)
	st, _ := f.budgets.Evaluate(context.Background(), f.food.ID, 6, 2024)
	if st.Status != core.StatusOK {
		t.Fatalf("zero budget with no spend = %s, want OK", st.Status)
	}
	f.spend(t, 1, 1)
	st, _ = f.budgets.Evaluate(context.Background(), f.food.ID, 6, 2024)
	if st.Status != core.StatusWarning || st.Remaining.Cents != -1 {
		t.Fatalf("zero budget with spend = %+v, want WARNING", st)
	}
}

func TestValidateAgainstBudgetNoBudget(t *testing.T) {
	f := newFixture(t)
	adv, err := f.budgets.ValidateAgainstBudget(context.Background(), core.Expense{
		Amount: core.Cents(100), CategoryID: f.food.ID, Date: core.NewDate(2024, 6, 1),
	})
	if err != nil || !adv.Accepted || adv.Message != core.MsgNoBudget {
		t.Fatalf("unexpected advisory %+v %v", adv, err)
	}
}

func TestBudgetSaveRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.budget(t, 10000)

	cases := []struct {
		name string
		b    core.Budget
		want error
	}{
		{"duplicate", core.Budget{CategoryID: f.food.ID, Amount: core.Cents(1), Month: 6, Year: 2024}, core.ErrDuplicateBudget},
		{"negative", core.Budget{CategoryID: f.food.ID, Amount: core.Cents(-1), Month: 7, Year: 2024}, core.ErrInvalidAmount},
		{"month", core.Budget{CategoryID: f.food.ID, Amount: core.Cents(1), Month: 0, Year: 2024}, core.ErrInvalidMonth},
		{"unknown category", core.Budget{CategoryID: 404, Amount: core.Cents(1), Month: 7, Year: 2024}, core.ErrUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.budgets.Save(ctx, tc.b); !errors.Is(err, tc.want) || !core.IsValidation(err) {
				t.Fatalf("Save() = %v, want %v", err, tc.want)
			}
		})
	}

	// The original budget is untouched by the rejected duplicate.
	st, _ := f.budgets.Evaluate(ctx, f.food.ID, 6, 2024)
	if st.Budget.Cents != 10000 {
		t.Fatalf("budget overwritten: %+v", st)
	}
}

func TestEvaluateMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rent, _ := f.categories.Save(ctx, core.Category{Name: "Rent", Color: "#000000"})
	if _, err := f.categories.Save(ctx, core.Category{Name: "Fun", Color: "#111111"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.budget(t, 10000)
	if _, err := f.budgets.Save(ctx, core.Budget{CategoryID: rent.ID, Amount: core.Cents(50000), Month: 6, Year: 2024}); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.spend(t, 9500, 3)

	statuses, err := f.budgets.EvaluateMonth(ctx, 6, 2024)
	if err != nil {
		t.Fatalf("evaluate month: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %+v", statuses)
	}
	if statuses[0].CategoryName != "Food" || statuses[0].Status.Status != core.StatusWarning {
		t.Fatalf("unexpected first status %+v", statuses[0])
	}
	if statuses[1].CategoryName != "Rent" || statuses[1].Status.Status != core.StatusOK {
		t.Fatalf("unexpected second status %+v", statuses[1])
	}
}

func TestBudgetDelete(t *testing.T) {
	f := newFixture(t)
	b := f.budget(t, 100)
	if err := f.budgets.Delete(context.Background(), b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.budgets.Delete(context.Background(), b.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestEvaluateAcrossSavesUpToTheLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.budget(t, 20000)

	steps := []struct {
		cents     int64
		status    core.Status
		spent     string
		remaining string
	}{
		{5000, core.StatusOK, "50.00", "150.00"},
		{8000, core.StatusOK, "130.00", "70.00"},
		// Spending exactly the budget is 100% utilization, past the warning line.
		{7000, core.StatusWarning, "200.00", "0.00"},
		{1, core.StatusExceeded, "200.01", "-0.01"},
	}
	for i, step := range steps {
		res := f.spend(t, step.cents, i+1)
		st, err := f.budgets.Evaluate(ctx, f.food.ID, 6, 2024)
		if err != nil {
			t.Fatalf("step %d: Evaluate: %v", i, err)
		}
		if st.Status != step.status || st.Spent.String() != step.spent || st.Remaining.String() != step.remaining {
			t.Fatalf("step %d: got %s spent=%s remaining=%s, want %s spent=%s remaining=%s",
				i, st.Status, st.Spent, st.Remaining, step.status, step.spent, step.remaining)
		}
		if res.Status.Status != st.Status {
			t.Fatalf("step %d: save reported %s, evaluate %s", i, res.Status.Status, st.Status)
		}
	}
}

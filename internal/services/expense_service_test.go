package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"budgetlens/internal/core"
	"budgetlens/internal/ports"
	"budgetlens/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []core.BudgetAlert
	err    error
	closed bool
}

func (p *recordingPublisher) PublishBudgetAlert(_ context.Context, a core.BudgetAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

type fixture struct {
	store      *memory.Store
	categories *CategoryService
	budgets    *BudgetService
	expenses   *ExpenseService
	pub        *recordingPublisher
	food       core.Category
}

var fixedNow = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	f := &fixture{
		store:      store,
		categories: NewCategoryService(store),
		budgets:    NewBudgetService(store),
		pub:        pub,
	}
	f.expenses = NewExpenseService(store, f.budgets, pub).WithClock(func() time.Time { return fixedNow })

	food, err := f.categories.Save(context.Background(), core.Category{Name: "Food", Color: "#FF6B6B"})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	f.food = food
	return f
}

func (f *fixture) budget(t *testing.T, cents int64) core.Budget {
	t.Helper()
	b, err := f.budgets.Save(context.Background(), core.Budget{CategoryID: f.food.ID, Amount: core.Cents(cents), Month: 6, Year: 2024})
	if err != nil {
		t.Fatalf("save budget: %v", err)
	}
	return b
}

func (f *fixture) spend(t *testing.T, cents int64, day int) SaveResult {
	t.Helper()
	res, err := f.expenses.Save(context.Background(), core.Expense{
		Amount: core.Cents(cents), CategoryID: f.food.ID, Date: core.NewDate(2024, 6, day),
	})
	if err != nil {
		t.Fatalf("save expense: %v", err)
	}
	return res
}

func TestExpenseSaveAdvisoryNeverBlocks(t *testing.T) {
	f := newFixture(t)
	f.budget(t, 10000)
	f.spend(t, 8000, 1)

	res := f.spend(t, 5000, 2)
	if res.Advisory.Accepted {
		t.Fatalf("expected advisory rejection")
	}
	if !strings.Contains(res.Advisory.Message, "30.00") {
		t.Fatalf("message %q should mention overage", res.Advisory.Message)
	}
	if res.Expense.ID == 0 {
		t.Fatalf("expense should be persisted despite advisory")
	}
	if res.Status.Status != core.StatusExceeded {
		t.Fatalf("status = %s, want EXCEEDED", res.Status.Status)
	}
	if len(f.pub.alerts) != 1 || f.pub.alerts[0].Status != core.StatusExceeded {
		t.Fatalf("expected one EXCEEDED alert, got %+v", f.pub.alerts)
	}
}

func TestExpenseSaveWarningAlert(t *testing.T) {
	f := newFixture(t)
	f.budget(t, 10000)

	if res := f.spend(t, 5000, 1); res.Status.Status != core.StatusOK || len(f.pub.alerts) != 0 {
		t.Fatalf("expected OK without alert, got %s / %d alerts", res.Status.Status, len(f.pub.alerts))
	}
	res := f.spend(t, 4000, 2)
	if res.Status.Status != core.StatusWarning {
		t.Fatalf("status = %s, want WARNING", res.Status.Status)
	}
	if len(f.pub.alerts) != 1 || f.pub.alerts[0].CategoryName != "Food" {
		t.Fatalf("expected one alert for Food, got %+v", f.pub.alerts)
	}
}

func TestExpenseSaveValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		e    core.Expense
		want error
	}{
		{"zero amount", core.Expense{Amount: core.Cents(0), CategoryID: f.food.ID, Date: core.NewDate(2024, 6, 1)}, core.ErrInvalidAmount},
		{"future", core.Expense{Amount: core.Cents(1), CategoryID: f.food.ID, Date: core.NewDate(2024, 6, 21)}, core.ErrFutureDate},
		{"unknown category", core.Expense{Amount: core.Cents(1), CategoryID: 999, Date: core.NewDate(2024, 6, 1)}, core.ErrUnknownCategory},
		{"no date", core.Expense{Amount: core.Cents(1), CategoryID: f.food.ID}, core.ErrMissingDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.expenses.Save(ctx, tc.e)
			if !errors.Is(err, tc.want) || !core.IsValidation(err) {
				t.Fatalf("Save() = %v, want validation %v", err, tc.want)
			}
		})
	}

	if list, _ := f.expenses.ListByMonth(ctx, 6, 2024); len(list) != 0 {
		t.Fatalf("invalid expenses must not be stored, got %d", len(list))
	}
}

func TestExpenseSaveTodayAccepted(t *testing.T) {
	f := newFixture(t)
	if res := f.spend(t, 100, 20); res.Status.Status != core.StatusNoBudget {
		t.Fatalf("status = %s, want NO_BUDGET", res.Status.Status)
	}
}

func TestExpenseEditDoesNotDoubleCount(t *testing.T) {
	f := newFixture(t)
	f.budget(t, 10000)
	res := f.spend(t, 9000, 1)

	edited := res.Expense
	edited.Amount = core.Cents(9500)
	adv, err := f.budgets.ValidateAgainstBudget(context.Background(), edited)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !adv.Accepted {
		t.Fatalf("editing 90.00 to 95.00 under a 100.00 budget should be accepted: %+v", adv)
	}

	out, err := f.expenses.Save(context.Background(), edited)
	if err != nil {
		t.Fatalf("save edit: %v", err)
	}
	if out.Status.Spent.Cents != 9500 {
		t.Fatalf("spent = %d, want 9500", out.Status.Spent.Cents)
	}
}

func TestExpenseSaveNilPublisher(t *testing.T) {
	f := newFixture(t)
	f.expenses = NewExpenseService(f.store, f.budgets, nil).WithClock(func() time.Time { return fixedNow })
	f.budget(t, 100)
	if res := f.spend(t, 500, 1); res.Status.Status != core.StatusExceeded {
		t.Fatalf("status = %s", res.Status.Status)
	}
}

func TestExpenseSavePublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	f.budget(t, 100)
	if res := f.spend(t, 500, 1); res.Expense.ID == 0 {
		t.Fatalf("expense should be saved even when publishing fails")
	}
}

func TestExpenseConcurrentSaves(t *testing.T) {
	f := newFixture(t)
	f.budget(t, 100000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.expenses.Save(context.Background(), core.Expense{
				Amount: core.Cents(1000), CategoryID: f.food.ID, Date: core.NewDate(2024, 6, 10),
			})
		}()
	}
	wg.Wait()

	total, err := f.expenses.TotalFor(context.Background(), f.food.ID, 6, 2024)
	if err != nil || total.Cents != 20000 {
		t.Fatalf("total = %v, %v; want 20000", total, err)
	}
	if n := f.expenses.locks.size(); n != 0 {
		t.Fatalf("locks leaked: %d", n)
	}
}

func TestExpenseListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.spend(t, 100, 1)
	f.spend(t, 200, 15)

	list, err := f.expenses.ListByMonth(ctx, 6, 2024)
	if err != nil || len(list) != 2 || list[0].Date.Day() != 15 {
		t.Fatalf("list by month: %+v %v", list, err)
	}
	if _, err := f.expenses.ListByMonth(ctx, 13, 2024); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("invalid month: %v", err)
	}

	total, err := f.expenses.MonthTotal(ctx, 6, 2024)
	if err != nil || total.Cents != 300 {
		t.Fatalf("month total = %v %v", total, err)
	}

	if _, err := f.expenses.ListByDateRange(ctx, core.NewDate(2024, 6, 10), core.NewDate(2024, 6, 1)); !errors.Is(err, core.ErrInvalidRange) {
		t.Fatalf("inverted range: %v", err)
	}
	rng, err := f.expenses.ListByDateRange(ctx, core.NewDate(2024, 6, 10), core.NewDate(2024, 6, 30))
	if err != nil || len(rng) != 1 {
		t.Fatalf("range: %+v %v", rng, err)
	}
}

func TestExpenseDelete(t *testing.T) {
	f := newFixture(t)
	res := f.spend(t, 100, 1)
	if err := f.expenses.Delete(context.Background(), res.Expense.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.expenses.Get(context.Background(), res.Expense.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
}

func TestExpenseServiceClose(t *testing.T) {
	f := newFixture(t)
	if err := f.expenses.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !f.pub.closed {
		t.Fatalf("publisher should be closed")
	}

	t.Run("nil components", func(t *testing.T) {
		service := &ExpenseService{}
		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestSaveLogsStructuredFields(t *testing.T) {
	f := newFixture(t)
	buf := captureLogs(t)

	b := f.budget(t, 10000)
	f.spend(t, 9500, 3)

	out := buf.String()
	for _, want := range []string{
		"msg=\"Budget saved\" amount_cents=10000 budget_id=" + strconv.FormatInt(b.ID, 10),
		"msg=\"Expense recorded\" amount_cents=9500",
		"msg=\"Budget threshold reached\" budget_status=WARNING",
		"month=6",
		"year=2024",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "Expense recorded"); n != 1 {
		t.Fatalf("expense save logged %d times:\n%s", n, out)
	}
}

func TestPublishFailureIsLoggedAsError(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	buf := captureLogs(t)

	f.budget(t, 100)
	res := f.spend(t, 500, 1)
	if res.Expense.ID == 0 {
		t.Fatal("expense should be stored when publishing fails")
	}
	out := buf.String()
	for _, want := range []string{"level=ERROR", `msg="Failed to publish budget alert"`, "error=\"broker down\"", "operation=evaluate"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q:\n%s", want, out)
		}
	}
}

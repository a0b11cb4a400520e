package services

import (
	"context"
	"errors"
	"testing"

	"budgetlens/internal/core"
	"budgetlens/internal/storage/memory"
)

func TestCategorySaveNormalizes(t *testing.T) {
	svc := NewCategoryService(memory.New())
	c, err := svc.Save(context.Background(), core.Category{Name: "  Travel ", Color: "a1b2c3"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.Name != "Travel" || c.Color != "#A1B2C3" || c.ID == 0 {
		t.Fatalf("unexpected category %+v", c)
	}
}

func TestCategorySaveRejects(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(memory.New())
	if _, err := svc.Save(ctx, core.Category{Name: "Travel", Color: "#000000"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cases := []struct {
		name string
		c    core.Category
		want error
	}{
		{"duplicate", core.Category{Name: "Travel", Color: "#111111"}, core.ErrDuplicateCategory},
		{"empty", core.Category{Name: "", Color: "#111111"}, core.ErrEmptyName},
		{"color", core.Category{Name: "Gifts", Color: "red"}, core.ErrInvalidColor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Save(ctx, tc.c); !errors.Is(err, tc.want) || !core.IsValidation(err) {
				t.Fatalf("Save() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(memory.New())

	n, err := svc.SeedDefaults(ctx)
	if err != nil || n != 8 {
		t.Fatalf("seed = %d, %v; want 8", n, err)
	}
	n, err = svc.SeedDefaults(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second seed = %d, %v; want 0", n, err)
	}

	lookup, err := svc.Lookup(ctx)
	if err != nil || len(lookup) != 8 {
		t.Fatalf("lookup: %d %v", len(lookup), err)
	}
}

func TestCategoryDeleteKeepsExpenses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.budget(t, 100)
	res := f.spend(t, 50, 1)

	if err := f.categories.Delete(ctx, f.food.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := f.categories.Exists(ctx, f.food.ID); ok {
		t.Fatalf("category should be gone")
	}
	if _, err := f.expenses.Get(ctx, res.Expense.ID); err != nil {
		t.Fatalf("expense should survive: %v", err)
	}
	st, err := f.budgets.Evaluate(ctx, f.food.ID, 6, 2024)
	if err != nil || st.Status != core.StatusNoBudget {
		t.Fatalf("budget should be gone: %+v %v", st, err)
	}
}

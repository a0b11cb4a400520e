package storage

import (
	"context"
	"fmt"
	"log/slog"

	"budgetlens/internal/core"
)

func (r *Repository) SaveCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == 0 {
		err := r.queryRow(ctx,
			`INSERT INTO categories (name, color) VALUES (?, ?) RETURNING id`,
			c.Name, c.Color).Scan(&c.ID)
		if err != nil {
			return core.Category{}, fmt.Errorf("insert category: %w", translate(err))
		}
		logSaved(ctx, "Category", c.ID, "name", c.Name)
		return c, nil
	}

	if err := r.execAffecting(ctx,
		`UPDATE categories SET name = ?, color = ? WHERE id = ?`,
		c.Name, c.Color, c.ID); err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	logSaved(ctx, "Category", c.ID, "name", c.Name)
	return c, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.queryRow(ctx, `SELECT id, name, color FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, translate(err))
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.query(ctx, `SELECT id, name, color FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *Repository) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// DeleteCategory relies on ON DELETE CASCADE for budgets; expenses carry no
// foreign key and are left orphaned.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	if err := r.execAffecting(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	slog.DebugContext(ctx, "Category deleted", "id", id)
	return nil
}

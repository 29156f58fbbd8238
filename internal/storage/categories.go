package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneyman/internal/core"
)

const categoryColumns = "id, user_id, name, icon, color, type, created_at"

func (r *Repository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+categoryColumns+`
        FROM categories
        WHERE id = ?
    `, id)
	return scanCategory(row)
}

// ListCategories returns the categories visible to a user: the global
// set (user_id NULL) plus the user's own.
func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+categoryColumns+`
        FROM categories
        WHERE user_id IS NULL OR user_id = ?
        ORDER BY type, name
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c       core.Category
		userID  sql.NullString
		catType string
	)
	err := row.Scan(&c.ID, &userID, &c.Name, &c.Icon, &c.Color, &catType, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrCategoryNotFound
		}
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.UserID = userID.String
	c.Type = core.CategoryType(catType)
	return c, nil
}

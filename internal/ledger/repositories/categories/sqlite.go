// Package categories persists transaction categories in the save-file database.
package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, c *models.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, parent_id) VALUES (?, ?, ?)`,
		c.ID, c.Name, nullable(c.ParentID))
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	var parent sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, parent_id FROM categories WHERE name = ? ORDER BY parent_id IS NOT NULL LIMIT 1`, name).
		Scan(&c.ID, &c.Name, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %q: %w", name, err)
	}
	c.ParentID = parent.String
	return &c, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, parent_id FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var result []models.Category
	for rows.Next() {
		var c models.Category
		var parent sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		c.ParentID = parent.String
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

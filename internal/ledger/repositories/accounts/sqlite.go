// Package accounts persists ledger accounts in the save-file database.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/models"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, a *models.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, currency, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Currency, a.Description, a.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT id, name, currency, description, created_at FROM accounts WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT id, name, currency, description, created_at FROM accounts WHERE name = ?`, name)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg string) (*models.Account, error) {
	var a models.Account
	var created int64
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Name, &a.Currency, &a.Description, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %q: %w", arg, err)
	}
	a.CreatedAt = time.Unix(created, 0)
	return &a, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency, description, created_at FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var result []models.Account
	for rows.Next() {
		var a models.Account
		var created int64
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.Description, &created); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		a.CreatedAt = time.Unix(created, 0)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) SetDescription(ctx context.Context, id, description string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET description = ? WHERE id = ?`, description, id)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return expectOne(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

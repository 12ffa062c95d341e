// Package transactions persists ledger transactions in the save-file database.
//
// Amounts are stored as decimal strings so no precision is lost to floating
// point; sums are computed in Go with shopspring/decimal.
package transactions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/models"
	"github.com/shopspring/decimal"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `SELECT id, account_id, category_id, amount, description, occurred_at FROM transactions`

func (r *SQLiteRepository) Create(ctx context.Context, t *models.Transaction) error {
	var category any
	if t.CategoryID != "" {
		category = t.CategoryID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, account_id, category_id, amount, description, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, category, t.Amount.String(), t.Description, t.OccurredAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return r.list(ctx, selectColumns+` WHERE account_id = ? ORDER BY occurred_at, id`, accountID)
}

func (r *SQLiteRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	return r.list(ctx, selectColumns+` WHERE occurred_at >= ? AND occurred_at < ? ORDER BY occurred_at, id`,
		from.Unix(), to.Unix())
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select transactions: %w", err)
	}
	defer rows.Close()

	var result []models.Transaction
	for rows.Next() {
		var (
			t        models.Transaction
			category sql.NullString
			amount   string
			occurred int64
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &category, &amount, &t.Description, &occurred); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s has invalid amount %q: %w", t.ID, amount, err)
		}
		t.CategoryID = category.String
		t.OccurredAt = time.Unix(occurred, 0)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Balances(ctx context.Context) ([]models.Balance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.currency, t.amount
		FROM accounts a LEFT JOIN transactions t ON t.account_id = a.id
		ORDER BY a.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select balances: %w", err)
	}
	defer rows.Close()

	var result []models.Balance
	for rows.Next() {
		var (
			b      models.Balance
			amount sql.NullString
		)
		if err := rows.Scan(&b.AccountID, &b.Account, &b.Currency, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}

		n := len(result)
		if n == 0 || result[n-1].AccountID != b.AccountID {
			b.Amount = decimal.Zero
			result = append(result, b)
			n++
		}
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("account %s has invalid amount %q: %w", b.AccountID, amount.String, err)
			}
			result[n-1].Amount = result[n-1].Amount.Add(d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

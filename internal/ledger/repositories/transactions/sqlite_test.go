package transactions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccounts(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO accounts (id, name, currency, created_at) VALUES
			('a1', 'cash', 'EUR', 0),
			('a2', 'bank', 'EUR', 0),
			('a3', 'unused', 'USD', 0);
		INSERT INTO categories (id, name) VALUES ('c1', 'food');`)
	require.NoError(t, err)
}

func tx(id, account, amount string, at int64) *models.Transaction {
	return &models.Transaction{
		ID:         id,
		AccountID:  account,
		Amount:     decimal.RequireFromString(amount),
		OccurredAt: time.Unix(at, 0),
	}
}

func TestCreateAndListByAccount(t *testing.T) {
	db := setupDB(t)
	seedAccounts(t, db)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	groceries := tx("t2", "a1", "-12.35", 200)
	groceries.CategoryID = "c1"
	groceries.Description = "market"
	require.NoError(t, r.Create(ctx, groceries))
	require.NoError(t, r.Create(ctx, tx("t1", "a1", "100", 100)))
	require.NoError(t, r.Create(ctx, tx("t3", "a2", "5", 50)))

	list, err := r.ListByAccount(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].ID)
	assert.Empty(t, list[0].CategoryID)
	assert.Equal(t, "t2", list[1].ID)
	assert.Equal(t, "c1", list[1].CategoryID)
	assert.Equal(t, "market", list[1].Description)
	assert.True(t, list[1].Amount.Equal(decimal.RequireFromString("-12.35")))
	assert.Equal(t, int64(200), list[1].OccurredAt.Unix())
}

func TestCreate_UnknownAccountFails(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	err := r.Create(context.Background(), tx("t1", "nope", "1", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert transaction")
}

func TestListBetween(t *testing.T) {
	db := setupDB(t)
	seedAccounts(t, db)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, tx("t1", "a1", "1", 100)))
	require.NoError(t, r.Create(ctx, tx("t2", "a2", "2", 200)))
	require.NoError(t, r.Create(ctx, tx("t3", "a1", "3", 300)))

	list, err := r.ListBetween(ctx, time.Unix(100, 0), time.Unix(300, 0))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].ID)
	assert.Equal(t, "t2", list[1].ID)
}

func TestBalances_ExactDecimalSums(t *testing.T) {
	db := setupDB(t)
	seedAccounts(t, db)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, tx("t1", "a1", "0.1", 1)))
	require.NoError(t, r.Create(ctx, tx("t2", "a1", "0.2", 2)))
	require.NoError(t, r.Create(ctx, tx("t3", "a2", "-7.5", 3)))

	balances, err := r.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 3)

	got := map[string]string{}
	for _, b := range balances {
		got[b.Account] = b.Amount.String()
	}
	assert.Equal(t, map[string]string{"bank": "-7.5", "cash": "0.3", "unused": "0"}, got)
	assert.Equal(t, "bank", balances[0].Account)
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	seedAccounts(t, db)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, tx("t1", "a1", "1", 1)))
	require.NoError(t, r.Delete(ctx, "t1"))

	err := r.Delete(ctx, "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong rows affected count: 0")
}

func TestList_InvalidStoredAmount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "account_id", "category_id", "amount", "description", "occurred_at"}).
		AddRow("t1", "a1", nil, "twelve", "", int64(0))
	mock.ExpectQuery("SELECT id, account_id").WithArgs("a1").WillReturnRows(rows)

	_, err = NewSQLiteRepository(db).ListByAccount(context.Background(), "a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `transaction t1 has invalid amount "twelve"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

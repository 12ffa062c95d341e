package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	store, err := dbx.Create(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Delete(ctx) })

	s := NewService(store)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestService_AccountsAndBalances(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	cash, err := s.AddAccount(ctx, " cash ", "eur", "wallet")
	require.NoError(t, err)
	assert.Equal(t, "cash", cash.Name)
	assert.Equal(t, "EUR", cash.Currency)

	_, err = s.AddAccount(ctx, "bank", "EUR", "")
	require.NoError(t, err)

	_, err = s.AddCategory(ctx, "food", "")
	require.NoError(t, err)

	_, err = s.AddTransaction(ctx, "cash", "food", decimal.RequireFromString("-3.10"), "coffee", time.Time{})
	require.NoError(t, err)
	_, err = s.AddTransaction(ctx, "cash", "", decimal.RequireFromString("50"), "", time.Unix(10, 0))
	require.NoError(t, err)

	txs, err := s.Transactions(ctx, "cash")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(10), txs[0].OccurredAt.Unix())
	assert.Equal(t, int64(1700000000), txs[1].OccurredAt.Unix())

	balances, err := s.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "bank", balances[0].Account)
	assert.True(t, balances[0].Amount.IsZero())
	assert.Equal(t, "cash", balances[1].Account)
	assert.Equal(t, "46.9", balances[1].Amount.String())

	list, err := s.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestService_Validation(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.AddAccount(ctx, "  ", "EUR", "")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = s.AddAccount(ctx, "cash", "EUR", "")
	require.NoError(t, err)
	_, err = s.AddAccount(ctx, "cash", "USD", "")
	assert.ErrorIs(t, err, ErrAccountExists)

	_, err = s.AddTransaction(ctx, "nope", "", decimal.NewFromInt(1), "", time.Time{})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = s.AddCategory(ctx, "groceries", "food")
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = s.Transactions(ctx, "nope")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.ErrorIs(t, s.DeleteAccount(ctx, "nope"), ErrAccountNotFound)
}

func TestService_FailedOperationLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.AddAccount(ctx, "cash", "EUR", "")
	require.NoError(t, err)

	_, err = s.AddTransaction(ctx, "cash", "missing", decimal.NewFromInt(5), "", time.Time{})
	require.ErrorIs(t, err, ErrCategoryNotFound)

	txs, err := s.Transactions(ctx, "cash")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestService_CategoriesNest(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	food, err := s.AddCategory(ctx, "food", "")
	require.NoError(t, err)
	groceries, err := s.AddCategory(ctx, "groceries", "food")
	require.NoError(t, err)
	assert.Equal(t, food.ID, groceries.ParentID)

	_, err = s.AddCategory(ctx, "food", "")
	assert.ErrorIs(t, err, ErrCategoryExists)

	list, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.AddAccount(ctx, "cash", "EUR", "")
	require.NoError(t, err)
	_, err = s.AddTransaction(ctx, "cash", "", decimal.NewFromInt(1), "", time.Time{})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, "cash"))

	balances, err := s.Balances(ctx)
	require.NoError(t, err)
	assert.Empty(t, balances)
}

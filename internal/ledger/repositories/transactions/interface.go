package transactions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/models"
)

// Repository describes CRUD and query operations for transactions.
type Repository interface {
	Create(ctx context.Context, t *models.Transaction) error

	// ListByAccount returns the account's transactions, oldest first.
	ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)

	// ListBetween returns transactions of all accounts with from <= occurred_at < to.
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error)

	// Balances sums amounts per account; accounts without transactions have zero.
	Balances(ctx context.Context) ([]models.Balance, error)

	Delete(ctx context.Context, id string) error
}

package accounts

import (
	"context"

	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/models"
)

// Repository describes CRUD operations for accounts.
type Repository interface {
	Create(ctx context.Context, a *models.Account) error

	// GetByID returns (nil, nil) when no account has this id.
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// GetByName returns (nil, nil) when no account has this name.
	GetByName(ctx context.Context, name string) (*models.Account, error)

	List(ctx context.Context) ([]models.Account, error)
	SetDescription(ctx context.Context, id, description string) error

	// Delete removes the account together with its transactions.
	Delete(ctx context.Context, id string) error
}

package categories

import (
	"context"

	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/models"
)

// Repository describes CRUD operations for categories.
type Repository interface {
	Create(ctx context.Context, c *models.Category) error

	// GetByName returns (nil, nil) when no category has this name.
	GetByName(ctx context.Context, name string) (*models.Category, error)

	List(ctx context.Context) ([]models.Category, error)

	// Delete removes the category; children and transactions lose the reference.
	Delete(ctx context.Context, id string) error
}

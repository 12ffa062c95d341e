// Package ledger implements the bookkeeping operations on an open save.
// Every operation runs in exactly one store transaction.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ledgerkeeper/internal/dbx"
	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/models"
	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/repositories/accounts"
	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/repositories/categories"
	"github.com/dmitrijs2005/ledgerkeeper/internal/ledger/repositories/transactions"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxRunner runs fn inside one database transaction. Both *dbx.Store and the
// application session satisfy it.
type TxRunner interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
}

type Service struct {
	db  TxRunner
	now func() time.Time
}

func NewService(db TxRunner) *Service {
	return &Service{db: db, now: time.Now}
}

func (s *Service) AddAccount(ctx context.Context, name, currency, description string) (models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Account{}, ErrEmptyName
	}

	a := models.Account{
		ID:          uuid.NewString(),
		Name:        name,
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
		Description: description,
		CreatedAt:   s.now(),
	}

	err := s.db.Transaction(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := accounts.NewSQLiteRepository(tx)
		existing, err := repo.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", ErrAccountExists, name)
		}
		return repo.Create(ctx, &a)
	})
	if err != nil {
		return models.Account{}, err
	}
	return a, nil
}

func (s *Service) Accounts(ctx context.Context) ([]models.Account, error) {
	var list []models.Account
	err := s.db.Transaction(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = accounts.NewSQLiteRepository(tx).List(ctx)
		return err
	})
	return list, err
}

// DeleteAccount removes the account and every transaction on it.
func (s *Service) DeleteAccount(ctx context.Context, name string) error {
	return s.db.Transaction(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := accounts.NewSQLiteRepository(tx)
		a, err := findAccount(ctx, repo, name)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, a.ID)
	})
}

// AddCategory creates a category, optionally under an existing parent.
func (s *Service) AddCategory(ctx context.Context, name, parent string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, ErrEmptyName
	}

	c := models.Category{ID: uuid.NewString(), Name: name}
	err := s.db.Transaction(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := categories.NewSQLiteRepository(tx)
		existing, err := repo.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", ErrCategoryExists, name)
		}
		if parent != "" {
			p, err := findCategory(ctx, repo, parent)
			if err != nil {
				return err
			}
			c.ParentID = p.ID
		}
		return repo.Create(ctx, &c)
	})
	if err != nil {
		return models.Category{}, err
	}
	return c, nil
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	err := s.db.Transaction(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = categories.NewSQLiteRepository(tx).List(ctx)
		return err
	})
	return list, err
}

// AddTransaction books amount on the named account. category may be empty;
// a zero at means now.
func (s *Service) AddTransaction(ctx context.Context, account, category string, amount decimal.Decimal, description string, at time.Time) (models.Transaction, error) {
	if at.IsZero() {
		at = s.now()
	}
	t := models.Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Description: description,
		OccurredAt:  at,
	}

	err := s.db.Transaction(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		a, err := findAccount(ctx, accounts.NewSQLiteRepository(tx), account)
		if err != nil {
			return err
		}
		t.AccountID = a.ID

		if category != "" {
			c, err := findCategory(ctx, categories.NewSQLiteRepository(tx), category)
			if err != nil {
				return err
			}
			t.CategoryID = c.ID
		}
		return transactions.NewSQLiteRepository(tx).Create(ctx, &t)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

// Transactions lists the transactions of the named account, oldest first.
func (s *Service) Transactions(ctx context.Context, account string) ([]models.Transaction, error) {
	var list []models.Transaction
	err := s.db.Transaction(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		a, err := findAccount(ctx, accounts.NewSQLiteRepository(tx), account)
		if err != nil {
			return err
		}
		list, err = transactions.NewSQLiteRepository(tx).ListByAccount(ctx, a.ID)
		return err
	})
	return list, err
}

func (s *Service) Balances(ctx context.Context) ([]models.Balance, error) {
	var list []models.Balance
	err := s.db.Transaction(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = transactions.NewSQLiteRepository(tx).Balances(ctx)
		return err
	})
	return list, err
}

func findAccount(ctx context.Context, repo accounts.Repository, name string) (*models.Account, error) {
	a, err := repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	return a, nil
}

func findCategory(ctx context.Context, repo categories.Repository, name string) (*models.Category, error) {
	c, err := repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	return c, nil
}

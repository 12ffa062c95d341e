// Package models defines the ledger records stored inside a save file.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a place money lives in: a wallet, a bank account, a card.
type Account struct {
	ID          string
	Name        string
	Currency    string
	Description string
	CreatedAt   time.Time
}

// Category groups transactions. Categories may nest one level per parent.
type Category struct {
	ID   string
	Name string

	// ParentID is empty for top-level categories.
	ParentID string
}

// Transaction is a single signed movement of money on an account.
// Negative amounts are expenses, positive ones income.
type Transaction struct {
	ID          string
	AccountID   string
	CategoryID  string // empty when uncategorised
	Amount      decimal.Decimal
	Description string
	OccurredAt  time.Time
}

// Balance is the sum of all transactions on one account.
type Balance struct {
	AccountID string
	Account   string
	Currency  string
	Amount    decimal.Decimal
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a persisted statement row. Immutable once stored; a new
// import deletes and recreates the owner's full set.
type Transaction struct {
	ID          string              `json:"id"`
	UserID      int64               `json:"user_id"`
	Type        string              `json:"type"`
	Product     string              `json:"product,omitempty"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt time.Time           `json:"completed_at"`
	Description string              `json:"description,omitempty"`
	Amount      decimal.NullDecimal `json:"amount"`
	Fee         decimal.NullDecimal `json:"fee"`
	Currency    string              `json:"currency"`
	State       string              `json:"state"`
	Balance     decimal.NullDecimal `json:"balance"`
	CreatedAt   time.Time           `json:"created_at"`
}

// CategorizedTransaction joins a transaction to exactly one category.
// At most one row exists per transaction.
type CategorizedTransaction struct {
	ID            int64     `json:"id"`
	TransactionID string    `json:"transaction_id"`
	CategoryID    int64     `json:"category_id"`
	UserID        int64     `json:"user_id"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TransactionWithCategory is the read model for transaction listings:
// a transaction plus its categorization, when one exists.
type TransactionWithCategory struct {
	Transaction
	CategoryID   *int64 `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ImportResult reports the outcome of a full CSV reimport.
type ImportResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

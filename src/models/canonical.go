// backend/src/models/canonical.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalTransaction is the unified, intermediate representation of a
// statement row after normalization. The parser is responsible for populating
// every field it can from the source file; only rows that passed the
// acceptance rule (state COMPLETED, both dates parsed) become canonical.
type CanonicalTransaction struct {
	// Process-generated identifier, assigned by the parser's IDGenerator.
	// Not derived from row content: re-importing the identical file yields
	// fresh identifiers, because an import always replaces prior data.
	ID string `json:"id"`

	Type        string    `json:"type"`
	Product     string    `json:"product,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Description string    `json:"description,omitempty"`
	Currency    string    `json:"currency"`
	State       string    `json:"state"`

	// Numeric fields are null when the source value failed to parse.
	// A bad number alone does not reject a row.
	Amount  decimal.NullDecimal `json:"amount"`
	Fee     decimal.NullDecimal `json:"fee"`
	Balance decimal.NullDecimal `json:"balance"`

	// Adjusted is set when the rent-adjustment rule rewrote this row.
	Adjusted bool `json:"adjusted,omitempty"`

	// Extra holds source columns with no internal counterpart. Unknown
	// headers pass through unchanged for forward compatibility.
	Extra map[string]string `json:"extra,omitempty"`
}

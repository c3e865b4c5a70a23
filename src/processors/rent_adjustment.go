// backend/src/processors/rent_adjustment.go
package processors

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/models"
)

// adjustedMarker is prepended to the description of a rewritten row so the
// UI and the mapping step can detect the adjustment.
const adjustedMarker = "⚠️"

// AdjustedSuffix closes the rewritten description.
const AdjustedSuffix = "(adjusted)"

// RentAdjustmentRule rewrites one recurring transaction pattern: when a row's
// description (trimmed, case-insensitive) equals the target and its amount
// equals the target amount, the amount is replaced with the adjusted value
// and the description is marked. Everything else passes through unchanged.
// Targets come from configuration, not code.
type RentAdjustmentRule struct {
	targetDescription string
	targetAmount      decimal.Decimal
	adjustedAmount    decimal.Decimal
}

// NewRentAdjustmentRule creates the rule from its configured constants.
func NewRentAdjustmentRule(targetDescription string, targetAmount, adjustedAmount decimal.Decimal) *RentAdjustmentRule {
	return &RentAdjustmentRule{
		targetDescription: strings.TrimSpace(targetDescription),
		targetAmount:      targetAmount,
		adjustedAmount:    adjustedAmount,
	}
}

// Apply returns the row, rewritten when both match conditions hold.
// Pure and row-local: no I/O, no mutation of the input.
func (r *RentAdjustmentRule) Apply(tx models.CanonicalTransaction) models.CanonicalTransaction {
	if !tx.Amount.Valid {
		return tx
	}
	if !strings.EqualFold(strings.TrimSpace(tx.Description), r.targetDescription) {
		return tx
	}
	if !tx.Amount.Decimal.Equal(r.targetAmount) {
		return tx
	}

	out := tx
	out.Amount = decimal.NewNullDecimal(r.adjustedAmount)
	out.Description = fmt.Sprintf("%s %s %s", adjustedMarker, strings.TrimSpace(tx.Description), AdjustedSuffix)
	out.Adjusted = true
	return out
}

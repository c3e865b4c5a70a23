package models

import "time"

// Category types. Exactly one system category has CategoryTypeUncategorized;
// it acts as the default for descriptions without a mapping.
const (
	CategoryTypeExpense       = "expense"
	CategoryTypeUncategorized = "uncategorized"
)

// Category is a spending category. UserID is nil for system-provided rows.
type Category struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"user_id,omitempty"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// DescriptionCategoryMapping associates a transaction description with a
// category for one owner. At most one mapping exists per (description, owner);
// the store enforces this with an upsert-on-conflict write, not read-time
// deduplication.
type DescriptionCategoryMapping struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	CategoryID  int64     `json:"category_id"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

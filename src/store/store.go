// backend/src/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/username/ledgerview/backend/src/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("uniqueness conflict")
)

// TransactionStore is the persistence contract for transactions, categories,
// categorizations and description mappings. All operations are request-scoped
// and honour the passed context.
//
// Concurrency contract: UpsertMapping is a single atomic conditional write
// keyed on the (description, user) uniqueness constraint. It is the only
// concurrency control for mappings; concurrent upserts race safely to a
// last-writer-wins row and no client-side locking is required or permitted.
type TransactionStore interface {
	// DeleteUserData removes the user's categorized_transactions rows and then
	// their transactions, children before parents, inside one store transaction
	// so a failure leaves no orphaned join rows.
	DeleteUserData(ctx context.Context, userID int64) error

	// InsertTransactions bulk-inserts accepted statement rows.
	InsertTransactions(ctx context.Context, txs []models.Transaction) error
	GetTransaction(ctx context.Context, id string, userID int64) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]models.TransactionWithCategory, error)

	// Categories. Name lookups are case-insensitive and prefer a user-owned
	// category over a system one with the same name.
	GetDefaultCategory(ctx context.Context) (*models.Category, error)
	GetCategoryByID(ctx context.Context, id int64, userID int64) (*models.Category, error)
	GetCategoryByName(ctx context.Context, name string, userID int64) (*models.Category, error)
	ListCategories(ctx context.Context, userID int64) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error

	// Categorizations. At most one row per transaction.
	GetCategorizationByTransaction(ctx context.Context, transactionID string, userID int64) (*models.CategorizedTransaction, error)
	CreateCategorization(ctx context.Context, ct *models.CategorizedTransaction) error
	UpdateCategorizationCategory(ctx context.Context, transactionID string, userID, categoryID int64) error

	// RecategorizeByDescription re-points every categorized transaction of the
	// user whose description matches (case-insensitive) at the new category.
	// Returns the number of rewritten rows.
	RecategorizeByDescription(ctx context.Context, userID int64, description string, categoryID int64) (int64, error)

	// UpsertMapping inserts or, on (description, user) conflict, updates the
	// mapping's category and updated_at in one conditional write. Idempotent.
	UpsertMapping(ctx context.Context, description string, categoryID, userID int64) (int64, error)
	GetMappingByDescription(ctx context.Context, description string, userID int64) (*models.DescriptionCategoryMapping, error)
	ListMappings(ctx context.Context, userID int64) ([]models.DescriptionCategoryMapping, error)
	DeleteMapping(ctx context.Context, id, userID int64) error

	// RecordImport appends an import_history row for a completed import.
	RecordImport(ctx context.Context, userID int64, filename string, fileSize int64, accepted, rejected int) error
}

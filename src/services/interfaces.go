// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/ledgerview/backend/src/models"
)

// Cache keys for per-user read models. Every successful import, categorize or
// recategorize invalidates these so excluded dashboard views never serve
// stale data.
const (
	ckTransactions         = "res_transactions_user_%d"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// Define common service errors
var (
	// ErrUnauthenticated: no current user identity. Fatal for the calling
	// workflow; surfaced to the user, never retried.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrStoreUnavailable: a store call failed mid-workflow. Always wrapped
	// with partial-progress context so the caller can prompt a retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoValidRows: normalization yielded zero accepted rows. Distinct from
	// ErrStoreUnavailable because the clear phase already succeeded.
	ErrNoValidRows = errors.New("no valid transactions in file")

	// ErrAlreadyCategorized: the create-only categorize workflow hit an
	// existing join row; the caller should use the recategorize path.
	ErrAlreadyCategorized = errors.New("transaction already categorized")

	// ErrMappingConflict: the upsert violated the (description, owner)
	// invariant in a way the atomic write should make unreachable.
	ErrMappingConflict = errors.New("description mapping conflict")

	ErrParsingFailed       = errors.New("csv parsing failed")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrDescriptionRequired = errors.New("description must not be empty")
)

// ImportService is the end-to-end "replace all data with this CSV" workflow.
type ImportService interface {
	// ImportCSV clears the user's prior transactions, normalizes the file,
	// applies the rent-adjustment rule, persists the accepted rows and seeds
	// mappings for adjusted ones. Returns accepted/rejected counts.
	ImportCSV(ctx context.Context, file io.Reader, userID int64, source, filename string, fileSize int64) (*models.ImportResult, error)
}

// MappingResolver maintains the description-to-category mapping table.
type MappingResolver interface {
	// Upsert writes the mapping atomically; safe to repeat with the same
	// arguments. A failed upsert is surfaced, never swallowed: a lost mapping
	// breaks future auto-categorization.
	Upsert(ctx context.Context, description string, categoryID, userID int64) (int64, error)

	// ResolveCategoryFor returns the mapped category for a description, or
	// the system uncategorized category when no mapping exists. Absence is
	// never an error.
	ResolveCategoryFor(ctx context.Context, description string, userID int64) (int64, error)
}

// CategorizationService owns the categorize and recategorize workflows.
type CategorizationService interface {
	// Categorize creates the transaction's join row. Create-only: an existing
	// categorization is rejected with ErrAlreadyCategorized.
	Categorize(ctx context.Context, transactionID string, categoryID int64, notes string, userID int64) error

	// Recategorize re-points the transaction at the new category, upserts the
	// description mapping, and retroactively re-labels every other categorized
	// transaction of the user sharing the description. Returns the number of
	// rewritten categorizations.
	Recategorize(ctx context.Context, transactionID string, categoryID int64, userID int64) (int64, error)
}

// InvalidateUserCache drops the user's cached read models after a write.
func InvalidateUserCache(reportCache *cache.Cache, userID int64) {
	if reportCache == nil {
		return
	}
	reportCache.Delete(fmt.Sprintf(ckTransactions, userID))
}

// TransactionsCacheKey returns the cache key for a user's transaction listing.
func TransactionsCacheKey(userID int64) string {
	return fmt.Sprintf(ckTransactions, userID)
}

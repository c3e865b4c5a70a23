// backend/src/services/import_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/ledgerview/backend/src/config"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/parsers"
	"github.com/username/ledgerview/backend/src/processors"
	"github.com/username/ledgerview/backend/src/store"
)

type importServiceImpl struct {
	store       store.TransactionStore
	rentRule    *processors.RentAdjustmentRule
	mappings    MappingResolver
	reportCache *cache.Cache
}

// NewImportService wires the full-reimport workflow.
func NewImportService(
	txStore store.TransactionStore,
	rentRule *processors.RentAdjustmentRule,
	mappings MappingResolver,
	reportCache *cache.Cache,
) ImportService {
	return &importServiceImpl{
		store:       txStore,
		rentRule:    rentRule,
		mappings:    mappings,
		reportCache: reportCache,
	}
}

// ImportCSV replaces the user's dataset with the given statement file.
//
// The clear phase and the insert phase are two separate store operations, not
// one transaction. A failure after the clear leaves the user with an empty
// dataset; that state is reported to the caller as ErrStoreUnavailable with
// "data cleared" context so the UI can prompt a retry. It is never claimed as
// success and never retried silently.
func (s *importServiceImpl) ImportCSV(ctx context.Context, file io.Reader, userID int64, source, filename string, fileSize int64) (*models.ImportResult, error) {
	overallStartTime := time.Now()
	if userID <= 0 {
		return nil, ErrUnauthenticated
	}
	logger.L.Info("ImportCSV START", "userID", userID, "source", source, "filename", filename)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	// Clear phase: children before parents. Abort before touching the file's
	// rows if the prior dataset cannot be removed.
	if err := s.store.DeleteUserData(ctx, userID); err != nil {
		return nil, fmt.Errorf("%w: existing data not cleared, nothing imported: %v", ErrStoreUnavailable, err)
	}

	accepted, rejected, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: previous data already cleared: %v", ErrParsingFailed, err)
	}

	adjustedCount := 0
	rows := make([]models.Transaction, 0, len(accepted))
	var adjustedDescriptions []string
	for _, row := range accepted {
		row = s.rentRule.Apply(row)
		if row.Adjusted {
			adjustedCount++
			adjustedDescriptions = append(adjustedDescriptions, row.Description)
		}
		rows = append(rows, models.Transaction{
			ID:          row.ID,
			UserID:      userID,
			Type:        row.Type,
			Product:     row.Product,
			StartedAt:   row.StartedAt,
			CompletedAt: row.CompletedAt,
			Description: row.Description,
			Amount:      row.Amount,
			Fee:         row.Fee,
			Currency:    row.Currency,
			State:       row.State,
			Balance:     row.Balance,
		})
	}

	if len(rows) == 0 {
		// The clear already happened; an import of an all-invalid file leaves
		// the user with an empty dataset. Documented behavior, reported
		// distinctly from a store failure.
		logger.L.Warn("ImportCSV produced no valid rows", "userID", userID, "rejected", rejected)
		return nil, fmt.Errorf("%w: %d rows rejected", ErrNoValidRows, rejected)
	}

	if err := s.store.InsertTransactions(ctx, rows); err != nil {
		return nil, fmt.Errorf("%w: data cleared but new transactions not saved: %v", ErrStoreUnavailable, err)
	}

	// Seed a default category mapping for every adjusted recurring pattern.
	if adjustedCount > 0 {
		categoryID, err := s.rentCategoryID(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, description := range adjustedDescriptions {
			if _, err := s.mappings.Upsert(ctx, description, categoryID, userID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.store.RecordImport(ctx, userID, filename, fileSize, len(rows), rejected); err != nil {
		// History is bookkeeping, not user data; log and keep the import.
		logger.L.Error("Failed to record import history", "userID", userID, "error", err)
	}

	InvalidateUserCache(s.reportCache, userID)
	logger.L.Info("ImportCSV END", "userID", userID, "accepted", len(rows), "rejected", rejected,
		"adjusted", adjustedCount, "duration", time.Since(overallStartTime))
	return &models.ImportResult{Accepted: len(rows), Rejected: rejected}, nil
}

// rentCategoryID resolves the configured category for adjusted rows, falling
// back to the system default when the configured name does not exist.
func (s *importServiceImpl) rentCategoryID(ctx context.Context, userID int64) (int64, error) {
	name := "Rent"
	if config.Cfg != nil {
		name = config.Cfg.RentCategoryName
	}
	category, err := s.store.GetCategoryByName(ctx, name, userID)
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("%w: category lookup for %q failed: %v", ErrStoreUnavailable, name, err)
	}
	logger.L.Warn("Configured rent category not found, using default", "category", name, "userID", userID)
	def, err := s.store.GetDefaultCategory(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: default category lookup failed: %v", ErrStoreUnavailable, err)
	}
	return def.ID, nil
}

// backend/src/services/categorization_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/security/validation"
	"github.com/username/ledgerview/backend/src/store"
)

type categorizationServiceImpl struct {
	store       store.TransactionStore
	mappings    MappingResolver
	reportCache *cache.Cache
}

// NewCategorizationService wires the categorize/recategorize workflows.
func NewCategorizationService(
	txStore store.TransactionStore,
	mappings MappingResolver,
	reportCache *cache.Cache,
) CategorizationService {
	return &categorizationServiceImpl{
		store:       txStore,
		mappings:    mappings,
		reportCache: reportCache,
	}
}

// loadTransactionAndCategory validates that both ends of a categorization
// exist and belong to (or are visible to) the user.
func (s *categorizationServiceImpl) loadTransactionAndCategory(ctx context.Context, transactionID string, categoryID, userID int64) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, transactionID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("%w: transaction lookup failed: %v", ErrStoreUnavailable, err)
	}
	if _, err := s.store.GetCategoryByID(ctx, categoryID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("%w: category lookup failed: %v", ErrStoreUnavailable, err)
	}
	return tx, nil
}

func (s *categorizationServiceImpl) Categorize(ctx context.Context, transactionID string, categoryID int64, notes string, userID int64) error {
	if userID <= 0 {
		return ErrUnauthenticated
	}
	if _, err := s.loadTransactionAndCategory(ctx, transactionID, categoryID, userID); err != nil {
		return err
	}

	ct := &models.CategorizedTransaction{
		TransactionID: transactionID,
		CategoryID:    categoryID,
		UserID:        userID,
		Notes:         validation.SanitizeText(notes),
	}
	if err := s.store.CreateCategorization(ctx, ct); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrAlreadyCategorized
		}
		return fmt.Errorf("%w: categorization not saved: %v", ErrStoreUnavailable, err)
	}

	InvalidateUserCache(s.reportCache, userID)
	return nil
}

// Recategorize applies a manual correction and propagates it: the edited
// transaction's categorization, every sibling categorization sharing the
// description, and the description mapping all move to the new category, so
// the correction holds both retroactively and for future imports.
func (s *categorizationServiceImpl) Recategorize(ctx context.Context, transactionID string, categoryID int64, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrUnauthenticated
	}
	tx, err := s.loadTransactionAndCategory(ctx, transactionID, categoryID, userID)
	if err != nil {
		return 0, err
	}

	// The edited transaction gets a row even if it was never categorized.
	var affected int64
	err = s.store.UpdateCategorizationCategory(ctx, transactionID, userID, categoryID)
	switch {
	case err == nil:
		affected = 1
	case errors.Is(err, store.ErrNotFound):
		ct := &models.CategorizedTransaction{TransactionID: transactionID, CategoryID: categoryID, UserID: userID}
		if err := s.store.CreateCategorization(ctx, ct); err != nil {
			return 0, fmt.Errorf("%w: categorization not saved: %v", ErrStoreUnavailable, err)
		}
		affected = 1
	default:
		return 0, fmt.Errorf("%w: categorization not updated: %v", ErrStoreUnavailable, err)
	}

	description := strings.TrimSpace(tx.Description)
	if description == "" {
		// No description means no mapping key and no siblings to re-label.
		InvalidateUserCache(s.reportCache, userID)
		return affected, nil
	}

	siblings, err := s.store.RecategorizeByDescription(ctx, userID, description, categoryID)
	if err != nil {
		return affected, fmt.Errorf("%w: transaction updated but propagation incomplete: %v", ErrStoreUnavailable, err)
	}
	if siblings > affected {
		affected = siblings
	}

	if _, err := s.mappings.Upsert(ctx, description, categoryID, userID); err != nil {
		// The mapping carries the correction into future imports; losing it
		// silently would break auto-categorization, so surface the failure.
		return affected, err
	}

	logger.L.Info("Recategorized transactions by description",
		"userID", userID, "description", description, "categoryID", categoryID, "affected", affected)
	InvalidateUserCache(s.reportCache, userID)
	return affected, nil
}

// backend/src/services/mapping_resolver.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/store"
)

type mappingResolverImpl struct {
	store store.TransactionStore
}

// NewMappingResolver creates the resolver over the given store.
func NewMappingResolver(txStore store.TransactionStore) MappingResolver {
	return &mappingResolverImpl{store: txStore}
}

func (r *mappingResolverImpl) Upsert(ctx context.Context, description string, categoryID, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrUnauthenticated
	}
	if strings.TrimSpace(description) == "" {
		return 0, ErrDescriptionRequired
	}

	id, err := r.store.UpsertMapping(ctx, description, categoryID, userID)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Unreachable with an atomic conditional write; treated as a
			// defensive assertion if the store ever reports it.
			logger.L.Error("Mapping upsert reported a conflict despite conflict-target write",
				"userID", userID, "description", description, "error", err)
			return 0, fmt.Errorf("%w: %v", ErrMappingConflict, err)
		}
		return 0, fmt.Errorf("%w: mapping for %q not saved: %v", ErrStoreUnavailable, description, err)
	}
	return id, nil
}

func (r *mappingResolverImpl) ResolveCategoryFor(ctx context.Context, description string, userID int64) (int64, error) {
	if strings.TrimSpace(description) != "" {
		mapping, err := r.store.GetMappingByDescription(ctx, description, userID)
		if err == nil {
			return mapping.CategoryID, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("%w: mapping lookup for %q failed: %v", ErrStoreUnavailable, description, err)
		}
	}

	// No mapping: fall back to the system default, never an error.
	def, err := r.store.GetDefaultCategory(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: default category lookup failed: %v", ErrStoreUnavailable, err)
	}
	return def.ID, nil
}

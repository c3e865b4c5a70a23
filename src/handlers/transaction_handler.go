// backend/src/handlers/transaction_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/services"
	"github.com/username/ledgerview/backend/src/store"
	"github.com/username/ledgerview/backend/src/utils"
)

type TransactionHandler struct {
	store                 store.TransactionStore
	categorizationService services.CategorizationService
	reportCache           *cache.Cache
}

func NewTransactionHandler(txStore store.TransactionStore, categorizationService services.CategorizationService, reportCache *cache.Cache) *TransactionHandler {
	return &TransactionHandler{
		store:                 txStore,
		categorizationService: categorizationService,
		reportCache:           reportCache,
	}
}

// HandleListTransactions returns the user's transactions newest-first, joined
// with their categorization when one exists.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	cacheKey := services.TransactionsCacheKey(userID)
	if cached, found := h.reportCache.Get(cacheKey); found {
		utils.SendJSON(w, cached, http.StatusOK)
		return
	}

	transactions, err := h.store.ListTransactions(r.Context(), userID)
	if err != nil {
		logger.L.Error("Error listing transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, "error retrieving transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.TransactionWithCategory{}
	}

	h.reportCache.Set(cacheKey, transactions, services.DefaultCacheExpiration)
	utils.SendJSON(w, transactions, http.StatusOK)
}

// CategorizeRequest is the payload for the create-only categorize workflow.
type CategorizeRequest struct {
	CategoryID int64  `json:"category_id"`
	Notes      string `json:"notes,omitempty"`
}

// HandleCategorize assigns a category to an uncategorized transaction.
func (h *TransactionHandler) HandleCategorize(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	transactionID := chi.URLParam(r, "id")

	var req CategorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.categorizationService.Categorize(r.Context(), transactionID, req.CategoryID, req.Notes, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyCategorized):
			utils.SendJSONError(w, "transaction is already categorized; use the recategorize endpoint", http.StatusConflict)
		case errors.Is(err, services.ErrTransactionNotFound), errors.Is(err, services.ErrCategoryNotFound):
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrStoreUnavailable):
			logger.L.Error("Categorize failed on store access", "userID", userID, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusServiceUnavailable)
		default:
			logger.L.Error("Categorize failed", "userID", userID, "error", err)
			utils.SendJSONError(w, "categorization failed", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, map[string]string{"message": "transaction categorized"}, http.StatusCreated)
}

// RecategorizeRequest is the payload for the correction workflow.
type RecategorizeRequest struct {
	CategoryID int64 `json:"category_id"`
}

// RecategorizeResponse reports how many categorizations the correction
// touched, including retroactively re-labelled siblings.
type RecategorizeResponse struct {
	Affected int64 `json:"affected"`
}

// HandleRecategorize applies a manual category correction and propagates it
// to every transaction sharing the description.
func (h *TransactionHandler) HandleRecategorize(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	transactionID := chi.URLParam(r, "id")

	var req RecategorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	affected, err := h.categorizationService.Recategorize(r.Context(), transactionID, req.CategoryID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransactionNotFound), errors.Is(err, services.ErrCategoryNotFound):
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrStoreUnavailable):
			logger.L.Error("Recategorize failed on store access", "userID", userID, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusServiceUnavailable)
		default:
			logger.L.Error("Recategorize failed", "userID", userID, "error", err)
			utils.SendJSONError(w, "recategorization failed", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, RecategorizeResponse{Affected: affected}, http.StatusOK)
}

// HandleDeleteAllTransactions removes the user's transactions and their
// categorizations. Mappings survive; only an explicit mapping delete removes those.
func (h *TransactionHandler) HandleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.store.DeleteUserData(r.Context(), userID); err != nil {
		logger.L.Error("Failed to delete user data", "userID", userID, "error", err)
		utils.SendJSONError(w, "failed to delete data", http.StatusServiceUnavailable)
		return
	}

	services.InvalidateUserCache(h.reportCache, userID)
	utils.SendJSON(w, map[string]string{"message": "all transactions deleted"}, http.StatusOK)
}

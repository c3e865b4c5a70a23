// backend/src/handlers/category_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/security/validation"
	"github.com/username/ledgerview/backend/src/store"
	"github.com/username/ledgerview/backend/src/utils"
)

type CategoryHandler struct {
	store store.TransactionStore
}

func NewCategoryHandler(txStore store.TransactionStore) *CategoryHandler {
	return &CategoryHandler{store: txStore}
}

// HandleListCategories returns system categories plus the user's own,
// ordered for display.
func (h *CategoryHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	categories, err := h.store.ListCategories(r.Context(), userID)
	if err != nil {
		logger.L.Error("Error listing categories", "userID", userID, "error", err)
		utils.SendJSONError(w, "error retrieving categories", http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}

	utils.SendJSON(w, categories, http.StatusOK)
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// HandleCreateCategory creates a user-owned expense category. Names are
// unique per user, case-insensitively.
func (h *CategoryHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(validation.SanitizeText(req.Name))
	if name == "" {
		utils.SendJSONError(w, "category name is required", http.StatusBadRequest)
		return
	}

	category := &models.Category{
		UserID:       &userID,
		Name:         name,
		Type:         models.CategoryTypeExpense,
		DisplayOrder: 100,
	}
	if err := h.store.CreateCategory(r.Context(), category); err != nil {
		if errors.Is(err, store.ErrConflict) {
			utils.SendJSONError(w, "a category with this name already exists", http.StatusConflict)
			return
		}
		logger.L.Error("Error creating category", "userID", userID, "name", name, "error", err)
		utils.SendJSONError(w, "error creating category", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, category, http.StatusCreated)
}

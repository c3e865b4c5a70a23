// backend/src/handlers/mapping_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/models"
	"github.com/username/ledgerview/backend/src/store"
	"github.com/username/ledgerview/backend/src/utils"
)

type MappingHandler struct {
	store store.TransactionStore
}

func NewMappingHandler(txStore store.TransactionStore) *MappingHandler {
	return &MappingHandler{store: txStore}
}

// HandleListMappings returns the user's description to category mappings.
func (h *MappingHandler) HandleListMappings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	mappings, err := h.store.ListMappings(r.Context(), userID)
	if err != nil {
		logger.L.Error("Error listing mappings", "userID", userID, "error", err)
		utils.SendJSONError(w, "error retrieving mappings", http.StatusInternalServerError)
		return
	}
	if mappings == nil {
		mappings = []models.DescriptionCategoryMapping{}
	}

	utils.SendJSON(w, mappings, http.StatusOK)
}

// HandleDeleteMapping removes a mapping. Existing categorizations made from
// it are kept; future imports simply stop auto-labelling the description.
func (h *MappingHandler) HandleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	mappingID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid mapping id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteMapping(r.Context(), mappingID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.SendJSONError(w, "mapping not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error deleting mapping", "userID", userID, "mappingID", mappingID, "error", err)
		utils.SendJSONError(w, "error deleting mapping", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{"message": "mapping deleted"}, http.StatusOK)
}

// backend/src/handlers/import_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/username/ledgerview/backend/src/config"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/security/validation"
	"github.com/username/ledgerview/backend/src/services"
	"github.com/username/ledgerview/backend/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{importService: service}
}

// HandleUpload replaces the user's dataset with the uploaded statement file.
func (h *ImportHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	source := r.FormValue("source")
	if source == "" {
		source = "revolut"
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		logger.L.Warn("Server-side file content validation failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing upload request", "userID", userID, "filename", fileHeader.Filename)

	result, err := h.importService.ImportCSV(r.Context(), file, userID, source, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthenticated):
			utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		case errors.Is(err, services.ErrNoValidRows):
			// The clear phase already ran; the caller sees an explicit
			// "no valid transactions" outcome, not a generic failure.
			utils.SendJSONError(w, "no valid transactions found in the uploaded file", http.StatusUnprocessableEntity)
		case errors.Is(err, services.ErrParsingFailed):
			utils.SendJSONError(w, fmt.Sprintf("could not parse the uploaded file: %v", err), http.StatusBadRequest)
		case errors.Is(err, services.ErrStoreUnavailable):
			logger.L.Error("Import failed on store access", "userID", userID, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusServiceUnavailable)
		default:
			logger.L.Error("Import failed", "userID", userID, "error", err)
			utils.SendJSONError(w, "import failed", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}

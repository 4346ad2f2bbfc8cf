package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"proxyd/internal/core/domain"
	"proxyd/internal/core/utils"
)

type CreateAPIKeyRequest struct {
	Description string `json:"description" validate:"max=255"`
}

type APIKeyHandler struct {
	Keys domain.APIKeyRepository
}

func NewAPIKeyHandler(keys domain.APIKeyRepository) *APIKeyHandler {
	return &APIKeyHandler{Keys: keys}
}

// Create handles POST /api/keys
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	token, err := utils.NewAPIKeyToken()
	if err != nil {
		HandleError(w, r, err)
		return
	}

	key := &domain.APIKey{Key: token, Description: req.Description, IsActive: true}
	if err := h.Keys.Create(r.Context(), key); err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "API key created successfully",
		"api_key": key,
	})
}

// List handles GET /api/keys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Keys.List(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if keys == nil {
		keys = []domain.APIKey{}
	}
	writeJSON(w, http.StatusOK, keys)
}

// Get handles GET /api/keys/{id}
func (h *APIKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "API key not found")
		return
	}

	key, err := h.Keys.GetByID(r.Context(), id)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

// Delete handles DELETE /api/keys/{id}
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "API key not found")
		return
	}

	if err := h.Keys.Delete(r.Context(), id); err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "API key deleted successfully",
	})
}

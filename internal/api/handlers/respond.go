package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"proxyd/internal/core/domain"
)

// Single validator instance; it caches struct metadata.
var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HandleError maps a stage error kind onto the API's status codes:
// 404 for missing entities, 401 for auth, 400 for operational failures,
// 500 only for the truly unclassified.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, verrs.Error())
		return
	}

	switch domain.KindOf(err) {
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case domain.KindAuth:
		writeError(w, http.StatusUnauthorized, err.Error())
	case domain.KindValidation, domain.KindPersistence,
		domain.KindConfigWrite, domain.KindActivation,
		domain.KindCertIssuance, domain.KindCertRevocation:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("unexpected error", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// idParam parses the {id} route parameter. A non-numeric id behaves like a
// missing entity, not a malformed request.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

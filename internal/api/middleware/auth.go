package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"proxyd/internal/core/domain"
)

// APIKeyAuth rejects requests lacking a valid X-API-Key header. The
// configured master key always authenticates; any other value must match an
// active stored key.
type APIKeyAuth struct {
	Keys      domain.APIKeyRepository
	MasterKey string
	Logger    *slog.Logger
}

func NewAPIKeyAuth(keys domain.APIKeyRepository, masterKey string, logger *slog.Logger) *APIKeyAuth {
	return &APIKeyAuth{Keys: keys, MasterKey: masterKey, Logger: logger}
}

func (m *APIKeyAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeAuthError(w, "API key is required")
			return
		}

		if m.MasterKey != "" && key == m.MasterKey {
			next.ServeHTTP(w, r)
			return
		}

		stored, err := m.Keys.GetByKey(r.Context(), key)
		if err != nil || !stored.IsActive {
			m.Logger.Warn("rejected API key", slog.String("remote", r.RemoteAddr))
			writeAuthError(w, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"proxyd/internal/core/domain"
)

type fakeKeyRepo struct {
	keys map[string]domain.APIKey
}

func (f *fakeKeyRepo) Create(ctx context.Context, k *domain.APIKey) error { return nil }
func (f *fakeKeyRepo) GetByID(ctx context.Context, id int64) (*domain.APIKey, error) {
	return nil, domain.E(domain.KindNotFound, "fake", "not found", nil)
}
func (f *fakeKeyRepo) List(ctx context.Context) ([]domain.APIKey, error) { return nil, nil }
func (f *fakeKeyRepo) Delete(ctx context.Context, id int64) error        { return nil }
func (f *fakeKeyRepo) Count(ctx context.Context) (int64, error)          { return int64(len(f.keys)), nil }

func (f *fakeKeyRepo) GetByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	k, ok := f.keys[key]
	if !ok {
		return nil, domain.E(domain.KindNotFound, "fake", "api key not found", nil)
	}
	return &k, nil
}

func authedServer() http.Handler {
	repo := &fakeKeyRepo{keys: map[string]domain.APIKey{
		"valid-key":    {ID: 1, Key: "valid-key", IsActive: true},
		"disabled-key": {ID: 2, Key: "disabled-key", IsActive: false},
	}}
	auth := NewAPIKeyAuth(repo, "master-key", slog.New(slog.NewTextHandler(io.Discard, nil)))
	return auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRequire(t *testing.T) {
	cases := []struct {
		name   string
		key    string
		status int
		body   string
	}{
		{"missing key", "", http.StatusUnauthorized, `"API key is required"`},
		{"master key", "master-key", http.StatusOK, ""},
		{"stored active key", "valid-key", http.StatusOK, ""},
		{"stored inactive key", "disabled-key", http.StatusUnauthorized, `"Invalid API key"`},
		{"unknown key", "nope", http.StatusUnauthorized, `"Invalid API key"`},
	}

	handler := authedServer()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/proxies", nil)
			if tc.key != "" {
				req.Header.Set("X-API-Key", tc.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Contains(t, rec.Body.String(), tc.body)
			}
		})
	}
}

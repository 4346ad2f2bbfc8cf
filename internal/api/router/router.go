package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"proxyd/internal/api/handlers"
	"proxyd/internal/api/middleware"
)

const maxBodyBytes = 1 << 20

type Config struct {
	AllowedOrigins []string
	Proxies        *handlers.ProxyHandler
	Keys           *handlers.APIKeyHandler
	Auth           *middleware.APIKeyAuth
	Logger         *slog.Logger
}

// New assembles the HTTP routing tree.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	// Certificate issuance happens inline on proxy writes, so the request
	// timeout has to leave room for ACME round trips.
	r.Use(chimw.Timeout(3 * time.Minute))
	r.Use(chimw.StripSlashes)
	r.Use(middleware.MaxBytes(maxBodyBytes))
	r.Use(middleware.NewRateLimiter().Limit)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", handlers.Status)

		r.Route("/keys", func(r chi.Router) {
			r.Post("/", cfg.Keys.Create)
			r.Get("/", cfg.Keys.List)
			r.Get("/{id}", cfg.Keys.Get)
			r.Delete("/{id}", cfg.Keys.Delete)
		})

		r.Route("/proxies", func(r chi.Router) {
			r.Use(cfg.Auth.Require)
			r.Post("/", cfg.Proxies.Create)
			r.Get("/", cfg.Proxies.List)
			r.Get("/{id}", cfg.Proxies.Get)
			r.Put("/{id}", cfg.Proxies.Update)
			r.Delete("/{id}", cfg.Proxies.Delete)
		})
	})

	return r
}

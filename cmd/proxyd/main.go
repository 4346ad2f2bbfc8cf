package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proxyd/internal/adapters"
	"proxyd/internal/api/handlers"
	"proxyd/internal/api/middleware"
	"proxyd/internal/api/router"
	"proxyd/internal/config"
	"proxyd/internal/core/domain"
	"proxyd/internal/core/services"
	"proxyd/internal/core/utils"
	"proxyd/internal/db/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	logger.Info("starting proxyd", "environment", cfg.Environment, "port", cfg.Port)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := postgres.NewDB(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = postgres.EnsureSchema(ctx, db)
	cancel()
	if err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	proxyRepo := postgres.NewProxyRepository(db)
	keyRepo := postgres.NewAPIKeyRepository(db)

	if err := bootstrapAPIKey(context.Background(), keyRepo, logger); err != nil {
		logger.Error("api key bootstrap failed", "error", err)
		os.Exit(1)
	}

	runner := adapters.ExecRunner{}
	renderer := adapters.Renderer{
		ChallengeRoot: cfg.ChallengeRoot,
		CertDir:       cfg.CertDir,
	}
	publisher := adapters.NewNginxAdapter(
		renderer,
		cfg.SitesAvailableDir,
		cfg.SitesEnabledDir,
		[]string{cfg.NginxBin, "-s", "reload"},
		runner,
		logger,
	)

	var certs domain.CertificateManager
	switch cfg.SSLProvider {
	case "acme":
		certs = adapters.NewAcmeManager(cfg.ACMEEmail, cfg.ACMEDirectoryURL, cfg.ChallengeRoot, cfg.CertDir, logger)
	default:
		certs = adapters.NewCertbotClient(cfg.CertbotBin, cfg.ACMEEmail, runner, logger)
	}

	service := services.NewReconciler(proxyRepo, publisher, certs, logger)

	handler := router.New(router.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		Proxies:        handlers.NewProxyHandler(service),
		Keys:           handlers.NewAPIKeyHandler(keyRepo),
		Auth:           middleware.NewAPIKeyAuth(keyRepo, cfg.MasterAPIKey, logger),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // certificate issuance happens inline
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("proxyd stopped")
}

// bootstrapAPIKey creates an initial key on a fresh database so the API is
// reachable before any keys have been provisioned. The token is printed once
// and never stored in recoverable form anywhere else, so operators must
// capture it from the boot log.
func bootstrapAPIKey(ctx context.Context, keys domain.APIKeyRepository, logger *slog.Logger) error {
	count, err := keys.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	token, err := utils.NewAPIKeyToken()
	if err != nil {
		return err
	}

	key := &domain.APIKey{Key: token, Description: "Default API Key", IsActive: true}
	if err := keys.Create(ctx, key); err != nil {
		return err
	}

	logger.Info("created default api key", "api_key", token)
	return nil
}

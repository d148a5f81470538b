// Package main is the entry point for the chat report server.
// It provides a REST API for filing reports against chat conversations
// and for the administrator to review them.
//
// Architecture:
//   - Reports freeze a copy of the chat's messages at submission time
//   - The administrator is a single configured user id
//   - New reports and stale pending reports are mailed to the administrator
//   - Storage is PostgreSQL, MongoDB or in-process memory
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatreport/report-server/internal/config"
	"github.com/chatreport/report-server/internal/database"
	"github.com/chatreport/report-server/internal/handlers"
	"github.com/chatreport/report-server/internal/identity"
	"github.com/chatreport/report-server/internal/middleware"
	"github.com/chatreport/report-server/internal/notify"
	"github.com/chatreport/report-server/internal/services"
	"github.com/chatreport/report-server/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid server config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting report server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"store", cfg.StoreBackend,
		"email", cfg.Email.Provider,
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	backend, closeStore, err := store.Open(startCtx, cfg, sugar)
	cancelStart()
	if err != nil {
		sugar.Fatalf("Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer closeStore()

	notifier, err := notify.New(cfg.Email, sugar)
	if err != nil {
		sugar.Fatalf("Failed to configure email: %v", err)
	}

	reportSvc := services.NewReportService(backend, newDirectory(cfg, sugar), notifier, cfg.AdminUserID, sugar)
	if cfg.AdminUserID == "" {
		sugar.Warn("ADMIN_USER_ID is not set; report listing is disabled")
	}

	limiter := newLimiter(cfg, sugar)

	reportHandler := handlers.NewReportHandler(reportSvc, sugar)
	healthHandler := handlers.NewHealthHandler(backend, sugar)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		r.With(
			middleware.RequireAuth(newVerifier(cfg, sugar)),
			middleware.RateLimit(limiter, sugar),
		).Mount("/reports", reportHandler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Without an identity provider key every reporter resolves to the
// configured admin address, which keeps local submissions working.
func newDirectory(cfg *config.Config, logger *zap.SugaredLogger) identity.Directory {
	if cfg.ClerkSecretKey != "" {
		return identity.NewClerkDirectory(cfg.ClerkSecretKey)
	}
	logger.Warn("CLERK_SECRET_KEY is not set; using static development directory")
	return identity.FallbackDirectory(cfg.Email.AdminAddress)
}

func newVerifier(cfg *config.Config, logger *zap.SugaredLogger) middleware.TokenVerifier {
	if cfg.UsesDevAuth() {
		logger.Warn("CLERK_SECRET_KEY is not set; accepting tokens signed with JWT_SECRET")
		return middleware.NewHMACVerifier(cfg.JWTSecret)
	}
	return identity.NewClerkVerifier(cfg.ClerkSecretKey)
}

func newLimiter(cfg *config.Config, logger *zap.SugaredLogger) middleware.Limiter {
	if cfg.RedisURL == "" {
		return middleware.NewMemoryLimiter(cfg.RateLimitRPM)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warnw("Redis unavailable, falling back to in-process rate limiting", "error", err)
		return middleware.NewMemoryLimiter(cfg.RateLimitRPM)
	}
	return middleware.NewRedisLimiter(rdb, cfg.RateLimitRPM)
}

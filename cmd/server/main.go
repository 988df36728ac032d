package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studentdesk/internal/audit"
	auditHandler "studentdesk/internal/audit/handler"
	auditStore "studentdesk/internal/audit/store/postgres"
	authHandler "studentdesk/internal/auth/handler"
	"studentdesk/internal/auth/models"
	authService "studentdesk/internal/auth/service"
	authStore "studentdesk/internal/auth/store"
	jwttoken "studentdesk/internal/jwt_token"
	"studentdesk/internal/platform/config"
	"studentdesk/internal/platform/httpserver"
	"studentdesk/internal/platform/metrics"
	"studentdesk/internal/platform/middleware"
	studentHandler "studentdesk/internal/student/handler"
	studentService "studentdesk/internal/student/service"
	studentStore "studentdesk/internal/student/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)

	db, err := sql.Open("postgres", cfg.PGDSN)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	recorder := audit.NewRecorder(
		auditStore.New(db),
		audit.WithLogger(logger),
		audit.WithMetrics(m),
	)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTTTL)

	randomPolicy := models.RandomRolePolicy(rand.New(rand.NewSource(time.Now().UnixNano())))
	auth := authService.New(
		authStore.NewPostgres(db),
		tokens,
		authService.WithLogger(logger),
		authService.WithAuditRecorder(recorder),
		authService.WithMetrics(m),
		authService.WithRolePolicy(cfg.SignupRolePolicy(randomPolicy)),
		authService.WithBcryptCost(cfg.BcryptCost),
	)

	students := studentService.New(
		studentStore.NewPostgres(db),
		studentService.WithLogger(logger),
		studentService.WithAuditRecorder(recorder),
		studentService.WithMetrics(m),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ClientMetadata)

	credentialLimiter := httprate.Limit(cfg.AuthRateLimit, cfg.AuthRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)

	authHandler.New(auth, tokens, logger,
		authHandler.WithRateLimiter(credentialLimiter),
	).Register(router)
	studentHandler.New(students, tokens, logger).Register(router)
	auditHandler.New(recorder, tokens, logger).Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.AppAddr, router, cfg.AppReadTimeout, cfg.AppWriteTimeout)

	logger.Info("starting studentdesk", "addr", cfg.AppAddr, "env", cfg.AppEnv)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

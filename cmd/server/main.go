package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/messbill/internal/attendance"
	"github.com/mmynk/messbill/internal/auth"
	"github.com/mmynk/messbill/internal/billing"
	"github.com/mmynk/messbill/internal/config"
	"github.com/mmynk/messbill/internal/issues"
	"github.com/mmynk/messbill/internal/metrics"
	"github.com/mmynk/messbill/internal/middleware"
	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/rates"
	"github.com/mmynk/messbill/internal/service"
	"github.com/mmynk/messbill/internal/storage/sqlite"
	"github.com/mmynk/messbill/pkg/logging"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	if err := store.EnsureRoles(ctx, models.AllRoles...); err != nil {
		slog.Error("Failed to seed roles", "error", err)
		os.Exit(1)
	}

	resolver := rates.NewResolver(store)
	if err := resolver.EnsureDefaults(ctx); err != nil {
		slog.Error("Failed to seed rate settings", "error", err)
		os.Exit(1)
	}

	authenticator := auth.NewPasswordAuthenticator(store)
	if cfg.AdminEmail != "" {
		if err := authenticator.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			slog.Error("Failed to bootstrap admin", "error", err)
			os.Exit(1)
		}
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	billingSvc := billing.NewService(store, resolver, billing.Options{
		Role:    cfg.BillingRole,
		Workers: cfg.BillingWorkers,
		Metrics: m,
	})
	attendanceSvc := attendance.NewService(store, attendance.Options{
		Role:       cfg.BillingRole,
		CutoffHour: cfg.CutoffHour,
		Location:   cfg.Location,
	})

	mux := http.NewServeMux()

	// Register Connect services. Logging runs inside auth so the member is known.
	public := connect.WithInterceptors(middleware.LoggingInterceptor(m))
	authed := connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor(m))
	service.Mount(mux, service.Services{
		Auth:       service.NewAuthService(authenticator, jwtManager, slog.Default()),
		Billing:    service.NewBillingService(billingSvc),
		Attendance: service.NewAttendanceService(attendanceSvc, cfg.CutoffHour),
		Issues:     service.NewIssueService(issues.NewService(store, time.Now), cfg.BillingRole),
		Settings:   service.NewSettingsService(resolver),
	}, []connect.HandlerOption{public}, []connect.HandlerOption{authed})

	mux.Handle("/metrics", metrics.Handler(registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// loggingMiddleware logs every request except metrics scrapes and health checks.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" || r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms",
		}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

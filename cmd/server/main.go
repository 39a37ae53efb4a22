// NeuroSync - care-team coordination server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ashureev/neurosync/internal/api"
	"github.com/ashureev/neurosync/internal/config"
	"github.com/ashureev/neurosync/internal/feed"
	"github.com/ashureev/neurosync/internal/identity"
	"github.com/ashureev/neurosync/internal/middleware"
	"github.com/ashureev/neurosync/internal/notify"
	"github.com/ashureev/neurosync/internal/notify/channels"
	"github.com/ashureev/neurosync/internal/objstore"
	"github.com/ashureev/neurosync/internal/report"
	"github.com/ashureev/neurosync/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Provider clients are built once and injected.
	var push notify.PushSender
	if cfg.Push.Configured() {
		push = channels.NewFCM(channels.FCMConfig{
			ServerKey: cfg.Push.ServerKey,
			Endpoint:  cfg.Push.Endpoint,
			Timeout:   cfg.ProviderTimeout,
		})
	} else {
		slog.Warn("Push notifications disabled (FCM_SERVER_KEY not set)")
	}

	var sms notify.SMSSender
	if cfg.SMS.Configured() {
		sms = channels.NewTwilio(channels.TwilioConfig{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			FromNumber: cfg.SMS.FromNumber,
			BaseURL:    cfg.SMS.BaseURL,
			Timeout:    cfg.ProviderTimeout,
		})
	} else {
		slog.Warn("SMS disabled (Twilio credentials not set)")
	}

	dispatcher := notify.NewDispatcher(push, sms, notify.WithRecorder(repo))

	objects, err := objstore.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize report storage", "type", cfg.Storage.Type, "error", err)
		os.Exit(1)
	}
	var reportStore report.ObjectStore
	if objects != nil {
		reportStore = objects
		defer func() {
			if closeErr := objects.Close(); closeErr != nil {
				slog.Error("Failed to close report storage", "error", closeErr)
			}
		}()
		slog.Info("Report storage ready", "type", cfg.Storage.Type, "bucket", cfg.Storage.Bucket)
	} else {
		slog.Warn("Report storage disabled (STORAGE_TYPE=none)")
	}

	orch := report.NewOrchestrator(report.NewGenerator(report.WithLocation(cfg.Report.Location)), reportStore, dispatcher, report.DeliveryConfig{
		AdminPhone: cfg.Report.AdminPhone,
		URLExpiry:  cfg.Report.URLExpiry,
	})
	orch.SetRecorder(repo)
	stored := report.NewStoredDelivery(orch, repo, cfg.Report.Window)

	if cfg.Report.Schedule != "" {
		if err := report.NewScheduler(stored, cfg.Report.Schedule).Start(ctx); err != nil {
			slog.Error("Failed to start report scheduler", "error", err)
			os.Exit(1)
		}
	}

	hub := feed.NewHub()
	defer hub.CloseAll()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	limiter.StartCleanup(ctx)

	verifier := identity.NewVerifier(cfg.Auth)
	if verifier == nil {
		slog.Warn("Token verification disabled, trusting " + identity.DevHeaderName)
	}

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, dispatcher, orch, stored, hub)
	healthHandler := api.NewHealthHandler(repo, api.Providers{
		Push:    dispatcher.PushEnabled(),
		SMS:     dispatcher.SMSEnabled(),
		Storage: orch.StorageEnabled(),
	})
	publicHandler := api.NewPublicHandler(baseHandler)
	origins := allowedOrigins(cfg)
	wsHandler := feed.NewWebSocketHandler(hub, origins, cfg.IsDevelopment())
	careHandler := api.NewCareHandler(baseHandler, wsHandler)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(origins))

	// Public routes.
	healthHandler.RegisterHealth(r)
	publicHandler.RegisterRoutes(r, limiter.Middleware)

	// Care-team routes.
	careHandler.RegisterRoutes(r, identity.Middleware(repo, verifier))

	// Create server.
	// WriteTimeout stays 0 so feed websockets are not cut off.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server stopped successfully")
}

func allowedOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(cfg.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"familybudget/internal/config"
	"familybudget/internal/database"
	"familybudget/internal/handlers"
	"familybudget/internal/logger"
	"familybudget/internal/observability"
	"familybudget/internal/repository"
	"familybudget/internal/security"
	"familybudget/internal/service"
)

const (
	serviceName     = "familybudget"
	shutdownTimeout = 15 * time.Second
)

var version = "dev"

func main() {
	// Load configuration
	cfg := config.Load()

	mode := "development"
	if !cfg.IsDevelopment() {
		mode = "production"
	}
	log, err := logger.New(mode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server exited with error", "error", err)
		log.Sync()
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	// Tracing
	shutdownTracing, err := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: serviceName,
		Environment: cfg.AppEnv,
		Version:     version,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	// Store
	backend, err := repository.OpenBackend(cfg)
	if err != nil {
		return err
	}
	manager := database.NewManager(backend.Name, backend.Conn, log, database.ManagerOptions{
		MaxRetries:     cfg.StoreMaxRetries,
		MaxInterval:    cfg.StoreRetryMaxInterval,
		HealthInterval: cfg.StoreHealthInterval,
	})
	defer manager.Close()

	if err := manager.Connect(ctx); err != nil {
		return err
	}
	log.Info("Store connection established", "backend", backend.Name)

	// Security
	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("JWT_SECRET not set; using an ephemeral development secret, tokens will not survive a restart")
	}
	tokens, err := security.NewTokenIssuer(secret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	limiter := security.NewRateLimiter(cfg.RateLimitPerMinute)

	// Services
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, log)
	if err != nil {
		log.Warn("Email service unavailable, welcome emails disabled", "error", err)
	}
	var mailer service.Mailer
	if emailService != nil && emailService.IsEnabled() {
		mailer = emailService
	}
	authService := service.NewAuthService(backend.Store, tokens, mailer, cfg.BcryptCost, log)
	familyService := service.NewFamilyService(backend.Store, log)

	router := handlers.NewRouter(handlers.RouterConfig{
		BasePath:       cfg.BasePath,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		DevMode:        cfg.IsDevelopment(),
		RateLimiter:    limiter,
		StoreHealth: func() (bool, string) {
			return manager.Ready(), manager.State().String()
		},
		Log: log,
	}, authService, familyService)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", "addr", server.Addr, "env", cfg.AppEnv, "basePath", cfg.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return manager.Watch(gctx)
	})

	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

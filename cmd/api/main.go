package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payme-merchant-gateway/config"
	httpHandler "payme-merchant-gateway/internal/adapter/http/handler"
	memStorage "payme-merchant-gateway/internal/adapter/storage/memory"
	pgStorage "payme-merchant-gateway/internal/adapter/storage/postgres"
	redisStorage "payme-merchant-gateway/internal/adapter/storage/redis"
	"payme-merchant-gateway/internal/core/ports"
	"payme-merchant-gateway/internal/service"
	"payme-merchant-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Backend).
		Msg("Starting Payme Merchant Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool. Orders always live in the shop database,
	// so the pool is needed even when transactions are kept in memory.
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	var txRepo ports.TransactionRepository
	switch cfg.Storage.Backend {
	case "memory":
		txRepo = memStorage.NewTransactionRepo()
		log.Warn().Msg("In-memory transaction store: history is lost on restart")
	default:
		txRepo = pgStorage.NewTransactionRepo(pool)
	}
	orderRepo := pgStorage.NewOrderRepo(pool)
	rateStore := redisStorage.NewRateStore(rdb, cfg.Exchange.DefaultRate)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.Ops.JWTSecret, cfg.Ops.JWTExpiry, cfg.Ops.JWTIssuer)
	creds := service.NewCredentials(cfg.Payme.Password)
	amounts := service.NewAmountValidator(orderRepo, rateStore, log)

	var capture ports.CaptureSink = service.NoopCaptureSink{}
	if cfg.Capture.URL != "" {
		capture = service.NewWebhookCaptureSink(
			cfg.Capture.URL,
			cfg.Capture.Secret,
			&http.Client{Timeout: cfg.Capture.Timeout},
			log,
		)
	}

	// Initialize business services
	authSvc := service.NewPaymeAuthService(cfg.Payme.Login, creds, cfg.Payme.SandboxRelaxedAuth, log)
	merchantSvc := service.NewMerchantService(txRepo, amounts, creds, capture, cfg.Payme.MinAmount, log)
	opsSvc := service.NewOpsService(
		cfg.Ops.Username,
		cfg.Ops.PasswordHash,
		cfg.Payme.MerchantID,
		hashSvc,
		tokenSvc,
		orderRepo,
		rateStore,
		txRepo,
		log,
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		MerchantSvc:    merchantSvc,
		OpsSvc:         opsSvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

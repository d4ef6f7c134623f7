package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/calldeck-team/calldeck/pkg/validator"

	"github.com/calldeck-team/calldeck/internal/adapter/handler"
	"github.com/calldeck-team/calldeck/internal/adapter/repository"
	"github.com/calldeck-team/calldeck/internal/infrastructure/cache"
	"github.com/calldeck-team/calldeck/internal/infrastructure/database"
	"github.com/calldeck-team/calldeck/internal/infrastructure/realtime"
	"github.com/calldeck-team/calldeck/internal/usecase/enrich"
	"github.com/calldeck-team/calldeck/internal/usecase/ingest"
	pkgai "github.com/calldeck-team/calldeck/pkg/ai"
	"github.com/calldeck-team/calldeck/pkg/config"
	"github.com/calldeck-team/calldeck/pkg/voice"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// Tag every request with an id so error responses correlate with logs
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "Range"},
	}))

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run migrations only when explicitly enabled in config.
	// Production deployments manage schema via sql-migrate in CI/CD.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("DB_AUTO_MIGRATE is enabled in production. Disable it and manage schema with sql-migrate.")
		}
		log.Println("Applying migrations (development only)...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize the dedup gate backend. Redis keeps processed call ids
	// across restarts; without Redis the gate is process-local and the
	// store's unique constraint is the only restart-safe duplicate check.
	var seenStore ingest.SeenStore
	if cfg.RedisEnabled() {
		log.Println("Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		seenStore = cache.NewRedisSeenStore(redisClient, cfg.Redis.SeenTTL)
	} else {
		log.Println("Redis not configured, using in-process dedup gate")
		seenStore = cache.NewMemorySeenStore(cfg.Redis.SeenTTL)
	}
	gate := ingest.NewGate(seenStore, logger)

	// Initialize repositories and clients
	callRepo := repository.NewCallRepository(db, logger)
	voiceClient := voice.NewClient(&cfg.Voice)
	groqClient := pkgai.NewGroqClient(&cfg.Groq)

	// Initialize services
	enrichService := enrich.NewService(groqClient, cfg.Groq.Timeout, logger)
	hub := realtime.NewHub(logger)
	ingestService := ingest.NewService(gate, voiceClient, enrichService, callRepo, hub, cfg.Server.PublicBaseURL, logger)

	// Initialize handlers
	webhookHandler := handler.NewWebhookHandler(ingestService, cfg.Server.WebhookSecret, logger)
	callsHandler := handler.NewCallsHandler(callRepo, voiceClient, logger)
	wsHandler := handler.NewWSHandler(hub, logger)

	// Setup router with handlers
	router := handler.NewRouter(cfg, webhookHandler, callsHandler, wsHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		log.Printf("Environment: %s", cfg.Server.Environment)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

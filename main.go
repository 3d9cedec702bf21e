// Package main provides the main entry point for the Fangate download-gate service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fangate/fangate/app/handlers"
	"github.com/fangate/fangate/app/middleware"
	"github.com/fangate/fangate/app/router"
	"github.com/fangate/fangate/app/services"
	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/fangate/fangate/config"
	"github.com/fangate/fangate/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Fangate application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogOutput(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Standalone Prometheus endpoint so scrapes bypass the public surface
	if cfg.Metrics.Enabled {
		stopMetrics := startMetricsServer(cfg.Metrics)
		app.stopFuncs = append(app.stopFuncs, stopMetrics)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogOutput routes the standard logger through lumberjack when file
// output is configured, so long-running deployments rotate instead of
// filling the disk.
func setupLogOutput(cfg config.LoggingConfig) {
	if cfg.Output != "file" && cfg.Output != "both" {
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	if cfg.Output == "both" {
		log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	} else {
		log.SetOutput(rotator)
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the cache client and verifies connectivity.
// A nil client disables caching; gate lookups fall through to the database.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// startMetricsServer serves Prometheus metrics on a dedicated port.
func startMetricsServer(cfg config.MetricsConfig) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("Metrics server listening on :%d%s", cfg.Port, cfg.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, 30*time.Second)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	gateRepo := repository.NewGateRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	eventRepo := repository.NewAnalyticsEventRepository(db)

	// Initialize services
	linkSigner, err := services.NewLinkSigner(
		cfg.Storage.DownloadBaseURL,
		cfg.Signing.SecretKey,
		cfg.Signing.Issuer,
		cfg.Signing.DownloadLinkTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize link signer: %w", err)
	}

	ownerTokens, err := services.NewOwnerTokenService(
		cfg.Signing.SecretKey,
		cfg.Signing.Issuer,
		cfg.Signing.Audience,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize owner token service: %w", err)
	}

	soundcloudClient := services.NewSoundcloudClient(
		cfg.Soundcloud.BaseURL,
		cfg.Soundcloud.ClientID,
		cfg.Soundcloud.Timeout,
	)

	spotifyClient := services.NewSpotifyClient(
		cfg.Spotify.TokenURL,
		cfg.Spotify.ProfileURL,
		cfg.Spotify.ClientID,
		cfg.Spotify.ClientSecret,
		cfg.Spotify.RedirectURL,
		cfg.Spotify.Timeout,
	)

	// Initialize flows
	analyticsFlow := businessflow.NewAnalyticsFlow(eventRepo)
	gateViewFlow := businessflow.NewGateViewFlow(gateRepo, analyticsFlow, rc)
	submissionFlow := businessflow.NewSubmissionFlow(gateRepo, submissionRepo, analyticsFlow, db)
	verificationFlow := businessflow.NewVerificationFlow(gateRepo, submissionRepo, submissionFlow, soundcloudClient, spotifyClient)
	downloadFlow := businessflow.NewDownloadFlow(gateRepo, submissionRepo, analyticsFlow, linkSigner, db)
	ownerGateFlow := businessflow.NewOwnerGateFlow(gateRepo, submissionRepo, analyticsFlow)

	// Initialize handlers
	gateHandler := handlers.NewGateHandler(gateViewFlow)
	submissionHandler := handlers.NewSubmissionHandler(submissionFlow)
	verificationHandler := handlers.NewVerificationHandler(verificationFlow)
	downloadHandler := handlers.NewDownloadHandler(downloadFlow)
	ownerHandler := handlers.NewOwnerHandler(ownerGateFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(ownerTokens)

	// Initialize router
	appRouter := router.NewFiberRouter(
		gateHandler,
		submissionHandler,
		verificationHandler,
		downloadHandler,
		ownerHandler,
		authMiddleware,
		cfg.Security.AllowedOrigins,
	)

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

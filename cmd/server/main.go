package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aternotes/internal/auth"
	"aternotes/internal/cache"
	"aternotes/internal/config"
	"aternotes/internal/data"
	"aternotes/internal/directory"
	"aternotes/internal/handler"
	"aternotes/internal/logger"
	"aternotes/internal/metrics"
	"aternotes/internal/middleware"
	"aternotes/internal/render"
	"aternotes/internal/service"
	"aternotes/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const cachePurgeInterval = 10 * time.Minute

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Pre-flight Checks ---
	if cfg.Session.SecretKey == "" || cfg.Session.SecretKey == "CHANGE_ME_IN_PRODUCTION_SECRET!!" {
		log.Fatal(errors.New("session secret key not set"), "Please set a secure ATERNOTES_SESSION_SECRETKEY environment variable.")
	}

	// --- Database Initialization and Migration ---
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(cfg.DB, "migrations"); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	// --- Session Management Setup ---
	sessionManager := session.New(session.NewStore(db.DB, cfg.DB.Driver), cfg.Session, cfg.Server.TLS.Enabled)

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authentication and authorization...")
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	authenticator, err := auth.NewAuthenticator(ctx, &cfg.OIDC)
	if err != nil {
		log.Fatal(err, "Failed to initialize authenticator")
	}
	enforcer, err := auth.NewEnforcer(cfg.DB.Driver, cfg.DB.DSN, cfg.Auth.ModelPath)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, cfg.Auth, log)
	roles := auth.NewRoleChecker(enforcer)
	log.Info("Auth components initialized and policies seeded.")

	// --- Cache Initialization ---
	log.Info("Initializing SQLite cache...")
	guideCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer guideCache.Close()
	go purgeCache(ctx, guideCache, log)
	log.Info("Cache initialized.")

	// --- Directory Client ---
	discord, err := directory.NewDiscordClient(cfg.Discord, log)
	if err != nil {
		log.Fatal(err, "Failed to initialize Discord client")
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	guideService := service.NewGuideService(data.NewSQLGuideRepository(db), render.NewMarkdown(), roles, log).
		WithCache(guideCache, cfg.Cache.TTL).
		WithMetrics(collector)
	moderatorService := service.NewModeratorService(data.NewSQLModeratorRepository(db), discord, cfg.Roster.Cooldown, log).
		WithMetrics(collector)

	handlers := handler.Handlers{
		Guides:     handler.NewGuideHandler(guideService, log),
		Moderators: handler.NewModeratorHandler(moderatorService, log),
		Auth:       handler.NewAuthHandler(authenticator, sessionManager, roles, log),
		Seo:        handler.NewSeoHandler(guideService, cfg.Server.BaseURL, log),
		Metrics:    metrics.Handler(registry),
	}

	authzMiddleware := middleware.Authorizer(enforcer, sessionManager, log)
	errorMiddleware := middleware.Error(log)

	// --- Router Setup ---
	router := handler.NewRouter(handlers, authzMiddleware, errorMiddleware, sessionManager)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}

// purgeCache drops expired cache entries until ctx is done.
func purgeCache(ctx context.Context, c *cache.Cache, log logger.Logger) {
	ticker := time.NewTicker(cachePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Purge()
			if err != nil {
				log.Error(err, "Failed to purge cache")
				continue
			}
			if n > 0 {
				log.Debug(fmt.Sprintf("Purged %d expired cache entries", n))
			}
		}
	}
}

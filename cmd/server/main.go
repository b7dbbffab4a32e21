package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"newsroom/internal/auth"
	"newsroom/internal/config"
	"newsroom/internal/handler"
	"newsroom/internal/middleware"
	"newsroom/internal/repository/postgres"
	"newsroom/internal/service/authz"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, "server", cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"role_source", cfg.RoleSource,
		"require_verified_email", cfg.RequireVerifiedEmail,
	)

	// The matrix is validated before anything else touches the network.
	catalog, err := authz.LoadCatalog()
	if err != nil {
		log.Fatalf("Failed to load permission catalog: %v", err)
	}

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	poolCfg := postgres.DefaultPoolConfig()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, poolCfg)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", poolCfg.MaxConns,
		"min_conns", poolCfg.MinConns,
	)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		DB:     pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	breaker := postgres.NewStoreBreaker(postgres.DefaultBreakerSettings(), logger)
	identityRepo := breaker.Identities(postgres.NewIdentityRepository(repoConfig))
	ownershipRepo := breaker.Ownership(postgres.NewOwnershipRepository(repoConfig))

	// A zero TTL disables the identity cache
	var identityCache authz.IdentityCache
	if cfg.IdentityCacheTTL > 0 {
		memCache := authz.NewMemoryIdentityCache(cfg.IdentityCacheTTL)
		defer memCache.Close()
		identityCache = memCache
	}

	// Create services
	engine := authz.NewEngine(catalog)
	decisionService := authz.NewDecisionService(
		engine,
		authz.NewIdentityResolver(identityRepo, identityCache, logger),
		authz.NewOwnershipResolver(ownershipRepo),
		authz.DecisionOptions{
			RoleSource:           authz.RoleSource(cfg.RoleSource),
			RequireVerifiedEmail: cfg.RequireVerifiedEmail,
		},
		logger,
	)
	governor := authz.NewPublishGovernor(engine)

	authzHandler := handler.NewAuthzHandler(decisionService, governor, catalog, logger)

	logger.Info("services initialized", "identity_cache_ttl", cfg.IdentityCacheTTL.String())

	// Authenticated API routes (Go 1.22+ enhanced patterns)
	api := http.NewServeMux()
	api.HandleFunc("GET /api/authz/me", authzHandler.Me)
	api.HandleFunc("POST /api/authz/check", authzHandler.Check)
	api.HandleFunc("POST /api/authz/status", authzHandler.Status)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", authzHandler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/api/", middleware.AuthMiddleware(jwtVerifier, logger)(api))

	// Build middleware chain
	// Order: CORS → RequestID → Recovery → Routes
	var handler http.Handler = mux
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestID(handler)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	})
	handler = corsHandler.Handler(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/sneaker-inventory/api/openapi"
	"github.com/benvon/sneaker-inventory/internal/cache"
	"github.com/benvon/sneaker-inventory/internal/config"
	"github.com/benvon/sneaker-inventory/internal/database"
	"github.com/benvon/sneaker-inventory/internal/handlers"
	"github.com/benvon/sneaker-inventory/internal/logger"
	"github.com/benvon/sneaker-inventory/internal/metrics"
	"github.com/benvon/sneaker-inventory/internal/middleware"
	"github.com/benvon/sneaker-inventory/internal/services/inventory"
	"github.com/benvon/sneaker-inventory/internal/services/oidc"
	"github.com/benvon/sneaker-inventory/internal/telemetry"
	"github.com/gorilla/mux"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("firebase_project_id", cfg.FirebaseProjectID),
		zap.Bool("redis_configured", cfg.RedisURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	var tracerProvider *sdktrace.TracerProvider
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, cfg.OTELEndpoint, cfg.OTELSampleRatio)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracerProvider = tp
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(ctx, tracerProvider); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if cfg.AutoMigrate {
		if err := migrate(db, zapLogger); err != nil {
			zapLogger.Fatal("failed_to_apply_migrations", zap.Error(err))
		}
	}

	// Redis is optional; without it idempotency keys are ignored
	var (
		idempotencyStore middleware.IdempotencyStore
		cachePinger      handlers.CachePinger
	)
	if cfg.RedisURL != "" {
		redisClient, err := cache.New(context.Background(), cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		idempotencyStore = redisClient
		cachePinger = redisClient
		zapLogger.Info("connected_to_redis")
	}

	provider, err := oidc.NewFirebaseProvider(cfg.FirebaseProjectID, cfg.FirebaseIssuer, cfg.FirebaseJWKSURL)
	if err != nil {
		zapLogger.Fatal("invalid_firebase_configuration", zap.Error(err))
	}
	jwksManager := oidc.NewJWKSManager(oidc.WithTTL(cfg.JWKSCacheTTL))
	verifier := oidc.NewVerifier(jwksManager, provider)

	collector := metrics.New(true)
	inventoryService := inventory.NewService(db,
		inventory.WithLogger(zapLogger),
		inventory.WithRecorder(collector),
	)

	inventoryHandler := handlers.NewInventoryHandler(inventoryService, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, cachePinger)
	openAPIHandler, err := handlers.NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_spec", zap.Error(err))
	}

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order; the first is outermost
	if tracerProvider != nil {
		r.Use(telemetry.Middleware(telemetry.ServiceName))
	}
	r.Use(collector.Middleware())
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORSFromEnv(cfg.CORSAllowedOrigins, zapLogger))
	r.Use(middleware.MaxRequestSize(cfg.MaxRequestSize, zapLogger))
	r.Use(middleware.ContentType(zapLogger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Recover(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/", handlers.Root).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	openAPIHandler.RegisterRoutes(r)

	inventoryRouter := r.PathPrefix("/api/inventory").Subrouter()
	inventoryRouter.Use(middleware.Auth(verifier, zapLogger))
	inventoryHandler.RegisterRoutes(inventoryRouter,
		middleware.Idempotency(idempotencyStore, cfg.IdempotencyTTL, zapLogger),
	)

	// preflights need a matching route for the CORS middleware to run
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

func migrate(db *database.DB, zapLogger *zap.Logger) error {
	migrator, err := database.NewMigrator(db)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	applied, err := migrator.Up(ctx)
	if err != nil {
		return err
	}
	zapLogger.Info("migrations_applied", zap.Int64s("versions", applied))
	return nil
}

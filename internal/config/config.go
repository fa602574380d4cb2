package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	AutoMigrate       bool

	ServerPort     string
	RequestTimeout time.Duration
	MaxRequestSize int64

	FirebaseProjectID string
	FirebaseIssuer    string
	FirebaseJWKSURL   string
	JWKSCacheTTL      time.Duration

	CORSAllowedOrigins string
	EnableHSTS         bool

	RedisURL       string
	IdempotencyTTL time.Duration

	LogFormat       string
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
	OTELSampleRatio float64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first; variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		AutoMigrate:       getEnvBool("AUTO_MIGRATE", true),

		ServerPort:     getEnv("SERVER_PORT", "8080"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestSize: int64(getEnvInt("MAX_REQUEST_SIZE", 64<<10)),

		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseIssuer:    getEnv("FIREBASE_ISSUER", ""),
		FirebaseJWKSURL:   getEnv("FIREBASE_JWKS_URL", ""),
		JWKSCacheTTL:      getEnvDuration("JWKS_CACHE_TTL", time.Hour),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),

		RedisURL:       getEnv("REDIS_URL", ""),
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		LogFormat:       getEnv("LOG_FORMAT", "json"),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1.0),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.FirebaseProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required to verify ID tokens")
	}

	if cfg.OTELEnabled && cfg.OTELEndpoint == "" {
		return nil, fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set")
	}

	return cfg, nil
}

// DatabaseConfig is the subset cmd/inventoryctl needs; it does not require Firebase settings.
func DatabaseConfig() (string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to load .env file: %w", err)
	}
	url := getEnv("DATABASE_URL", "")
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return url, nil
}

// FirebaseSettings is the subset needed to verify ID tokens outside the server
type FirebaseSettings struct {
	ProjectID    string
	Issuer       string
	JWKSURL      string
	JWKSCacheTTL time.Duration
}

// FirebaseConfig loads the token verification settings without requiring a database.
func FirebaseConfig() (*FirebaseSettings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	fb := &FirebaseSettings{
		ProjectID:    getEnv("FIREBASE_PROJECT_ID", ""),
		Issuer:       getEnv("FIREBASE_ISSUER", ""),
		JWKSURL:      getEnv("FIREBASE_JWKS_URL", ""),
		JWKSCacheTTL: getEnvDuration("JWKS_CACHE_TTL", time.Hour),
	}
	if fb.ProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required to verify ID tokens")
	}
	return fb, nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.ServerPort, ":")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s", "1h") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

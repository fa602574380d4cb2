package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORS creates CORS middleware. An empty list or a "*" entry allows every
// origin, which is what browser clients of the API expect by default.
func CORS(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	origins := normalizeOrigins(allowedOrigins)

	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", IdempotencyKeyHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, IdempotentReplayHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}

	if logger != nil {
		logger.Info("cors_configured", zap.Strings("allowed_origins", origins))
	}

	return cors.New(opts).Handler
}

// CORSFromEnv parses a comma-separated origin list such as CORS_ALLOWED_ORIGINS
func CORSFromEnv(value string, logger *zap.Logger) func(http.Handler) http.Handler {
	return CORS(strings.Split(value, ","), logger)
}

func normalizeOrigins(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, origin := range in {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" || seen[origin] {
			continue
		}
		if origin == "*" {
			return []string{"*"}
		}
		seen[origin] = true
		out = append(out, origin)
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

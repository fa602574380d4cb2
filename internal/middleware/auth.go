package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	logpkg "github.com/benvon/sneaker-inventory/internal/logger"
	"github.com/benvon/sneaker-inventory/internal/models"
	"github.com/benvon/sneaker-inventory/internal/request"
	"github.com/benvon/sneaker-inventory/internal/services/oidc"
	"go.uber.org/zap"
)

const invalidTokenMessage = "Invalid or expired token"

// TokenVerifier turns a bearer token into a verified identity
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// Auth creates authentication middleware that verifies bearer ID tokens and
// stores the resulting identity on the request context. It never touches the
// database; mapping the identity to a user happens in the handler's service.
func Auth(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, r, "Not authenticated", logger)
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				level := logger.Warn
				if !errors.Is(err, oidc.ErrInvalidToken) {
					level = logger.Error
				}
				level("token_verification_failed",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				unauthorized(w, r, invalidTokenMessage, logger)
				return
			}

			ctx := request.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization header. The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string, logger *zap.Logger) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, "Unauthorized", message, logger)
}

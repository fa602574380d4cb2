package middleware

import (
	"net/http"

	logpkg "github.com/benvon/sneaker-inventory/internal/logger"
	"github.com/benvon/sneaker-inventory/internal/request"
	"go.uber.org/zap"
)

// Audit logs security-related events for monitoring and compliance
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r)

			statusCode := wrapped.statusCode
			switch statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				logger.Warn("security_event",
					zap.Int("status_code", statusCode),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
				)
			case http.StatusConflict:
				// replayed idempotency key with a different body
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
				}
				if identity := request.IdentityFromContext(r); identity != nil {
					fields = append(fields, zap.String("subject_id", logpkg.SanitizeSubjectID(identity.SubjectID)))
				}
				logger.Warn("request_conflict", fields...)
			}
		})
	}
}

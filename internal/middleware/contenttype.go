package middleware

import (
	"mime"
	"net/http"

	"go.uber.org/zap"
)

// ContentType requires a JSON Content-Type on requests that carry a body
func ContentType(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
				contentType := r.Header.Get("Content-Type")
				if contentType == "" {
					writeError(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required", logger)
					return
				}

				mediaType, _, err := mime.ParseMediaType(contentType)
				if err != nil || mediaType != "application/json" {
					writeError(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json", logger)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

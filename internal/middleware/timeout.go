package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout is the default request timeout (30 seconds)
	DefaultRequestTimeout = 30 * time.Second

	timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`
)

// Timeout bounds handler run time. The handler's context is cancelled at the
// deadline, which aborts any in-flight transaction, and the client gets a 503.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		handler := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// covers the timeout body; handlers that set their own type overwrite it
			w.Header().Set("Content-Type", "application/json")
			handler.ServeHTTP(w, r)
		})
	}
}

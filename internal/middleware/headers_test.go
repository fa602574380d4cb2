package middleware

import (
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/sneaker-inventory/internal/request"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hsts     bool
		tls      bool
		wantHSTS bool
	}{
		{"hsts disabled", false, true, false},
		{"hsts enabled over tls", true, true, true},
		{"hsts enabled over plain http", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			w := httptest.NewRecorder()
			SecurityHeaders(tt.hsts)(okHandler()).ServeHTTP(w, req)

			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("Expected X-Content-Type-Options nosniff")
			}
			if w.Header().Get("X-Frame-Options") != "DENY" {
				t.Error("Expected X-Frame-Options DENY")
			}
			gotHSTS := w.Header().Get("Strict-Transport-Security") != ""
			if gotHSTS != tt.wantHSTS {
				t.Errorf("Expected HSTS=%v, got %v", tt.wantHSTS, gotHSTS)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"get without content type", http.MethodGet, "", http.StatusOK},
		{"post json", http.MethodPost, "application/json", http.StatusOK},
		{"post json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"post json uppercase", http.MethodPost, "Application/JSON", http.StatusOK},
		{"post missing", http.MethodPost, "", http.StatusBadRequest},
		{"post form", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"post json lookalike", http.MethodPost, "application/jsonp", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/api/inventory/add", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentType(zap.NewNop())(okHandler()).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		for {
			_, err := r.Body.Read(buf)
			if err != nil {
				if errors.Is(err, io.EOF) {
					w.WriteHeader(http.StatusOK)
				} else {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
				}
				return
			}
		}
	})

	tests := []struct {
		name       string
		body       string
		hideLength bool
		wantStatus int
	}{
		{"small body", "{}", false, http.StatusOK},
		{"declared too large", strings.Repeat("x", 200), false, http.StatusRequestEntityTooLarge},
		{"streamed too large", strings.Repeat("x", 200), true, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.hideLength {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			MaxRequestSize(100, zap.NewNop())(readAll).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when missing", "", false},
		{"kept when well formed", "abc-123", true},
		{"replaced when malformed", "bad id\nwith newline", false},
		{"replaced when too long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = request.RequestIDFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			RequestID(next).ServeHTTP(w, req)

			if seen == "" {
				t.Fatal("Expected a request id on the context")
			}
			if w.Header().Get(RequestIDHeader) != seen {
				t.Errorf("Expected response header %q, got %q", seen, w.Header().Get(RequestIDHeader))
			}
			if tt.keep && seen != tt.incoming {
				t.Errorf("Expected incoming id %q to be kept, got %q", tt.incoming, seen)
			}
			if !tt.keep && seen == tt.incoming {
				t.Errorf("Expected incoming id %q to be replaced", tt.incoming)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		origins   string
		origin    string
		wantAllow bool
	}{
		{"wildcard allows any origin", "*", "https://app.example.com", true},
		{"empty config allows any origin", "", "https://app.example.com", true},
		{"listed origin", "https://app.example.com, https://admin.example.com", "https://admin.example.com", true},
		{"unlisted origin", "https://app.example.com", "https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodOptions, "/api/inventory/add", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
			w := httptest.NewRecorder()

			CORSFromEnv(tt.origins, zap.NewNop())(okHandler()).ServeHTTP(w, req)

			got := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantAllow && got == "" {
				t.Errorf("Expected origin %q to be allowed", tt.origin)
			}
			if !tt.wantAllow && got != "" {
				t.Errorf("Expected origin %q to be rejected, got %q", tt.origin, got)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	Timeout(20*time.Millisecond)(slow).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Request timed out") {
		t.Errorf("Expected timeout body, got %q", w.Body.String())
	}
}

func TestAudit_LogsUnauthorized(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	core, logs := newObservedLogger()
	Audit(core)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/inventory", nil))

	if logs.FilterMessage("security_event").Len() != 1 {
		t.Errorf("Expected one security_event, got %d", logs.FilterMessage("security_event").Len())
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/sneaker-inventory/internal/models"
	"github.com/benvon/sneaker-inventory/internal/request"
	"github.com/benvon/sneaker-inventory/internal/services/oidc"
	"go.uber.org/zap"
)

type stubVerifier struct {
	token    string
	identity *models.Identity
	err      error
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*models.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, fmt.Errorf("%w: unexpected token", oidc.ErrInvalidToken)
	}
	return s.identity, nil
}

func TestAuth(t *testing.T) {
	t.Parallel()

	identity := &models.Identity{SubjectID: "uid-1", Email: "a@x.com"}
	verifier := &stubVerifier{token: "good-token", identity: identity}

	tests := []struct {
		name        string
		header      string
		verifier    TokenVerifier
		wantStatus  int
		wantMessage string
	}{
		{"valid bearer", "Bearer good-token", verifier, http.StatusOK, ""},
		{"lowercase scheme", "bearer good-token", verifier, http.StatusOK, ""},
		{"missing header", "", verifier, http.StatusUnauthorized, "Not authenticated"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", verifier, http.StatusUnauthorized, "Not authenticated"},
		{"scheme only", "Bearer", verifier, http.StatusUnauthorized, "Not authenticated"},
		{"bad token", "Bearer forged", verifier, http.StatusUnauthorized, "Invalid or expired token"},
		{"verifier unavailable", "Bearer good-token", &stubVerifier{err: errors.New("jwks down")}, http.StatusUnauthorized, "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen *models.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = request.IdentityFromContext(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/inventory", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Auth(tt.verifier, zap.NewNop())(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if seen != identity {
					t.Errorf("Expected identity on context, got %+v", seen)
				}
				return
			}

			if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("Expected WWW-Authenticate 'Bearer', got %q", got)
			}
			var body ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, body.Message)
			}
		})
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/sneaker-inventory/api/openapi"
	"github.com/gorilla/mux"
)

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	h, err := NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		t.Fatalf("NewOpenAPIHandler() error = %v", err)
	}
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/x-yaml" {
			t.Errorf("Unexpected Content-Type %q", ct)
		}
		if rr.Body.Len() != len(openapi.Spec) {
			t.Errorf("Expected the embedded document verbatim")
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}

		var doc map[string]any
		if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
			t.Fatalf("Failed to decode JSON document: %v", err)
		}
		paths, ok := doc["paths"].(map[string]any)
		if !ok {
			t.Fatalf("Expected paths object, got %T", doc["paths"])
		}
		for _, p := range []string{"/", "/api/inventory", "/api/inventory/add"} {
			if _, ok := paths[p]; !ok {
				t.Errorf("Expected path %s to be documented", p)
			}
		}
	})
}

func TestNewOpenAPIHandler_InvalidYAML(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAPIHandler([]byte("openapi: [unclosed")); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

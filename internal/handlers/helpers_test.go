package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	respondJSON(rr, http.StatusCreated, "done", map[string]string{"k": "v"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	body := decodeEnvelope(t, rr)
	if success, ok := body["success"].(bool); !ok || !success {
		t.Error("Expected success to be true")
	}
	if body["message"] != "done" {
		t.Errorf("Expected message 'done', got %v", body["message"])
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Error("Expected timestamp to be present")
	}
	if _, ok := body["error"]; ok {
		t.Error("Expected no error field on success")
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["k"] != "v" {
		t.Errorf("Expected data {k:v}, got %v", body["data"])
	}
}

func TestRespondJSON_NilDataOmitted(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	respondJSON(rr, http.StatusOK, "hi", nil)

	body := decodeEnvelope(t, rr)
	if _, ok := body["data"]; ok {
		t.Errorf("Expected data to be omitted, got %v", body["data"])
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		message     string
		wantMessage string
	}{
		{"short message", "Invalid request body", "Invalid request body"},
		{"long message truncated", strings.Repeat("x", 250), strings.Repeat("x", 200) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := httptest.NewRecorder()
			respondJSONError(rr, http.StatusBadRequest, "Bad Request", tt.message)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rr.Code)
			}
			body := decodeEnvelope(t, rr)
			if success, _ := body["success"].(bool); success {
				t.Error("Expected success to be false")
			}
			if body["error"] != "Bad Request" {
				t.Errorf("Expected error 'Bad Request', got %v", body["error"])
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("Expected message %q, got %v", tt.wantMessage, body["message"])
			}
		})
	}
}

func TestRoot(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	Root(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	body := decodeEnvelope(t, rr)
	if body["message"] != "Welcome to the Sneaker API. Server is running." {
		t.Errorf("Unexpected message %v", body["message"])
	}
}

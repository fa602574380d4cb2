package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope is the body shape shared by every JSON response
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// respondJSON sends a success envelope
func respondJSON(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// respondJSONError sends an error envelope with a length-capped message
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeEnvelope(w, status, envelope{
		Success: false,
		Error:   errorType,
		Message: sanitizeErrorMessage(message),
	})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

const maxErrorMessageLength = 200

// sanitizeErrorMessage keeps client-facing messages short
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

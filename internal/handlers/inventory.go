package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	logpkg "github.com/benvon/sneaker-inventory/internal/logger"
	"github.com/benvon/sneaker-inventory/internal/models"
	"github.com/benvon/sneaker-inventory/internal/request"
	"github.com/benvon/sneaker-inventory/internal/services/inventory"
	"github.com/benvon/sneaker-inventory/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// InventoryWriter is the slice of the inventory service the handlers need
type InventoryWriter interface {
	AddItem(ctx context.Context, identity *models.Identity, req *models.ShoeCreateRequest) (*inventory.AddResult, error)
}

// InventoryHandler serves the authenticated inventory routes
type InventoryHandler struct {
	service InventoryWriter
	logger  *zap.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service InventoryWriter, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{service: service, logger: logger}
}

// InventoryPreview is the placeholder body returned by GET /api/inventory
type InventoryPreview struct {
	UserID string `json:"user_id"`
	Note   string `json:"note"`
}

// RegisterRoutes registers inventory routes on a router already prefixed
// with /api/inventory and guarded by Auth. addMiddleware wraps only the
// write route.
func (h *InventoryHandler) RegisterRoutes(r *mux.Router, addMiddleware ...mux.MiddlewareFunc) {
	r.HandleFunc("", h.GetInventory).Methods(http.MethodGet)

	var add http.Handler = http.HandlerFunc(h.AddItem)
	for i := len(addMiddleware) - 1; i >= 0; i-- {
		add = addMiddleware[i](add)
	}
	r.Handle("/add", add).Methods(http.MethodPost)
}

// GetInventory confirms the caller is authenticated
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, "Authentication successful!", InventoryPreview{
		UserID: identity.SubjectID,
		Note:   "This is where the user's shoes will go.",
	})
}

// AddItem stores a shoe for the caller, creating or rebinding their user row as needed
func (h *InventoryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Not authenticated")
		return
	}

	var req models.ShoeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body is too large")
		case errors.Is(err, io.EOF):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Request body is required")
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		}
		return
	}

	if err := validation.ShoeCreateRequest(&req); err != nil {
		if !validation.IsValidationError(err) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", validation.Describe(err)))
		return
	}

	result, err := h.service.AddItem(r.Context(), identity, &req)
	if err != nil {
		if errors.Is(err, inventory.ErrIdentityMissing) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Token is missing required identity claims")
			return
		}
		h.logger.Error("inventory_add_request_failed",
			zap.String("request_id", request.RequestIDFromContext(r.Context())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to add item to inventory")
		return
	}

	respondJSON(w, http.StatusCreated, fmt.Sprintf("Successfully added %s to inventory!", result.Item.Name), result.Item)
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/sneaker-inventory/internal/database"
	"github.com/benvon/sneaker-inventory/internal/database/dbtest"
	"github.com/benvon/sneaker-inventory/internal/middleware"
	"github.com/benvon/sneaker-inventory/internal/models"
	"github.com/benvon/sneaker-inventory/internal/services/inventory"
	"github.com/benvon/sneaker-inventory/internal/services/oidc"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// tokenTable maps bearer tokens to identities
type tokenTable map[string]*models.Identity

func (tt tokenTable) Verify(_ context.Context, token string) (*models.Identity, error) {
	if id, ok := tt[token]; ok {
		return id, nil
	}
	return nil, fmt.Errorf("%w: unknown token", oidc.ErrInvalidToken)
}

var testTokens = tokenTable{
	"alice":     {SubjectID: "uid-alice", Email: "alice@example.com"},
	"bob":       {SubjectID: "uid-bob", Email: "bob@example.com"},
	"alice-new": {SubjectID: "uid-alice-2", Email: "alice@example.com"},
	"no-email":  {SubjectID: "uid-anon", Email: ""},
}

func newInventoryRouter(t *testing.T, writer InventoryWriter) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/", Root).Methods(http.MethodGet)
	api := r.PathPrefix("/api/inventory").Subrouter()
	api.Use(middleware.Auth(testTokens, zap.NewNop()))
	NewInventoryHandler(writer, zap.NewNop()).RegisterRoutes(api)
	return r
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

const airMax = `{"upc":"123456789012","name":"Air Max 90","size":"10","condition":"New","purchase_price":120.0}`

func TestInventoryHandler_GetInventory(t *testing.T) {
	t.Parallel()

	r := newInventoryRouter(t, nil)

	t.Run("authenticated", func(t *testing.T) {
		t.Parallel()
		rr := do(r, http.MethodGet, "/api/inventory", "alice", "")
		require.Equal(t, http.StatusOK, rr.Code)

		body := decodeEnvelope(t, rr)
		assert.Equal(t, "Authentication successful!", body["message"])
		data, ok := body["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "uid-alice", data["user_id"])
		assert.Equal(t, "This is where the user's shoes will go.", data["note"])
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		rr := do(r, http.MethodGet, "/api/inventory", "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
	})

	t.Run("invalid token", func(t *testing.T) {
		t.Parallel()
		rr := do(r, http.MethodGet, "/api/inventory", "forged", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		body := decodeEnvelope(t, rr)
		assert.Equal(t, "Invalid or expired token", body["message"])
	})
}

func TestInventoryHandler_AddItem(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	r := newInventoryRouter(t, inventory.NewService(db))

	rr := do(r, http.MethodPost, "/api/inventory/add", "alice", airMax)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeEnvelope(t, rr)
	assert.Equal(t, "Successfully added Air Max 90 to inventory!", body["message"])
	item, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "In Stock", item["status"])
	assert.Equal(t, "123456789012", item["upc"])
	assert.EqualValues(t, 120, item["purchase_price"])

	ctx := context.Background()
	user, err := database.NewUserRepository(db.Gorm()).GetBySubjectID(ctx, "uid-alice")
	require.NoError(t, err)
	assert.EqualValues(t, user.ID, item["owner_id"])

	// the same email with a new uid rebinds rather than creating a second user
	rr = do(r, http.MethodPost, "/api/inventory/add", "alice-new", airMax)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rebound, err := database.NewUserRepository(db.Gorm()).GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, rebound.ID)
	assert.Equal(t, "uid-alice-2", rebound.FirebaseUID)

	count, err := database.NewInventoryRepository(db.Gorm()).CountByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestInventoryHandler_AddItemRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		token       string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "no token",
			body:       airMax,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:        "malformed json",
			token:       "bob",
			body:        `{"upc":`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid request body",
		},
		{
			name:        "wrong field type",
			token:       "bob",
			body:        `{"upc":"123456","name":"X","size":"9","condition":"New","purchase_price":"cheap"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid request body",
		},
		{
			name:        "missing price",
			token:       "bob",
			body:        `{"upc":"123456","name":"X","size":"9","condition":"New"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed: purchase_price is required",
		},
		{
			name:        "bad upc and blank name",
			token:       "bob",
			body:        `{"upc":"12ab","name":"   ","size":"9","condition":"New","purchase_price":10}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed: name is required; upc must be 6-14 digits",
		},
		{
			name:        "negative price",
			token:       "bob",
			body:        `{"upc":"123456","name":"X","size":"9","condition":"New","purchase_price":-1}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed: purchase_price must be greater than or equal to 0",
		},
		{
			name:        "token without email",
			token:       "no-email",
			body:        airMax,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token is missing required identity claims",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := dbtest.New(t)
			r := newInventoryRouter(t, inventory.NewService(db))

			rr := do(r, http.MethodPost, "/api/inventory/add", tt.token, tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantMessage != "" {
				body := decodeEnvelope(t, rr)
				assert.Equal(t, tt.wantMessage, body["message"])
			}

			var users int64
			require.NoError(t, db.Gorm().Model(&models.User{}).Count(&users).Error)
			assert.Zero(t, users, "rejected requests must not create users")
		})
	}
}

func TestInventoryHandler_AddItemAcceptsFreeFormUPC(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t)
	r := newInventoryRouter(t, inventory.NewService(db))

	for _, upc := range []string{"ABC123", "12345", "0-12345-67890-5", "B07XYZ1234"} {
		body := `{"upc":"` + upc + `","name":"Samba OG","size":"9","condition":"Used","purchase_price":80}`
		rr := do(r, http.MethodPost, "/api/inventory/add", "bob", body)
		require.Equal(t, http.StatusCreated, rr.Code, "upc %q: %s", upc, rr.Body.String())

		item, ok := decodeEnvelope(t, rr)["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, upc, item["upc"])
	}
}

type failingWriter struct{}

func (failingWriter) AddItem(context.Context, *models.Identity, *models.ShoeCreateRequest) (*inventory.AddResult, error) {
	return nil, errors.New("failed to add inventory item: connection reset by peer")
}

func TestInventoryHandler_AddItemPersistenceFailure(t *testing.T) {
	t.Parallel()

	r := newInventoryRouter(t, failingWriter{})
	rr := do(r, http.MethodPost, "/api/inventory/add", "bob", airMax)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeEnvelope(t, rr)
	assert.Equal(t, "Failed to add item to inventory", body["message"])
	assert.NotContains(t, rr.Body.String(), "connection reset")
}

func TestInventoryHandler_AddMiddlewareWrapsOnlyAdd(t *testing.T) {
	t.Parallel()

	var wrapped []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped = append(wrapped, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/inventory").Subrouter()
	api.Use(middleware.Auth(testTokens, zap.NewNop()))
	NewInventoryHandler(failingWriter{}, nil).RegisterRoutes(api, mw)

	do(r, http.MethodGet, "/api/inventory", "bob", "")
	do(r, http.MethodPost, "/api/inventory/add", "bob", airMax)

	assert.Equal(t, []string{"/api/inventory/add"}, wrapped)
}

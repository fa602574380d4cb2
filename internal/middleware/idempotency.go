package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	logpkg "github.com/benvon/sneaker-inventory/internal/logger"
	"github.com/benvon/sneaker-inventory/internal/request"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the optional client-chosen request key
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the idempotency store
	IdempotentReplayHeader = "Idempotent-Replayed"

	// DefaultIdempotencyTTL is how long a stored response can be replayed
	DefaultIdempotencyTTL = 24 * time.Hour

	maxIdempotencyKeyLength = 255
)

// ErrIdempotencyMiss is returned by IdempotencyStore.Get when nothing is stored under a key
var ErrIdempotencyMiss = errors.New("idempotency record not found")

// IdempotencyStore persists captured responses. The redis cache implements it.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

type idempotencyRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

// Idempotency replays the first response for a repeated Idempotency-Key. Keys
// are scoped to the caller's subject id, method and path, so it must run after
// Auth. Requests without the header pass straight through; a nil store
// disables the middleware.
func Idempotency(store IdempotencyStore, ttl time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}

	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(idempotencyKey) > maxIdempotencyKeyLength {
				writeError(w, r, http.StatusBadRequest, "Bad Request", "Idempotency-Key is too long", logger)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body is too large", logger)
					return
				}
				writeError(w, r, http.StatusBadRequest, "Bad Request", "Failed to read request body", logger)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := idempotencyStoreKey(r, idempotencyKey)

			stored, err := store.Get(r.Context(), key)
			switch {
			case err == nil:
				record, decodeErr := decodeRecord(stored)
				if decodeErr != nil {
					logger.Error("idempotency_record_decode_failed", zap.String("error", logpkg.SanitizeError(decodeErr)))
					writeError(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", logger)
					return
				}
				if record.RequestHash != requestHash {
					writeError(w, r, http.StatusConflict, "Conflict", "Idempotency-Key was already used with a different request body", logger)
					return
				}
				writeStoredResponse(w, record)
				return
			case errors.Is(err, ErrIdempotencyMiss):
			default:
				// the store is an optimisation; serve the request without it
				logger.Warn("idempotency_lookup_failed", zap.String("error", logpkg.SanitizeError(err)))
				next.ServeHTTP(w, r)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := defaultStatus(rec.status)
			if status >= http.StatusInternalServerError {
				return
			}

			record := idempotencyRecord{
				Status:      status,
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				RequestHash: requestHash,
			}
			if ct := rec.Header().Get("Content-Type"); ct != "" {
				record.Headers = map[string]string{"Content-Type": ct}
			}

			payload, err := json.Marshal(record)
			if err != nil {
				logger.Error("idempotency_record_encode_failed", zap.String("error", logpkg.SanitizeError(err)))
				return
			}

			// the caller's context may already be done once the response is written
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
			defer cancel()
			if _, err := store.SetNX(saveCtx, key, string(payload), ttl); err != nil {
				logger.Warn("idempotency_record_save_failed", zap.String("error", logpkg.SanitizeError(err)))
			}
		})
	}
}

func idempotencyStoreKey(r *http.Request, key string) string {
	subject := ""
	if identity := request.IdentityFromContext(r); identity != nil {
		subject = identity.SubjectID
	}
	scope := strings.Join([]string{subject, r.Method, r.URL.Path, key}, "|")
	sum := sha256.Sum256([]byte(scope))
	return "idempotency:" + base64.RawURLEncoding.EncodeToString(sum[:])
}

func decodeRecord(payload string) (*idempotencyRecord, error) {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func writeStoredResponse(w http.ResponseWriter, record *idempotencyRecord) {
	if ct, ok := record.Headers["Content-Type"]; ok && ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set(IdempotentReplayHeader, "true")
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func defaultStatus(value int) int {
	if value == 0 {
		return http.StatusOK
	}
	return value
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

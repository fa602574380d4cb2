package oidc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

const (
	defaultJWKSTTL            = 1 * time.Hour
	defaultMinRefreshInterval = 1 * time.Minute
	maxJWKSResponseSize       = 1 << 20
)

// JWKSCache is one fetched key set. Entries are replaced, never mutated.
type JWKSCache struct {
	keys    jwk.Set
	expires time.Time
}

// JWKSManager manages JWKS fetching and caching
type JWKSManager struct {
	cache       map[string]*JWKSCache
	lastAttempt map[string]time.Time
	mu          sync.RWMutex

	// held across the interval check and the fetch
	refreshMu sync.Mutex

	ttl                time.Duration
	minRefreshInterval time.Duration
	client             *http.Client
	now                func() time.Time
}

// JWKSOption configures a JWKSManager
type JWKSOption func(*JWKSManager)

// WithTTL sets how long a fetched key set is served from cache
func WithTTL(ttl time.Duration) JWKSOption {
	return func(m *JWKSManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithMinRefreshInterval sets the shortest gap between two fetches of the
// same URL while a key set for it is cached.
func WithMinRefreshInterval(d time.Duration) JWKSOption {
	return func(m *JWKSManager) {
		if d >= 0 {
			m.minRefreshInterval = d
		}
	}
}

// WithHTTPClient replaces the client used to fetch key sets
func WithHTTPClient(client *http.Client) JWKSOption {
	return func(m *JWKSManager) {
		if client != nil {
			m.client = client
		}
	}
}

// NewJWKSManager creates a new JWKS manager
func NewJWKSManager(opts ...JWKSOption) *JWKSManager {
	m := &JWKSManager{
		cache:              make(map[string]*JWKSCache),
		lastAttempt:        make(map[string]time.Time),
		ttl:                defaultJWKSTTL,
		minRefreshInterval: defaultMinRefreshInterval,
		client:             &http.Client{Timeout: 10 * time.Second},
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetJWKS retrieves JWKS for a given JWKS URL, with caching
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.RLock()
	cached, exists := m.cache[jwksURL]
	m.mu.RUnlock()

	if exists && m.now().Before(cached.expires) {
		return cached.keys, nil
	}

	return m.Refresh(ctx, jwksURL)
}

// Refresh fetches the key set and replaces any cached copy. Used when a
// token names a key id the cached set does not contain. While a set is
// cached, at most one fetch per URL happens per minimum refresh interval;
// inside that window the cached set is returned unchanged.
func (m *JWKSManager) Refresh(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	now := m.now()

	m.mu.RLock()
	cached, exists := m.cache[jwksURL]
	last := m.lastAttempt[jwksURL]
	m.mu.RUnlock()

	if exists && now.Sub(last) < m.minRefreshInterval {
		return cached.keys, nil
	}

	m.mu.Lock()
	m.lastAttempt[jwksURL] = now
	m.mu.Unlock()

	keys, err := m.fetchJWKS(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	m.mu.Lock()
	m.cache[jwksURL] = &JWKSCache{
		keys:    keys,
		expires: now.Add(m.ttl),
	}
	m.mu.Unlock()

	return keys, nil
}

func (m *JWKSManager) fetchJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keys, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	return keys, nil
}

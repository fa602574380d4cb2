package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/sneaker-inventory/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken is wrapped by every verification failure
var ErrInvalidToken = errors.New("invalid or expired token")

const (
	// clockSkew tolerated on exp, iat and auth_time
	clockSkew = 60 * time.Second
	// maxSubjectLength is the Firebase limit on uid length
	maxSubjectLength = 128
)

// Verifier verifies Firebase ID tokens
type Verifier struct {
	jwksManager *JWKSManager
	provider    *Provider
	clock       func() time.Time
}

// NewVerifier creates a new ID token verifier for provider
func NewVerifier(jwksManager *JWKSManager, provider *Provider) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		provider:    provider,
		clock:       time.Now,
	}
}

// Verify checks the signature and claims of an ID token and returns the
// identity it asserts. All failures wrap ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	kid, err := signingKeyID(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	keys, err := v.jwksManager.GetJWKS(ctx, v.provider.JWKSURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, ok := keys.LookupKeyID(kid); !ok {
		// keys rotate; the cached set may predate this token
		keys, err = v.jwksManager.Refresh(ctx, v.provider.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if _, ok := keys.LookupKeyID(kid); !ok {
			return nil, fmt.Errorf("%w: unknown key id %q", ErrInvalidToken, kid)
		}
	}

	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKeySet(keys, jws.WithRequireKid(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.provider.Issuer),
		jwt.WithAudience(v.provider.Audience()),
		jwt.WithAcceptableSkew(clockSkew),
		jwt.WithClock(jwt.ClockFunc(v.clock)),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithRequiredClaim(jwt.IssuedAtKey),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub := token.Subject()
	if sub == "" || len(sub) > maxSubjectLength {
		return nil, fmt.Errorf("%w: subject must be 1-%d characters", ErrInvalidToken, maxSubjectLength)
	}

	if authTime, ok := numericClaim(token, "auth_time"); ok {
		if time.Unix(authTime, 0).After(v.clock().Add(clockSkew)) {
			return nil, fmt.Errorf("%w: auth_time is in the future", ErrInvalidToken)
		}
	}

	identity := &models.Identity{
		SubjectID: sub,
		Issuer:    token.Issuer(),
		ExpiresAt: token.Expiration().Unix(),
		IssuedAt:  token.IssuedAt().Unix(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		identity.Audience = aud[0]
	}
	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			identity.Email = emailStr
		}
	}
	if verified, ok := token.Get("email_verified"); ok {
		if verifiedBool, ok := verified.(bool); ok {
			identity.EmailVerified = verifiedBool
		}
	}

	return identity, nil
}

// signingKeyID reads the kid from the protected header and rejects anything
// not signed with RS256.
func signingKeyID(tokenString string) (string, error) {
	msg, err := jws.Parse([]byte(tokenString))
	if err != nil {
		return "", fmt.Errorf("malformed token: %w", err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return "", fmt.Errorf("expected exactly one signature, got %d", len(sigs))
	}
	headers := sigs[0].ProtectedHeaders()
	if headers.Algorithm() != jwa.RS256 {
		return "", fmt.Errorf("unexpected signing algorithm %q", headers.Algorithm())
	}
	kid := headers.KeyID()
	if kid == "" {
		return "", fmt.Errorf("token has no key id")
	}
	return kid, nil
}

func numericClaim(token jwt.Token, name string) (int64, bool) {
	v, ok := token.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

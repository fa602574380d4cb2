package oidc

import (
	"fmt"
	"strings"
)

const (
	// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	// firebaseIssuerPrefix is followed by the project id in the iss claim
	firebaseIssuerPrefix = "https://securetoken.google.com/"
)

// Provider describes the token issuer a Verifier trusts
type Provider struct {
	ProjectID string
	Issuer    string
	JWKSURL   string
}

// NewFirebaseProvider derives the issuer and key endpoint for a Firebase
// project. Empty overrides fall back to Google's published values.
func NewFirebaseProvider(projectID, issuer, jwksURL string) (*Provider, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}
	if issuer == "" {
		issuer = firebaseIssuerPrefix + projectID
	}
	if jwksURL == "" {
		jwksURL = FirebaseJWKSURL
	}
	return &Provider{
		ProjectID: projectID,
		Issuer:    issuer,
		JWKSURL:   jwksURL,
	}, nil
}

// Audience is the aud claim Firebase puts in ID tokens: the project id.
func (p *Provider) Audience() string {
	return p.ProjectID
}

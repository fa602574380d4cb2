package models

// Identity is what a verified Firebase ID token tells us about the caller.
// It carries facts only; mapping it to a local User happens in the inventory service.
type Identity struct {
	SubjectID     string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Issuer        string `json:"iss"`
	Audience      string `json:"aud"`
	ExpiresAt     int64  `json:"exp"`
	IssuedAt      int64  `json:"iat"`
}

package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Confirmation binds a token to a proof-of-possession key (RFC 9449).
type Confirmation struct {
	JKT string `json:"jkt,omitempty"`
}

// AccessClaims are the claims of a JWT-formatted access token.
type AccessClaims struct {
	jwt.RegisteredClaims

	ClientID string        `json:"client_id"`
	Scope    string        `json:"scope,omitempty"`
	GrantID  string        `json:"grant_id,omitempty"`
	Cnf      *Confirmation `json:"cnf,omitempty"`
}

// IDTokenClaims are the OpenID Connect ID token claims.
type IDTokenClaims struct {
	jwt.RegisteredClaims

	AuthTime *jwt.NumericDate `json:"auth_time,omitempty"`
	ACR      string           `json:"acr,omitempty"`
	AMR      []string         `json:"amr,omitempty"`
	Nonce    string           `json:"nonce,omitempty"`
	SID      string           `json:"sid,omitempty"`
	AZP      string           `json:"azp,omitempty"`
	AtHash   string           `json:"at_hash,omitempty"`
	CHash    string           `json:"c_hash,omitempty"`
}

// LineageClaims record what a long-lived access token was derived from.
// Tokens are listed by fingerprint only.
type LineageClaims struct {
	jwt.RegisteredClaims

	ClientID      string   `json:"client_id"`
	Scopes        []string `json:"scopes,omitempty"`
	ParentGrantID string   `json:"parent_grant_id,omitempty"`
	AccessTokens  []string `json:"access_tokens,omitempty"`
	RefreshTokens []string `json:"refresh_tokens,omitempty"`
	IDToken       string   `json:"id_token,omitempty"`
}

// Registered fills the standard claims for a token valid from now for ttl.
func Registered(issuer, subject string, audience []string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings(audience),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

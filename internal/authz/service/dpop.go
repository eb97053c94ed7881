package service

import (
	"crypto"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// DPoPHeader is the request header carrying a proof (RFC 9449).
const DPoPHeader = "DPoP"

const dpopType = "dpop+jwt"

// DefaultDPoPMaxAge bounds how far iat may be from now.
const DefaultDPoPMaxAge = 5 * time.Minute

var dpopAlgs = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.EdDSA,
}

// DPoPValidator checks proof-of-possession proofs. It does not keep a jti
// replay cache; iat bounds how long a proof is usable.
type DPoPValidator struct {
	MaxAge time.Duration
	Now    func() time.Time
}

type dpopClaims struct {
	JTI string `json:"jti"`
	HTM string `json:"htm"`
	HTU string `json:"htu"`
	IAT int64  `json:"iat"`
}

// Validate verifies proof for a request with method and target URL and
// returns the JWK SHA-256 thumbprint the issued token is bound to.
func (v *DPoPValidator) Validate(proof, method, target string) (string, error) {
	invalid := func(desc string) error { return newError(ErrInvalidDPoPProof, desc) }

	jws, err := jose.ParseSigned(strings.TrimSpace(proof), dpopAlgs)
	if err != nil {
		return "", invalid("malformed proof")
	}
	if len(jws.Signatures) != 1 {
		return "", invalid("proof must have one signature")
	}
	h := jws.Signatures[0].Header

	if typ, _ := h.ExtraHeaders[jose.HeaderType].(string); !strings.EqualFold(typ, dpopType) {
		return "", invalid("typ must be dpop+jwt")
	}
	if h.JSONWebKey == nil || !h.JSONWebKey.Valid() {
		return "", invalid("proof must embed a jwk")
	}
	if !h.JSONWebKey.IsPublic() {
		return "", invalid("embedded jwk must be a public key")
	}

	payload, err := jws.Verify(h.JSONWebKey)
	if err != nil {
		return "", invalid("signature verification failed")
	}

	var c dpopClaims
	if err := json.Unmarshal(payload, &c); err != nil {
		return "", invalid("malformed claims")
	}
	if c.JTI == "" {
		return "", invalid("jti is required")
	}
	if !strings.EqualFold(c.HTM, method) {
		return "", invalid("htm does not match")
	}
	if !sameHTU(c.HTU, target) {
		return "", invalid("htu does not match")
	}

	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	maxAge := v.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultDPoPMaxAge
	}
	iat := time.Unix(c.IAT, 0)
	if c.IAT == 0 || iat.Before(now.Add(-maxAge)) || iat.After(now.Add(maxAge)) {
		return "", invalid("iat out of range")
	}

	thumb, err := h.JSONWebKey.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("dpop thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(thumb), nil
}

// sameHTU compares URLs without query and fragment.
func sameHTU(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) &&
		strings.EqualFold(ua.Host, ub.Host) &&
		ua.Path == ub.Path
}

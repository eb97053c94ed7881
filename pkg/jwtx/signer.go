package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// Supported JWT signing algorithms.
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer signs JWTs with one private key. The algorithm follows the key
// type: RSA signs RS256, P-256 signs ES256, Ed25519 signs EdDSA.
type Signer struct {
	kid    string
	key    crypto.Signer
	method jwt.SigningMethod
}

// NewSigner wraps key for signing under kid.
func NewSigner(kid string, key crypto.Signer) (*Signer, error) {
	if kid == "" {
		return nil, errors.New("jwtx: signer kid is required")
	}

	var method jwt.SigningMethod
	switch k := key.(type) {
	case *rsa.PrivateKey:
		if k.N.BitLen() < 2048 {
			return nil, errors.New("jwtx: RSA key must be at least 2048 bits")
		}
		method = jwt.SigningMethodRS256
	case *ecdsa.PrivateKey:
		if k.Curve != elliptic.P256() {
			return nil, errors.New("jwtx: only P-256 ECDSA keys are supported")
		}
		method = jwt.SigningMethodES256
	case ed25519.PrivateKey:
		method = jwt.SigningMethodEdDSA
	case nil:
		return nil, errors.New("jwtx: nil signing key")
	default:
		return nil, fmt.Errorf("jwtx: unsupported signing key %T", key)
	}

	return &Signer{kid: kid, key: key, method: method}, nil
}

func (s *Signer) Alg() string { return s.method.Alg() }
func (s *Signer) KID() string { return s.kid }

// Sign serializes claims as a compact JWS with the kid header set.
func (s *Signer) Sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.kid
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// PublicJWK returns the verification key for publishing in a JWKS.
func (s *Signer) PublicJWK() jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       s.key.Public(),
		KeyID:     s.kid,
		Algorithm: s.Alg(),
		Use:       "sig",
	}
}

// PrivateKey exposes the key so it can be sealed for storage.
func (s *Signer) PrivateKey() crypto.Signer { return s.key }

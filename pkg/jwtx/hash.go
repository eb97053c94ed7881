package jwtx

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"strings"
)

// HashClaim computes an OIDC at_hash or c_hash value: the base64url encoding
// of the left half of the digest of value. The digest follows the signing
// algorithm of the ID token, with EdDSA using SHA-512.
func HashClaim(alg, value string) string {
	if value == "" {
		return ""
	}
	h := hashForAlg(alg)
	h.Write([]byte(value))
	sum := h.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2])
}

func hashForAlg(alg string) hash.Hash {
	switch {
	case alg == AlgorithmEdDSA, strings.HasSuffix(alg, "512"):
		return sha512.New()
	case strings.HasSuffix(alg, "384"):
		return sha512.New384()
	default:
		return sha256.New()
	}
}

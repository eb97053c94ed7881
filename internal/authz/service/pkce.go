package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

// PKCE methods.
const (
	PKCEMethodS256  = "S256"
	PKCEMethodPlain = "plain"
)

// validatePKCE normalizes the challenge parameters of an authorization
// request. Public clients and FAPI always need a challenge, and FAPI only
// accepts S256.
func validatePKCE(challenge, method string, client domain.Client, fapi bool) (string, string, error) {
	challenge = strings.TrimSpace(challenge)
	method = strings.TrimSpace(method)

	if fapi {
		if challenge == "" {
			return "", "", newError(ErrInvalidRequest, "code_challenge is required")
		}
		if method == "" || strings.EqualFold(method, PKCEMethodPlain) {
			return "", "", newError(ErrInvalidRequest, "code_challenge_method must be S256")
		}
	}

	if challenge == "" {
		if client.IsPublic() {
			return "", "", newError(ErrInvalidRequest, "code_challenge is required for public clients")
		}
		return "", "", nil
	}

	switch {
	case strings.EqualFold(method, PKCEMethodS256):
		return challenge, PKCEMethodS256, nil
	case strings.EqualFold(method, PKCEMethodPlain), method == "":
		// RFC 7636 4.3: an absent method means plain.
		return challenge, PKCEMethodPlain, nil
	default:
		return "", "", newError(ErrInvalidRequest, "unsupported code_challenge_method")
	}
}

// verifyCodeVerifier checks a code_verifier against the stored challenge.
// No stored challenge accepts any verifier.
func verifyCodeVerifier(challenge, method, verifier string) bool {
	challenge = strings.TrimSpace(challenge)
	if challenge == "" {
		return true
	}

	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return false
	}

	switch {
	case method == "" || strings.EqualFold(method, PKCEMethodPlain):
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(verifier)) == 1
	case strings.EqualFold(method, PKCEMethodS256):
		sum := sha256.Sum256([]byte(verifier))
		expected := base64.RawURLEncoding.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(expected)) == 1
	default:
		return false
	}
}

// S256Challenge derives the S256 code_challenge for verifier.
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

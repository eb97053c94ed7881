package requestobject

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

const (
	// DefaultClockSkew is tolerated on nbf.
	DefaultClockSkew = 60 * time.Second

	// MaxFAPILifetime bounds exp - nbf in FAPI mode.
	MaxFAPILifetime = 60 * time.Minute
)

var (
	asymmetricAlgs = []jose.SignatureAlgorithm{
		jose.RS256, jose.RS384, jose.RS512,
		jose.PS256, jose.PS384, jose.PS512,
		jose.ES256, jose.ES384, jose.ES512,
		jose.EdDSA,
	}
	symmetricAlgs = []jose.SignatureAlgorithm{jose.HS256, jose.HS384, jose.HS512}
	fapiAlgs      = []jose.SignatureAlgorithm{jose.PS256, jose.ES256}

	keyAlgs = []jose.KeyAlgorithm{
		jose.RSA_OAEP, jose.RSA_OAEP_256,
		jose.DIRECT,
		jose.A128KW, jose.A256KW,
		jose.A128GCMKW, jose.A256GCMKW,
	}
	contentEncs = []jose.ContentEncryption{
		jose.A128GCM, jose.A256GCM,
		jose.A128CBC_HS256, jose.A256CBC_HS512,
	}
)

// EncryptionKeys supplies the server's request-object decryption key.
type EncryptionKeys interface {
	EncryptionKey() *jwtx.EncryptionKey
}

// Validator checks request objects for one issuer.
type Validator struct {
	Issuer    string
	Keys      EncryptionKeys
	ClockSkew time.Duration
	Now       func() time.Time
}

// NewValidator returns a Validator with default clock settings.
func NewValidator(issuer string, keys EncryptionKeys) *Validator {
	return &Validator{Issuer: issuer, Keys: keys, ClockSkew: DefaultClockSkew, Now: time.Now}
}

// Input is a request object together with what is needed to verify it.
type Input struct {
	Request string
	Client  *domain.Client

	// Secret is the client's plaintext secret, used for HS* signatures and
	// symmetric JWE key management. It may be nil.
	Secret []byte

	// FAPI applies the stricter FAPI checks.
	FAPI bool
}

type header struct {
	Alg string `json:"alg"`
	Enc string `json:"enc"`
	Kid string `json:"kid"`
	Cty string `json:"cty"`
}

// Validate decrypts and verifies in.Request and checks its claims. Every
// failure is ErrInvalidRequestObject; the cause is logged at WARN.
func (v *Validator) Validate(ctx context.Context, in Input) (*Request, error) {
	r, err := v.validate(in)
	if err != nil {
		l := slogx.FromContext(ctx)
		clientID := ""
		if in.Client != nil {
			clientID = in.Client.ID
		}
		l.Warn("request object rejected", slog.String("client_id", clientID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequestObject, err)
	}
	return r, nil
}

func (v *Validator) validate(in Input) (*Request, error) {
	if in.Client == nil {
		return nil, errors.New("no client")
	}
	raw := strings.TrimSpace(in.Request)

	var payload []byte
	switch strings.Count(raw, ".") {
	case 4:
		jws, err := v.decrypt(raw, in)
		if err != nil {
			return nil, err
		}
		if payload, err = v.verify(jws, in); err != nil {
			return nil, err
		}
	case 2:
		var err error
		if payload, err = v.verify(raw, in); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unexpected segment count", ErrMalformed)
	}

	r, err := decodeClaims(payload)
	if err != nil {
		return nil, err
	}
	if err := v.checkClaims(r, in); err != nil {
		return nil, err
	}
	return r, nil
}

func parseHeader(raw string) (header, error) {
	seg, _, _ := strings.Cut(raw, ".")
	b, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return header{}, fmt.Errorf("%w: header encoding: %v", ErrMalformed, err)
	}
	var h header
	if err := json.Unmarshal(b, &h); err != nil {
		return header{}, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	return h, nil
}

func (v *Validator) decrypt(raw string, in Input) (string, error) {
	h, err := parseHeader(raw)
	if err != nil {
		return "", err
	}

	jwe, err := jose.ParseEncrypted(raw, keyAlgs, contentEncs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var key any
	switch jose.KeyAlgorithm(h.Alg) {
	case jose.RSA_OAEP, jose.RSA_OAEP_256:
		if v.Keys == nil || v.Keys.EncryptionKey() == nil {
			return "", fmt.Errorf("%w: no server encryption key", ErrDecrypt)
		}
		key = v.Keys.EncryptionKey().Key
	case jose.DIRECT:
		size, ok := contentKeySize(jose.ContentEncryption(h.Enc))
		if !ok || len(in.Secret) == 0 {
			return "", fmt.Errorf("%w: no shared key for %s", ErrDecrypt, h.Enc)
		}
		key = DeriveSecretKey(in.Secret, size)
	case jose.A128KW, jose.A128GCMKW:
		if len(in.Secret) == 0 {
			return "", fmt.Errorf("%w: no shared secret", ErrDecrypt)
		}
		key = DeriveSecretKey(in.Secret, 16)
	case jose.A256KW, jose.A256GCMKW:
		if len(in.Secret) == 0 {
			return "", fmt.Errorf("%w: no shared secret", ErrDecrypt)
		}
		key = DeriveSecretKey(in.Secret, 32)
	default:
		return "", fmt.Errorf("%w: key algorithm %q", ErrAlgNotAllowed, h.Alg)
	}

	plaintext, err := jwe.Decrypt(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plaintext), nil
}

func (v *Validator) allowedAlgs(in Input) []jose.SignatureAlgorithm {
	var algs []jose.SignatureAlgorithm
	switch {
	case in.FAPI:
		algs = fapiAlgs
	default:
		algs = append(slices.Clone(asymmetricAlgs), symmetricAlgs...)
	}
	if pinned := jose.SignatureAlgorithm(in.Client.RequestObjectSigningAlg); pinned != "" {
		if slices.Contains(algs, pinned) {
			return []jose.SignatureAlgorithm{pinned}
		}
		return nil
	}
	return algs
}

func (v *Validator) verify(raw string, in Input) ([]byte, error) {
	h, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}
	if h.Alg == "" || strings.EqualFold(h.Alg, "none") {
		return nil, ErrAlgNone
	}

	alg := jose.SignatureAlgorithm(h.Alg)
	allowed := v.allowedAlgs(in)
	if !slices.Contains(allowed, alg) {
		return nil, fmt.Errorf("%w: %s", ErrAlgNotAllowed, h.Alg)
	}

	jws, err := jose.ParseSigned(raw, allowed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if slices.Contains(symmetricAlgs, alg) {
		if len(in.Secret) == 0 {
			return nil, fmt.Errorf("%w: client has no shared secret", ErrNoKey)
		}
		payload, err := jws.Verify(in.Secret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignature, err)
		}
		return payload, nil
	}

	keys, err := clientKeys(in.Client, h.Kid)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, k := range keys {
		payload, err := jws.Verify(k)
		if err == nil {
			return payload, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrSignature, lastErr)
}

// clientKeys returns the signature keys of the client, narrowed to kid when
// one is given.
func clientKeys(c *domain.Client, kid string) ([]jose.JSONWebKey, error) {
	if strings.TrimSpace(c.JWKS) == "" {
		return nil, fmt.Errorf("%w: client has no jwks", ErrNoKey)
	}
	var set jose.JSONWebKeySet
	if err := json.Unmarshal([]byte(c.JWKS), &set); err != nil {
		return nil, fmt.Errorf("%w: client jwks: %v", ErrNoKey, err)
	}

	var keys []jose.JSONWebKey
	for _, k := range set.Keys {
		if k.Use == jwtx.UseEncryption {
			continue
		}
		if kid != "" && k.KeyID != kid {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: kid %q", ErrNoKey, kid)
	}
	return keys, nil
}

func (v *Validator) checkClaims(r *Request, in Input) error {
	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	skew := v.ClockSkew

	if r.HasRequestURI {
		return ErrNestedRequestURI
	}

	switch {
	case r.EXP == 0 && in.FAPI:
		return ErrMissingExp
	case r.EXP != 0 && !now.Before(time.Unix(r.EXP, 0)):
		return ErrExpired
	}

	if r.NBF == 0 {
		if in.FAPI {
			return ErrMissingNbf
		}
	} else if time.Unix(r.NBF, 0).After(now.Add(skew)) {
		return ErrNotYetValid
	}

	if in.FAPI && time.Unix(r.EXP, 0).Sub(time.Unix(r.NBF, 0)) > MaxFAPILifetime {
		return ErrLifetimeTooLong
	}

	if r.Issuer != "" && r.Issuer != in.Client.ID {
		return ErrIssuer
	}

	switch {
	case len(r.Audience) == 0 && in.FAPI:
		return ErrAudience
	case len(r.Audience) > 0 && !slices.Contains(r.Audience, v.Issuer):
		return ErrAudience
	}

	return nil
}

func contentKeySize(enc jose.ContentEncryption) (int, bool) {
	switch enc {
	case jose.A128GCM:
		return 16, true
	case jose.A256GCM, jose.A128CBC_HS256:
		return 32, true
	case jose.A256CBC_HS512:
		return 64, true
	default:
		return 0, false
	}
}

// DeriveSecretKey turns a client secret into a symmetric key of size bytes
// (16, 32 or 64). Clients encrypting with dir or AES key wrap derive the same
// key.
func DeriveSecretKey(secret []byte, size int) []byte {
	if size > sha256.Size {
		sum := sha512.Sum512(secret)
		return sum[:size]
	}
	sum := sha256.Sum256(secret)
	return sum[:size]
}

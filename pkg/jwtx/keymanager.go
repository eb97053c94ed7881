package jwtx

import (
	"crypto"
	"crypto/rsa"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/go-jose/go-jose/v4"
)

// Key uses as published in the JWKS.
const (
	UseSignature  = "sig"
	UseEncryption = "enc"
)

// EncryptionAlgorithm is advertised on the request-object encryption key.
const EncryptionAlgorithm = string(jose.RSA_OAEP_256)

// EncryptionKey decrypts JWE request objects sent to this server.
type EncryptionKey struct {
	KID string
	Key *rsa.PrivateKey
}

// PublicJWK returns the key for publishing in the JWKS.
func (e *EncryptionKey) PublicJWK() jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       &e.Key.PublicKey,
		KeyID:     e.KID,
		Algorithm: EncryptionAlgorithm,
		Use:       UseEncryption,
	}
}

// KeyManager owns the signing keys, the request-object encryption key, the
// published KeySet and a Verifier for tokens this server issued.
type KeyManager struct {
	KeySet   *KeySet
	Verifier *Verifier

	algorithm string
	enc       *EncryptionKey

	mu      sync.RWMutex
	signers []*Signer
}

// KeyManagerOptions configures key generation.
type KeyManagerOptions struct {
	// Algorithm is one of RS256, ES256, EdDSA.
	Algorithm string

	// Issuer is enforced by the Verifier.
	Issuer string

	// RSABits sizes generated RSA keys. Defaults to 2048.
	RSABits int

	// NumKeys is the number of signing keys, clamped to [1, 10]. Defaults to 1.
	NumKeys int

	// Leeway tolerated by the Verifier on exp and nbf.
	Leeway time.Duration
}

func (o *KeyManagerOptions) normalize() error {
	if o.Issuer == "" {
		return errors.New("jwtx: Issuer is required")
	}
	switch o.Algorithm {
	case "":
		o.Algorithm = AlgorithmRS256
	case AlgorithmRS256, AlgorithmES256, AlgorithmEdDSA:
	default:
		return fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", o.Algorithm)
	}
	if o.RSABits == 0 {
		o.RSABits = 2048
	}
	o.NumKeys = min(max(o.NumKeys, 1), 10)
	return nil
}

// NewEphemeralKeyManager generates keys that live only in memory. Every token
// issued becomes unverifiable when the process restarts.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	km := newKeyManager(opts)
	for i := range opts.NumKeys {
		key, err := generateKey(opts.Algorithm, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate signing key %d: %w", i+1, err)
		}
		if err := km.addSigner(newKeyID(), key, true); err != nil {
			return nil, err
		}
	}

	encKey, err := cryptox.GenerateRSAKey(opts.RSABits)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate encryption key: %w", err)
	}
	if err := km.setEncryptionKey(newKeyID(), encKey); err != nil {
		return nil, err
	}
	return km, nil
}

func newKeyManager(opts KeyManagerOptions) *KeyManager {
	ks := NewKeySet()
	return &KeyManager{
		KeySet:    ks,
		Verifier:  NewVerifier(ks, opts.Issuer, opts.Leeway, opts.Algorithm),
		algorithm: opts.Algorithm,
	}
}

// addSigner publishes the key and, when active, makes it available for
// signing.
func (km *KeyManager) addSigner(kid string, key crypto.Signer, active bool) error {
	s, err := NewSigner(kid, key)
	if err != nil {
		return err
	}
	if err := km.KeySet.AddSigner(s); err != nil {
		return err
	}
	if active {
		km.mu.Lock()
		km.signers = append(km.signers, s)
		km.mu.Unlock()
	}
	return nil
}

func (km *KeyManager) setEncryptionKey(kid string, key *rsa.PrivateKey) error {
	enc := &EncryptionKey{KID: kid, Key: key}
	if err := km.KeySet.Add(enc.PublicJWK()); err != nil {
		return err
	}
	km.enc = enc
	return nil
}

func generateKey(algorithm string, rsaBits int) (crypto.Signer, error) {
	switch algorithm {
	case AlgorithmRS256:
		return cryptox.GenerateRSAKey(rsaBits)
	case AlgorithmES256:
		return cryptox.GenerateES256Key()
	case AlgorithmEdDSA:
		return cryptox.GenerateEd25519Key()
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}
}

// Algorithm returns the signing algorithm of active keys.
func (km *KeyManager) Algorithm() string { return km.algorithm }

// IsReady reports whether a signing key is available.
func (km *KeyManager) IsReady() bool { return km.NumSigners() > 0 && km.enc != nil }

// Signer returns one of the active signers, chosen at random.
func (km *KeyManager) Signer() *Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	default:
		return km.signers[rand.IntN(len(km.signers))]
	}
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// EncryptionKey returns the key used to decrypt request objects.
func (km *KeyManager) EncryptionKey() *EncryptionKey { return km.enc }

func newKeyID() string {
	return "authz-" + cryptox.MustGenerateToken(cryptox.TokenSize128)
}

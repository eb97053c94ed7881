package jwtx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-jose/go-jose/v4"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the public keys published at the JWKS endpoint. It is safe for
// concurrent use.
type KeySet struct {
	mu   sync.RWMutex
	keys []jose.JSONWebKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{}
}

// Add publishes a key. Private keys are reduced to their public half.
func (k *KeySet) Add(key jose.JSONWebKey) error {
	if key.KeyID == "" {
		return errors.New("jwtx: key has no kid")
	}
	if !key.IsPublic() {
		key = key.Public()
	}
	if !key.Valid() {
		return fmt.Errorf("jwtx: invalid key %q", key.KeyID)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for _, existing := range k.keys {
		if existing.KeyID == key.KeyID {
			return fmt.Errorf("jwtx: duplicate kid %q", key.KeyID)
		}
	}
	k.keys = append(k.keys, key)
	return nil
}

// AddSigner publishes the verification key of s.
func (k *KeySet) AddSigner(s *Signer) error {
	return k.Add(s.PublicJWK())
}

// Get returns the public key for kid when it is published for signatures.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	for _, key := range k.keys {
		if key.KeyID == kid && key.Use != "enc" {
			return key.Key, nil
		}
	}
	return nil, ErrNoKey
}

// JWKS returns a snapshot for serving.
func (k *KeySet) JWKS() jose.JSONWebKeySet {
	k.mu.RLock()
	defer k.mu.RUnlock()
	keys := make([]jose.JSONWebKey, len(k.keys))
	copy(keys, k.keys)
	return jose.JSONWebKeySet{Keys: keys}
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}

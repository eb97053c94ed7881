package jwtx

import (
	"context"
	"crypto"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/idx"
)

// KeyRecord is a private key as stored at rest, sealed with the master key.
type KeyRecord struct {
	ID                  string
	Kid                 string
	Algorithm           string
	Use                 string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
}

// KeyStore persists KeyRecords. The store package implements it.
type KeyStore interface {
	ListSigningKeys(ctx context.Context) ([]KeyRecord, error)
	CreateSigningKey(ctx context.Context, key KeyRecord) error
}

// NewPersistentKeyManager loads keys from store and generates whatever is
// missing, so tokens stay verifiable across restarts. Stored keys of another
// algorithm remain published for verification but do not sign.
func NewPersistentKeyManager(ctx context.Context, store KeyStore, sealer *cryptox.Sealer, opts KeyManagerOptions) (*KeyManager, error) {
	if store == nil || sealer == nil {
		return nil, errors.New("jwtx: store and sealer are required")
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	records, err := store.ListSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load keys: %w", err)
	}

	km := newKeyManager(opts)
	for _, rec := range records {
		pemData, err := sealer.Open(rec.PrivateKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("jwtx: unseal key %s: %w", rec.Kid, err)
		}
		key, err := cryptox.ParsePrivateKeyPEM(pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse key %s: %w", rec.Kid, err)
		}

		switch rec.Use {
		case UseEncryption:
			rsaKey, ok := key.(*rsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("jwtx: encryption key %s is not RSA", rec.Kid)
			}
			if km.enc != nil {
				continue
			}
			if err := km.setEncryptionKey(rec.Kid, rsaKey); err != nil {
				return nil, err
			}
		default:
			active := rec.Algorithm == opts.Algorithm && km.NumSigners() < opts.NumKeys
			if err := km.addSigner(rec.Kid, key, active); err != nil {
				return nil, fmt.Errorf("jwtx: load key %s: %w", rec.Kid, err)
			}
		}
	}

	for km.NumSigners() < opts.NumKeys {
		key, err := generateKey(opts.Algorithm, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate signing key: %w", err)
		}
		kid := newKeyID()
		if err := storeKey(ctx, store, sealer, kid, opts.Algorithm, UseSignature, key); err != nil {
			return nil, err
		}
		if err := km.addSigner(kid, key, true); err != nil {
			return nil, err
		}
	}

	if km.enc == nil {
		key, err := cryptox.GenerateRSAKey(opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate encryption key: %w", err)
		}
		kid := newKeyID()
		if err := storeKey(ctx, store, sealer, kid, EncryptionAlgorithm, UseEncryption, key); err != nil {
			return nil, err
		}
		if err := km.setEncryptionKey(kid, key); err != nil {
			return nil, err
		}
	}

	return km, nil
}

func storeKey(ctx context.Context, store KeyStore, sealer *cryptox.Sealer, kid, alg, use string, key crypto.Signer) error {
	pemData, err := cryptox.MarshalPrivateKeyPEM(key)
	if err != nil {
		return err
	}
	sealed, err := sealer.Seal(pemData)
	if err != nil {
		return fmt.Errorf("jwtx: seal key: %w", err)
	}
	rec := KeyRecord{
		ID:                  idx.NewString(),
		Kid:                 kid,
		Algorithm:           alg,
		Use:                 use,
		PrivateKeyEncrypted: sealed,
		CreatedAt:           time.Now().UTC(),
	}
	if err := store.CreateSigningKey(ctx, rec); err != nil {
		return fmt.Errorf("jwtx: store key %s: %w", kid, err)
	}
	return nil
}

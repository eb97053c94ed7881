package store

import (
	"context"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
)

// KeyStoreAdapter exposes SigningKeys as a jwtx.KeyStore, keeping jwtx free
// of the domain package.
type KeyStoreAdapter struct {
	keys SigningKeys
}

func NewKeyStoreAdapter(s Store) *KeyStoreAdapter {
	return &KeyStoreAdapter{keys: s.SigningKeys()}
}

func (a *KeyStoreAdapter) ListSigningKeys(ctx context.Context) ([]jwtx.KeyRecord, error) {
	keys, err := a.keys.ListSigningKeys(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]jwtx.KeyRecord, len(keys))
	for i, k := range keys {
		records[i] = jwtx.KeyRecord{
			ID:                  k.ID,
			Kid:                 k.Kid,
			Algorithm:           k.Algorithm,
			Use:                 k.Use,
			PrivateKeyEncrypted: k.PrivateKeyEncrypted,
			CreatedAt:           k.CreatedAt,
		}
	}
	return records, nil
}

func (a *KeyStoreAdapter) CreateSigningKey(ctx context.Context, r jwtx.KeyRecord) error {
	return a.keys.CreateSigningKey(ctx, domain.SigningKey{
		ID:                  r.ID,
		Kid:                 r.Kid,
		Algorithm:           r.Algorithm,
		Use:                 r.Use,
		PrivateKeyEncrypted: r.PrivateKeyEncrypted,
		CreatedAt:           r.CreatedAt,
	})
}

package jwtx_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewEphemeralKeyManager(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{jwtx.AlgorithmRS256, jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA} {
		t.Run(alg, func(t *testing.T) {
			t.Parallel()

			km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
				Algorithm: alg,
				Issuer:    exampleIssuer,
				NumKeys:   2,
			})
			require.NoError(t, err)
			require.True(t, km.IsReady())
			require.Equal(t, 2, km.NumSigners())
			require.Equal(t, alg, km.Signer().Alg())
			require.NotNil(t, km.EncryptionKey())

			jwks := km.KeySet.JWKS()
			require.Len(t, jwks.Keys, 3)

			var uses []string
			for _, k := range jwks.Keys {
				require.True(t, k.IsPublic())
				uses = append(uses, k.Use)
			}
			require.ElementsMatch(t, []string{"sig", "sig", "enc"}, uses)
		})
	}
}

func TestNewEphemeralKeyManager_Options(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmES256})
	require.Error(t, err)

	_, err = jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: "HS256", Issuer: exampleIssuer})
	require.Error(t, err)

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, Issuer: exampleIssuer, NumKeys: 50})
	require.NoError(t, err)
	require.Equal(t, 10, km.NumSigners())
}

func TestKeySet_JWKSDoesNotLeakPrivateKeys(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmRS256, Issuer: exampleIssuer})
	require.NoError(t, err)

	raw, err := json.Marshal(km.KeySet.JWKS())
	require.NoError(t, err)
	require.NotContains(t, string(raw), `"d":`)

	_, err = km.KeySet.Get(km.EncryptionKey().KID)
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}

type memKeyStore struct {
	mu   sync.Mutex
	recs []jwtx.KeyRecord
}

func (m *memKeyStore) ListSigningKeys(context.Context) ([]jwtx.KeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]jwtx.KeyRecord(nil), m.recs...), nil
}

func (m *memKeyStore) CreateSigningKey(_ context.Context, rec jwtx.KeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func TestPersistentKeyManager_SurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memKeyStore{}
	sealer, err := cryptox.NewSealer([]byte("master"))
	require.NoError(t, err)
	opts := jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmES256, Issuer: exampleIssuer}

	first, err := jwtx.NewPersistentKeyManager(ctx, store, sealer, opts)
	require.NoError(t, err)
	require.Len(t, store.recs, 2)

	claims := jwtx.AccessClaims{RegisteredClaims: jwtx.Registered(exampleIssuer, "u", nil, time.Minute, time.Now()), ClientID: "c"}
	tok, err := first.Signer().Sign(claims)
	require.NoError(t, err)

	second, err := jwtx.NewPersistentKeyManager(ctx, store, sealer, opts)
	require.NoError(t, err)
	require.Len(t, store.recs, 2, "no keys generated on reload")
	require.Equal(t, first.EncryptionKey().KID, second.EncryptionKey().KID)
	require.NoError(t, second.Verifier.Verify(tok, &jwtx.AccessClaims{}, ""))

	wrong, err := cryptox.NewSealer([]byte("other"))
	require.NoError(t, err)
	_, err = jwtx.NewPersistentKeyManager(ctx, store, wrong, opts)
	require.Error(t, err)
}

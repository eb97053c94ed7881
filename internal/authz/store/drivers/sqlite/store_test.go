package sqlite_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/internal/authz/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedGrant(t *testing.T, s store.Store, id string) domain.Grant {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Clients().UpsertClient(ctx, domain.Client{
		ID:           "c1",
		Name:         "client one",
		SecretHash:   "hash",
		RedirectURIs: []string{"https://rp/cb"},
		GrantTypes:   []domain.GrantType{domain.GrantTypeAuthorizationCode},
		Scopes:       []string{"openid", "profile"},
		ParLifetime:  90 * time.Second,
		FAPI:         true,
	}))

	g := domain.Grant{
		ID:        id,
		Type:      domain.GrantTypeAuthorizationCode,
		ClientID:  "c1",
		UserID:    "u1",
		Scopes:    []string{"openid", "profile"},
		AuthTime:  time.Now().UTC().Truncate(time.Millisecond),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.Grants().CreateGrant(ctx, g))
	return g
}

func TestClients_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedGrant(t, s, "g1")

	c, err := s.Clients().GetClientByID(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, []string{"https://rp/cb"}, c.RedirectURIs)
	require.Equal(t, []domain.GrantType{domain.GrantTypeAuthorizationCode}, c.GrantTypes)
	require.Equal(t, 90*time.Second, c.ParLifetime)
	require.True(t, c.FAPI)
	require.False(t, c.RequirePAR)

	_, err = s.Clients().GetClientByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAuthorizationCodes_ConsumeOnce(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	seedGrant(t, s, "g1")

	code := domain.AuthorizationCode{
		ID:          "ac1",
		GrantID:     "g1",
		ClientID:    "c1",
		CodeHash:    "h1",
		RedirectURI: "https://rp/cb",
		ExpiresAt:   time.Now().Add(time.Minute),
		CreatedAt:   time.Now(),
	}
	require.NoError(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, code))
	require.ErrorIs(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, code), store.ErrAlreadyExists)

	got, err := s.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, "h1")
	require.NoError(t, err)
	require.Nil(t, got.UsedAt)

	require.NoError(t, s.AuthorizationCodes().ConsumeAuthorizationCode(ctx, "ac1", time.Now()))
	require.ErrorIs(t, s.AuthorizationCodes().ConsumeAuthorizationCode(ctx, "ac1", time.Now()), store.ErrConflict)

	got, err = s.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got.UsedAt)
}

func TestAuthorizationCodes_ConcurrentConsume(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	seedGrant(t, s, "g1")

	require.NoError(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, domain.AuthorizationCode{
		ID: "ac1", GrantID: "g1", ClientID: "c1", CodeHash: "h1",
		ExpiresAt: time.Now().Add(time.Minute), CreatedAt: time.Now(),
	}))

	var wins atomic.Int32
	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			err := s.WithTx(ctx, func(tx store.Tx) error {
				return tx.AuthorizationCodes().ConsumeAuthorizationCode(ctx, "ac1", time.Now())
			})
			if err == nil {
				wins.Add(1)
				return nil
			}
			if errors.Is(err, store.ErrConflict) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), wins.Load())
}

func TestTokens_RevokeByGrant(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	seedGrant(t, s, "g1")

	now := time.Now().UTC()
	for i, kind := range []domain.TokenKind{domain.TokenKindAccess, domain.TokenKindRefresh} {
		require.NoError(t, s.Tokens().CreateToken(ctx, domain.Token{
			ID:        string(kind),
			GrantID:   "g1",
			ClientID:  "c1",
			Kind:      kind,
			Hash:      "hash-" + string(rune('a'+i)),
			TokenType: domain.TokenTypeBearer,
			Scopes:    []string{"openid"},
			ExpiresAt: now.Add(time.Hour),
			CreatedAt: now,
		}))
	}

	tok, err := s.Tokens().GetTokenByHash(ctx, "hash-a")
	require.NoError(t, err)
	require.True(t, tok.IsValid(now))

	n, err := s.Tokens().RevokeTokensByGrant(ctx, "g1", now)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	tokens, err := s.Tokens().ListTokensByGrant(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	for _, tok := range tokens {
		require.False(t, tok.IsValid(now))
	}
}

func TestGrants_RevokeFamily(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	seedGrant(t, s, "parent")

	child := domain.Grant{
		ID: "child", Type: domain.GrantTypeTokenExchange, ClientID: "c1", UserID: "u1",
		ParentID: "parent", CreatedAt: time.Now(),
	}
	require.NoError(t, s.Grants().CreateGrant(ctx, child))

	ids, err := s.Grants().RevokeGrant(ctx, "parent", time.Now())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"parent", "child"}, ids)

	g, err := s.Grants().GetGrantByID(ctx, "child")
	require.NoError(t, err)
	require.True(t, g.IsRevoked())
}

func TestPARs_SingleDelete(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	p := domain.Par{
		ID:       "par:1",
		ClientID: "c1",
		Attributes: domain.ParAttributes{
			ResponseType:     "code",
			Scope:            "openid",
			CustomParameters: map[string]string{"x": "y"},
		},
		ExpiresAt: time.Now().Add(time.Minute),
		Deletable: true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.PARs().CreatePAR(ctx, p))
	require.ErrorIs(t, s.PARs().CreatePAR(ctx, p), store.ErrAlreadyExists)

	got, err := s.PARs().GetPAR(ctx, "par:1")
	require.NoError(t, err)
	require.Equal(t, p.Attributes, got.Attributes)
	require.True(t, got.Deletable)

	require.NoError(t, s.PARs().DeletePAR(ctx, "par:1"))
	require.ErrorIs(t, s.PARs().DeletePAR(ctx, "par:1"), store.ErrNotFound)
	_, err = s.PARs().GetPAR(ctx, "par:1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHousekeeping_DeletesExpired(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.PARs().CreatePAR(ctx, domain.Par{ID: "par:old", ClientID: "c", ExpiresAt: now.Add(-time.Minute), Deletable: true, CreatedAt: now}))
	require.NoError(t, s.PARs().CreatePAR(ctx, domain.Par{ID: "par:new", ClientID: "c", ExpiresAt: now.Add(time.Minute), Deletable: true, CreatedAt: now}))

	n, err := s.PARs().DeleteExpiredPARs(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = s.PARs().GetPAR(ctx, "par:new")
	require.NoError(t, err)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.PARs().CreatePAR(ctx, domain.Par{ID: "par:tx", ClientID: "c", ExpiresAt: time.Now().Add(time.Minute), CreatedAt: time.Now()}))
		return store.ErrConflict
	})
	require.ErrorIs(t, err, store.ErrConflict)

	_, err = s.PARs().GetPAR(ctx, "par:tx")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSigningKeys_KeyStoreAdapter(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	adapter := store.NewKeyStoreAdapter(s)

	keys, err := adapter.ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)

	require.NoError(t, s.SigningKeys().CreateSigningKey(ctx, domain.SigningKey{
		ID: "k1", Kid: "kid-1", Algorithm: "ES256", Use: "sig",
		PrivateKeyEncrypted: []byte{1, 2, 3}, CreatedAt: time.Now(),
	}))

	keys, err = adapter.ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, "kid-1", keys[0].Kid)
	require.Equal(t, []byte{1, 2, 3}, keys[0].PrivateKeyEncrypted)
}

package redis_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/internal/authz/store/drivers/redis"
)

func newTestPARStore(t *testing.T) (*redis.PARStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := redis.NewPARStoreWithClient(client, "test:")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func samplePar(id string, ttl time.Duration) domain.Par {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.Par{
		ID:       id,
		ClientID: "client-1",
		Attributes: domain.ParAttributes{
			ClientID:     "client-1",
			ResponseType: "code",
			RedirectURI:  "https://rp.example/cb",
			Scope:        "openid profile",
			State:        "af0ifjsldkj",
		},
		ExpiresAt: now.Add(ttl),
		Deletable: true,
		CreatedAt: now,
	}
}

func TestPARStore_RoundTrip(t *testing.T) {
	t.Parallel()
	s, mr := newTestPARStore(t)
	ctx := context.Background()

	p := samplePar("par:abc", time.Minute)
	require.NoError(t, s.CreatePAR(ctx, p))
	require.True(t, mr.Exists("test:par:abc"))

	got, err := s.GetPAR(ctx, "par:abc")
	require.NoError(t, err)
	require.Equal(t, p, got)

	// The external form resolves to the same record.
	got, err = s.GetPAR(ctx, domain.ParExternalID("par:abc"))
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}

func TestPARStore_DuplicateCreate(t *testing.T) {
	t.Parallel()
	s, _ := newTestPARStore(t)
	ctx := context.Background()

	p := samplePar("par:dup", time.Minute)
	require.NoError(t, s.CreatePAR(ctx, p))
	require.ErrorIs(t, s.CreatePAR(ctx, p), store.ErrAlreadyExists)
}

func TestPARStore_ExpiresWithTTL(t *testing.T) {
	t.Parallel()
	s, mr := newTestPARStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePAR(ctx, samplePar("par:ttl", 10*time.Second)))
	mr.FastForward(11 * time.Second)

	_, err := s.GetPAR(ctx, "par:ttl")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPARStore_NonDeletableHasNoTTL(t *testing.T) {
	t.Parallel()
	s, mr := newTestPARStore(t)
	ctx := context.Background()

	p := samplePar("par:keep", 10*time.Second)
	p.Deletable = false
	require.NoError(t, s.CreatePAR(ctx, p))
	mr.FastForward(time.Hour)

	_, err := s.GetPAR(ctx, "par:keep")
	require.NoError(t, err)
}

func TestPARStore_ConcurrentDeleteSingleWinner(t *testing.T) {
	t.Parallel()
	s, _ := newTestPARStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePAR(ctx, samplePar("par:race", time.Minute)))

	var wins atomic.Int32
	var g errgroup.Group
	for range 20 {
		g.Go(func() error {
			switch err := s.DeletePAR(ctx, "par:race"); err {
			case nil:
				wins.Add(1)
				return nil
			case store.ErrNotFound:
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), wins.Load())
}

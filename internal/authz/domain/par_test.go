package domain_test

import (
	"testing"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParIDTranslation_RoundTrip(t *testing.T) {
	t.Parallel()

	for range 100 {
		x := domain.ParInternalPrefix + uuid.NewString()
		require.Equal(t, x, domain.ParInternalID(domain.ParExternalID(x)))

		y := domain.ParExternalPrefix + uuid.NewString()
		require.Equal(t, y, domain.ParExternalID(domain.ParInternalID(y)))
	}
}

func TestParIDTranslation_Values(t *testing.T) {
	t.Parallel()

	require.Equal(t, "urn:ietf:params:oauth:request_uri:abc", domain.ParExternalID("par:abc"))
	require.Equal(t, "par:abc", domain.ParInternalID("urn:ietf:params:oauth:request_uri:abc"))

	// Foreign values pass through untouched.
	require.Equal(t, "https://rp/request.jwt", domain.ParInternalID("https://rp/request.jwt"))
	require.Equal(t, "other:abc", domain.ParExternalID("other:abc"))
}

func TestPar_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	p := domain.Par{ExpiresAt: now}
	require.False(t, p.IsExpired(now))
	require.True(t, p.IsExpired(now.Add(time.Millisecond)))
}

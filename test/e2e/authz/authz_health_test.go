//go:build e2e

package authz_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	client := setupContainer(t, nil)

	live, err := client.GetLiveness(t.Context())
	assertHealthy(t, live, err)
	require.NotEmpty(t, live.Version)

	ready, err := client.GetReadiness(t.Context())
	assertHealthy(t, ready, err)
	require.Equal(t, "ok", ready.Checks["database"])
	require.Equal(t, "ok", ready.Checks["signer"])
}

func TestJWKSEndpoint(t *testing.T) {
	client := setupContainer(t, nil)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)

	uses := map[string]int{}
	for _, k := range jwks.Keys {
		require.NotEmpty(t, k.Kid)
		uses[k.Use]++
	}
	require.Equal(t, 1, uses["sig"])
	require.Equal(t, 1, uses["enc"])
}

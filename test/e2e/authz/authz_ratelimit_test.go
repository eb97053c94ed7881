//go:build e2e

package authz_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JanssenProject/jans-sub054/pkg/authsdk"
)

// TestRateLimitTokenEndpoint verifies the credential profile throttles the
// token endpoint per IP once its burst is spent.
func TestRateLimitTokenEndpoint(t *testing.T) {
	client := setupContainer(t, map[string]string{
		"AUTHZ_RATELIMIT_CREDENTIAL_REQUESTS":   "5",
		"AUTHZ_RATELIMIT_CREDENTIAL_WINDOW_SEC": "60",
		"AUTHZ_RATELIMIT_CREDENTIAL_BURST":      "5",
	})
	bad := authsdk.ClientAuth{ID: svcClientID, Secret: "wrong"}

	for i := range 5 {
		_, err := client.ClientCredentialsGrant(t.Context(), bad, nil)
		requireOAuthError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidClient)
		require.NotNil(t, err, "request %d", i+1)
	}

	_, err := client.ClientCredentialsGrant(t.Context(), bad, nil)
	requireOAuthError(t, err, http.StatusTooManyRequests, "")
}

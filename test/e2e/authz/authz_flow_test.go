//go:build e2e

package authz_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JanssenProject/jans-sub054/pkg/authsdk"
)

const codeVerifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

// S256 of codeVerifier, from RFC 7636 appendix B.
const codeChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

func TestPushedAuthorizationCodeFlow(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()
	web := authsdk.ClientAuth{ID: webClientID, Secret: webClientSecret, Basic: true}

	par, err := client.PushAuthorizationRequest(ctx, web, url.Values{
		"response_type":         {"code"},
		"redirect_uri":          {redirectURI},
		"scope":                 {"openid profile"},
		"state":                 {"xyz"},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	})
	require.NoError(t, err)
	require.Positive(t, par.ExpiresIn)

	login := url.Values{
		"client_id":   {webClientID},
		"request_uri": {par.RequestURI},
		"username":    {username},
		"password":    {userPassword},
	}
	res, err := client.Authorize(ctx, login)
	require.NoError(t, err)
	require.Equal(t, "xyz", res.State)

	// The request_uri is single use.
	_, err = client.Authorize(ctx, login)
	requireOAuthError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequestURI)

	tok, err := client.AuthorizationCodeGrant(ctx, web, res.Code, redirectURI, codeVerifier)
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.NotEmpty(t, tok.IDToken)
	require.NotEmpty(t, tok.RefreshToken)

	// Replaying the code fails and, in persistent mode, revokes what it issued.
	_, err = client.AuthorizationCodeGrant(ctx, web, res.Code, redirectURI, codeVerifier)
	requireOAuthError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant)

	_, err = client.Validate(ctx, tok.AccessToken)
	requireOAuthError(t, err, http.StatusUnauthorized, "")
}

func TestClientCredentialsAndRevocation(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()
	svc := authsdk.ClientAuth{ID: svcClientID, Secret: svcClientSecret}

	tok, err := client.ClientCredentialsGrant(ctx, svc, []string{"read"})
	require.NoError(t, err)
	require.Equal(t, "read", tok.Scope)
	require.Empty(t, tok.RefreshToken)

	v, err := client.Validate(ctx, tok.AccessToken)
	require.NoError(t, err)
	require.True(t, v.Valid)

	require.NoError(t, client.RevokeToken(ctx, svc, tok.AccessToken))
	_, err = client.Validate(ctx, tok.AccessToken)
	requireOAuthError(t, err, http.StatusUnauthorized, "")

	_, err = client.ClientCredentialsGrant(ctx, authsdk.ClientAuth{ID: svcClientID, Secret: "wrong", Basic: true}, nil)
	requireOAuthError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidClient)
}

func TestExtensionGrantIsNotImplemented(t *testing.T) {
	client := setupContainer(t, nil)

	_, err := client.Token(t.Context(),
		authsdk.ClientAuth{ID: webClientID, Secret: webClientSecret},
		url.Values{"grant_type": {"urn:example:grant:custom"}},
		authsdk.TokenOptions{},
	)
	requireOAuthError(t, err, http.StatusNotImplemented, authsdk.ErrorCodeInvalidGrant)
}

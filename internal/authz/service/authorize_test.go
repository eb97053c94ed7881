package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

func TestValidatePKCE(t *testing.T) {
	t.Parallel()

	confidential := domain.Client{SecretHash: "argon2:dummy"}
	public := domain.Client{}

	t.Run("public clients require challenge", func(t *testing.T) {
		_, _, err := validatePKCE("", "", public, false)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("confidential clients may omit challenge", func(t *testing.T) {
		challenge, method, err := validatePKCE("", "", confidential, false)
		require.NoError(t, err)
		require.Empty(t, challenge)
		require.Empty(t, method)
	})

	t.Run("defaults to plain when method omitted", func(t *testing.T) {
		challenge, method, err := validatePKCE("pkce-challenge", "", public, false)
		require.NoError(t, err)
		require.Equal(t, "pkce-challenge", challenge)
		require.Equal(t, PKCEMethodPlain, method)
	})

	t.Run("accepts case-insensitive methods", func(t *testing.T) {
		_, method, err := validatePKCE("abc", "PLAIN", public, false)
		require.NoError(t, err)
		require.Equal(t, PKCEMethodPlain, method)

		_, method, err = validatePKCE("xyz", "s256", public, false)
		require.NoError(t, err)
		require.Equal(t, PKCEMethodS256, method)
	})

	t.Run("rejects unsupported methods", func(t *testing.T) {
		_, _, err := validatePKCE("abc", "S123", public, false)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("fapi needs an explicit S256", func(t *testing.T) {
		for _, method := range []string{"", "plain", "Plain"} {
			_, _, err := validatePKCE("abc", method, confidential, true)
			require.ErrorIs(t, err, ErrInvalidRequest, method)
		}
		_, _, err := validatePKCE("", PKCEMethodS256, confidential, true)
		require.ErrorIs(t, err, ErrInvalidRequest)

		_, method, err := validatePKCE("abc", "S256", confidential, true)
		require.NoError(t, err)
		require.Equal(t, PKCEMethodS256, method)
	})
}

func TestVerifyCodeVerifier(t *testing.T) {
	t.Parallel()

	t.Run("plain verifier must match challenge", func(t *testing.T) {
		require.True(t, verifyCodeVerifier("verifier", "plain", "verifier"))
		require.False(t, verifyCodeVerifier("verifier", "plain", "other"))
	})

	t.Run("omitted method compares as plain", func(t *testing.T) {
		require.True(t, verifyCodeVerifier("verifier", "", "verifier"))
		require.False(t, verifyCodeVerifier(S256Challenge("verifier"), "", "verifier"))
	})

	t.Run("S256 verifier computes hash", func(t *testing.T) {
		verifier := "example-verifier"
		sum := sha256.Sum256([]byte(verifier))
		challenge := base64.RawURLEncoding.EncodeToString(sum[:])

		require.True(t, verifyCodeVerifier(challenge, "S256", verifier))
		require.False(t, verifyCodeVerifier(challenge, "S256", "wrong"))
		require.Equal(t, challenge, S256Challenge(verifier))
	})

	t.Run("empty challenge accepts any verifier", func(t *testing.T) {
		require.True(t, verifyCodeVerifier("", "S256", ""))
		require.True(t, verifyCodeVerifier("", "", "anything"))
	})

	t.Run("missing verifier rejected when challenge present", func(t *testing.T) {
		require.False(t, verifyCodeVerifier(S256Challenge("data"), "S256", ""))
	})
}

func TestCheckScopesPolicy(t *testing.T) {
	t.Parallel()

	r := &GrantRegistry{}
	client := domain.Client{Scopes: []string{"openid", "profile", "email", "read"}}

	t.Run("intersects in request order without duplicates", func(t *testing.T) {
		got := r.CheckScopesPolicy([]string{"openid", "profile", "email"}, client,
			[]string{"email", "email", "admin", "openid"})
		require.Equal(t, []string{"email", "openid"}, got)
	})

	t.Run("empty request yields the baseline", func(t *testing.T) {
		got := r.CheckScopesPolicy([]string{"openid", "profile"}, client, nil)
		require.Equal(t, []string{"openid", "profile"}, got)
	})

	t.Run("never widens the baseline", func(t *testing.T) {
		universe := []string{"openid", "profile", "email", "read", "write", "admin"}
		pick := func() []string {
			var out []string
			for _, s := range universe {
				if rand.IntN(2) == 0 {
					out = append(out, s)
				}
			}
			return out
		}

		for range 200 {
			baseline, requested := pick(), pick()
			got := r.CheckScopesPolicy(baseline, client, requested)
			for _, s := range got {
				require.Contains(t, baseline, s)
				require.Contains(t, client.Scopes, s)
				if len(requested) > 0 {
					require.Contains(t, requested, s)
				}
			}
		}
	})
}

func TestAuthorize_DirectParameters(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	base := AuthorizeRequest{
		ClientID:   "web",
		Attributes: pushAttrs(),
		Username:   "alice",
		Password:   alicePassword,
	}

	t.Run("issues a code and echoes state", func(t *testing.T) {
		resp, err := f.authorize.Authorize(ctx, base)
		require.NoError(t, err)
		require.NotEmpty(t, resp.Code)
		require.Equal(t, testRedirectURI, resp.RedirectURI)
		require.Equal(t, "state-A", resp.State)
	})

	t.Run("request object overrides parameters", func(t *testing.T) {
		req := base
		req.Request = signRequestObject(t, requestObjectClaims(map[string]any{"scope": "openid", "state": "state-B"}))
		resp, err := f.authorize.Authorize(ctx, req)
		require.NoError(t, err)
		require.Equal(t, "state-B", resp.State)

		tokens, err := f.tokens.Exchange(ctx, codeRequest(resp.Code))
		require.NoError(t, err)
		require.Equal(t, "openid", tokens.Scope)
	})

	tests := []struct {
		name   string
		mutate func(*AuthorizeRequest)
		want   error
	}{
		{"missing client_id", func(r *AuthorizeRequest) { r.ClientID = "" }, ErrInvalidRequest},
		{"unknown client", func(r *AuthorizeRequest) { r.ClientID = "ghost" }, ErrInvalidClient},
		{"response_type token", func(r *AuthorizeRequest) { r.Attributes.ResponseType = "token" }, ErrUnsupportedResponseType},
		{"unregistered redirect", func(r *AuthorizeRequest) { r.Attributes.RedirectURI = "https://evil.example" }, ErrInvalidRequest},
		{"wrong password", func(r *AuthorizeRequest) { r.Password = "nope" }, ErrInvalidCredentials},
		{"no allowed scope", func(r *AuthorizeRequest) { r.Attributes.Scope = "admin" }, ErrInvalidScope},
		{"unsupported pkce method", func(r *AuthorizeRequest) { r.Attributes.CodeChallengeMethod = "S1" }, ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := f.authorize.Authorize(ctx, req)
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("errors carry state", func(t *testing.T) {
		req := base
		req.Password = "nope"
		_, err := f.authorize.Authorize(ctx, req)
		require.Equal(t, "state-A", State(err))
	})
}

func TestAuthorize_PublicClientNeedsPKCE(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	attrs := pushAttrs()
	attrs.RedirectURI = "https://spa.example/callback"
	attrs.CodeChallenge, attrs.CodeChallengeMethod = "", ""

	_, err := f.authorize.Authorize(context.Background(), AuthorizeRequest{
		ClientID:   "spa",
		Attributes: attrs,
		Username:   "alice",
		Password:   alicePassword,
	})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAuthorize_PushedRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	strict := f.web
	strict.ID = "strict"
	strict.RequirePAR = true
	require.NoError(t, f.store.Clients().UpsertClient(ctx, strict))

	_, err := f.authorize.Authorize(ctx, AuthorizeRequest{
		ClientID:   "strict",
		Attributes: pushAttrs(),
		Username:   "alice",
		Password:   alicePassword,
	})
	require.ErrorIs(t, err, ErrInvalidRequest)

	res, err := f.pars.Push(ctx, PushRequest{Client: strict, Attributes: pushAttrs()})
	require.NoError(t, err)

	resp, err := f.authorize.Authorize(ctx, AuthorizeRequest{
		ClientID:   "strict",
		RequestURI: res.RequestURI,
		Username:   "alice",
		Password:   alicePassword,
	})
	require.NoError(t, err)
	require.Equal(t, "state-A", resp.State)

	_, err = f.authorize.Authorize(ctx, AuthorizeRequest{
		ClientID:   "strict",
		RequestURI: res.RequestURI,
		Username:   "alice",
		Password:   alicePassword,
	})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAuthorize_FAPIRejectsPlainPKCE(t *testing.T) {
	t.Parallel()
	f := newFixture(t, fapi)

	attrs := pushAttrs()
	attrs.CodeChallenge = testVerifier
	attrs.CodeChallengeMethod = PKCEMethodPlain

	_, err := f.authorize.Authorize(context.Background(), AuthorizeRequest{
		ClientID:   "web",
		Attributes: attrs,
		Username:   "alice",
		Password:   alicePassword,
	})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestHousekeeping_Sweep(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tokens.Exchange(ctx, codeRequest(f.issueCode(t, "openid")))
	require.NoError(t, err)
	_, err = f.pars.Push(ctx, PushRequest{Client: f.web, Attributes: pushAttrs()})
	require.NoError(t, err)

	hk := NewHousekeepingService(f.store, nil, nil, time.Minute)
	require.Zero(t, hk.Sweep(ctx))

	hk.Now = func() time.Time { return time.Now().Add(DefaultRefreshTokenTTL + time.Hour) }
	// code, access, refresh, id token and the pushed request.
	require.EqualValues(t, 5, hk.Sweep(ctx))
}

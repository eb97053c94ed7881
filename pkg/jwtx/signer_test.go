package jwtx_test

import (
	"crypto"
	"testing"
	"time"

	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "https://authz.example.test"

func newKey(t *testing.T, alg string) crypto.Signer {
	t.Helper()

	var (
		key crypto.Signer
		err error
	)
	switch alg {
	case jwtx.AlgorithmRS256:
		key, err = cryptox.GenerateRSAKey(2048)
	case jwtx.AlgorithmES256:
		key, err = cryptox.GenerateES256Key()
	case jwtx.AlgorithmEdDSA:
		key, err = cryptox.GenerateEd25519Key()
	}
	require.NoError(t, err)
	return key
}

func TestSignAndVerify_AllAlgorithms(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{jwtx.AlgorithmRS256, jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA} {
		t.Run(alg, func(t *testing.T) {
			t.Parallel()

			signer, err := jwtx.NewSigner("kid-"+alg, newKey(t, alg))
			require.NoError(t, err)
			require.Equal(t, alg, signer.Alg())

			keys := jwtx.NewKeySet()
			require.NoError(t, keys.AddSigner(signer))

			claims := jwtx.AccessClaims{
				RegisteredClaims: jwtx.Registered(exampleIssuer, "user-1", []string{"client-1"}, time.Minute, time.Now()),
				ClientID:         "client-1",
				Scope:            "openid profile",
				Cnf:              &jwtx.Confirmation{JKT: "thumb"},
			}
			token, err := signer.Sign(claims)
			require.NoError(t, err)

			var got jwtx.AccessClaims
			v := jwtx.NewVerifier(keys, exampleIssuer, 0, alg)
			require.NoError(t, v.Verify(token, &got, "client-1"))
			require.Equal(t, "user-1", got.Subject)
			require.Equal(t, "openid profile", got.Scope)
			require.Equal(t, "thumb", got.Cnf.JKT)
			require.NotEmpty(t, got.ID)
		})
	}
}

func TestVerify_Failures(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSigner("k1", newKey(t, jwtx.AlgorithmES256))
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	v := jwtx.NewVerifier(keys, exampleIssuer, 0)

	sign := func(c jwt.RegisteredClaims) string {
		tok, err := signer.Sign(jwtx.AccessClaims{RegisteredClaims: c, ClientID: "c"})
		require.NoError(t, err)
		return tok
	}
	now := time.Now()

	t.Run("expired", func(t *testing.T) {
		tok := sign(jwtx.Registered(exampleIssuer, "u", nil, -time.Minute, now.Add(-time.Hour)))
		require.ErrorIs(t, v.Verify(tok, &jwtx.AccessClaims{}, ""), jwtx.ErrExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok := sign(jwtx.Registered("https://other", "u", nil, time.Minute, now))
		require.ErrorIs(t, v.Verify(tok, &jwtx.AccessClaims{}, ""), jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		tok := sign(jwtx.Registered(exampleIssuer, "u", []string{"a"}, time.Minute, now))
		require.ErrorIs(t, v.Verify(tok, &jwtx.AccessClaims{}, "b"), jwtx.ErrAudience)
	})

	t.Run("unknown kid", func(t *testing.T) {
		other, err := jwtx.NewSigner("k2", newKey(t, jwtx.AlgorithmES256))
		require.NoError(t, err)
		tok, err := other.Sign(jwtx.AccessClaims{RegisteredClaims: jwtx.Registered(exampleIssuer, "u", nil, time.Minute, now)})
		require.NoError(t, err)
		require.ErrorIs(t, v.Verify(tok, &jwtx.AccessClaims{}, ""), jwtx.ErrUnknownKID)
	})

	t.Run("garbage", func(t *testing.T) {
		require.ErrorIs(t, v.Verify("not.a.jwt", &jwtx.AccessClaims{}, ""), jwtx.ErrMalformed)
	})
}

func TestNewSigner_Rejects(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewSigner("", newKey(t, jwtx.AlgorithmEdDSA))
	require.Error(t, err)
	_, err = jwtx.NewSigner("k", nil)
	require.Error(t, err)
}

func TestHashClaim(t *testing.T) {
	t.Parallel()

	// Example from OpenID Connect Core, appendix A.3.
	require.Equal(t, "77QmUPtjPfzWtF2AnpK9RQ", jwtx.HashClaim(jwtx.AlgorithmRS256, "jHkWEdUXMU1BwAsC4vtUsZwnNvTIxEl0z9K3vx5KF0Y"))

	require.Len(t, jwtx.HashClaim(jwtx.AlgorithmRS256, "x"), 22)
	require.Len(t, jwtx.HashClaim(jwtx.AlgorithmES256, "x"), 22)
	require.Len(t, jwtx.HashClaim(jwtx.AlgorithmEdDSA, "x"), 43)
	require.Empty(t, jwtx.HashClaim(jwtx.AlgorithmRS256, ""))
}

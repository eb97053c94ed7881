package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/requestobject"
	"github.com/JanssenProject/jans-sub054/internal/authz/store/drivers/sqlite"
	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
)

const (
	testIssuer      = "https://as.example"
	testRedirectURI = "https://rp.example/cb"
	testVerifier    = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	webSecret       = "web-client-secret-long-enough-for-hmac-sha512-signing-0123456789"
	alicePassword   = "correct horse battery staple"
)

type fixture struct {
	store     *sqlite.Store
	keys      *jwtx.KeyManager
	sealer    *cryptox.Sealer
	config    Config
	clients   *ClientRegistry
	grants    *GrantRegistry
	issuer    *TokenIssuer
	users     *UserAuthenticator
	pars      *ParService
	authorize *AuthorizeService
	tokens    *TokenService

	web   domain.Client
	spa   domain.Client
	svc   domain.Client
	alice domain.User
}

type fixtureOption func(*Config)

func persistent(c *Config) { c.Mode = ServerModePersistent }
func fapi(c *Config)       { c.FAPI = true }

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmES256,
		Issuer:    testIssuer,
	})
	require.NoError(t, err)

	sealer, err := cryptox.NewSealer([]byte("test-master-key"))
	require.NoError(t, err)

	cfg := Config{Issuer: testIssuer}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.WithDefaults()

	f := &fixture{store: st, keys: keys, sealer: sealer, config: cfg}
	f.seed(t, ctx)

	f.clients = &ClientRegistry{Store: st, Sealer: sealer}
	f.grants = &GrantRegistry{Store: st, Config: cfg}
	f.issuer = &TokenIssuer{Keys: keys, Config: cfg}
	f.users = &UserAuthenticator{Store: st}
	f.pars = &ParService{
		PARs:      st.PARs(),
		Clients:   f.clients,
		Validator: requestobject.NewValidator(testIssuer, keys),
		Config:    cfg,
	}
	f.authorize = &AuthorizeService{
		Clients: f.clients,
		Pars:    f.pars,
		Grants:  f.grants,
		Users:   f.users,
		Config:  cfg,
	}
	f.tokens = &TokenService{
		Store:   st,
		Clients: f.clients,
		Grants:  f.grants,
		Issuer:  f.issuer,
		Users:   f.users,
		DPoP:    &DPoPValidator{},
		Config:  cfg,
	}
	return f
}

func (f *fixture) seed(t *testing.T, ctx context.Context) {
	t.Helper()
	now := time.Now()

	hash, err := cryptox.HashPassword(webSecret)
	require.NoError(t, err)
	sealed, err := f.sealer.Seal([]byte(webSecret))
	require.NoError(t, err)

	f.web = domain.Client{
		ID:           "web",
		Name:         "Web App",
		SecretHash:   hash,
		SecretSealed: sealed,
		RedirectURIs: []string{testRedirectURI},
		Scopes:       []string{"openid", "profile", "email"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.spa = domain.Client{
		ID:           "spa",
		Name:         "Single Page App",
		RedirectURIs: []string{"https://spa.example/*"},
		GrantTypes:   []domain.GrantType{domain.GrantTypeAuthorizationCode, domain.GrantTypeRefreshToken},
		Scopes:       []string{"openid", "profile"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.svc = domain.Client{
		ID:         "svc",
		Name:       "Backend Service",
		SecretHash: hash,
		GrantTypes: []domain.GrantType{domain.GrantTypeClientCredentials, domain.GrantTypeTokenExchange},
		Scopes:     []string{"read", "write"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, c := range []domain.Client{f.web, f.spa, f.svc} {
		require.NoError(t, f.store.Clients().UpsertClient(ctx, c))
	}

	pw, err := cryptox.HashPassword(alicePassword)
	require.NoError(t, err)
	f.alice = domain.User{ID: "user-alice", Username: "alice", PasswordHash: pw, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.store.Users().UpsertUser(ctx, f.alice))
}

func webCreds() ClientCredentials {
	return ClientCredentials{ID: "web", Secret: webSecret}
}

// issueCode runs the authorization endpoint for alice and returns the code.
func (f *fixture) issueCode(t *testing.T, scope string) string {
	t.Helper()
	resp, err := f.authorize.Authorize(context.Background(), AuthorizeRequest{
		ClientID: f.web.ID,
		Attributes: domain.ParAttributes{
			ResponseType:        ResponseTypeCode,
			RedirectURI:         testRedirectURI,
			Scope:               scope,
			State:               "xyz",
			Nonce:               "n-0S6",
			CodeChallenge:       S256Challenge(testVerifier),
			CodeChallengeMethod: PKCEMethodS256,
		},
		Username: "alice",
		Password: alicePassword,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Code)
	return resp.Code
}

func codeRequest(code string) TokenRequest {
	return TokenRequest{
		GrantType:    string(domain.GrantTypeAuthorizationCode),
		Client:       webCreds(),
		Code:         code,
		RedirectURI:  testRedirectURI,
		CodeVerifier: testVerifier,
	}
}

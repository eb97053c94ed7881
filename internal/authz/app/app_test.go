package app

import (
	"context"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/pkg/authsdk"
)

const (
	appSeed = `
clients:
  - id: web
    secret: web-secret
    redirect_uris: [https://rp.example/cb]
    scopes: [openid, profile]
  - id: svc
    secret: svc-secret
    grant_types: [client_credentials]
    scopes: [read]
users:
  - username: alice
    password: wonderland
    totp_secret: JBSWY3DPEHPK3PXP
`
	totpSecret = "JBSWY3DPEHPK3PXP"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func testConfig(t *testing.T, dir string) Config {
	t.Helper()

	writeFile(t, filepath.Join(dir, "clients.yaml"), appSeed)
	writeFile(t, filepath.Join(dir, "master.key"), "0123456789abcdef0123456789abcdef")

	return Config{
		ServerMode:        service.ServerModePersistent,
		Issuer:            "https://as.example",
		AccessTokenFormat: "opaque",
		ParStoreDriver:    ParStoreSQLite,

		Algorithm:      "ES256",
		KeyStorageMode: KeyStoragePersistent,
		MasterKeyPath:  filepath.Join(dir, "master.key"),

		DatabaseFile: filepath.Join(dir, "authz.db"),
		PepperFile:   filepath.Join(dir, "pepper"),
		ClientsFile:  filepath.Join(dir, "clients.yaml"),

		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
		RequestTimeout:       5 * time.Second,
	}
}

// start builds an Application and serves its handler without binding the
// configured port.
func start(t *testing.T, cfg Config) (*Application, *authsdk.SDKClient) {
	t.Helper()

	application, err := New(cfg)
	require.NoError(t, err)
	application.housekeepingService.Start()

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	return application, authsdk.NewSDKClient(srv.URL)
}

func TestApplication_ServesSeededClients(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	application, sdk := start(t, cfg)
	defer func() { require.NoError(t, application.Shutdown()) }()
	ctx := context.Background()

	tok, err := sdk.ClientCredentialsGrant(ctx, authsdk.ClientAuth{ID: "svc", Secret: "svc-secret", Basic: true}, nil)
	require.NoError(t, err)
	require.Equal(t, "read", tok.Scope)
	require.Empty(t, tok.RefreshToken)

	web := authsdk.ClientAuth{ID: "web", Secret: "web-secret"}
	_, err = sdk.PasswordGrant(ctx, web, "alice", "wonderland", "", []string{"openid"})
	require.Error(t, err)

	code, err := totp.GenerateCode(totpSecret, time.Now())
	require.NoError(t, err)
	tok, err = sdk.PasswordGrant(ctx, web, "alice", "wonderland", code, []string{"openid"})
	require.NoError(t, err)
	require.NotEmpty(t, tok.IDToken)
	require.NotEmpty(t, tok.RefreshToken)

	v, err := sdk.Validate(ctx, tok.AccessToken)
	require.NoError(t, err)
	require.True(t, v.Valid)
}

func TestApplication_PersistentKeysSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	ctx := context.Background()

	first, sdk := start(t, cfg)
	before, err := sdk.GetJWKS(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Shutdown())

	second, sdk := start(t, cfg)
	defer func() { require.NoError(t, second.Shutdown()) }()
	after, err := sdk.GetJWKS(ctx)
	require.NoError(t, err)

	require.ElementsMatch(t, kids(before), kids(after))
}

func TestApplication_RedisParStore(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t, t.TempDir())
	cfg.ParStoreDriver = ParStoreRedis
	cfg.RedisAddr = mr.Addr()
	application, sdk := start(t, cfg)
	defer func() { require.NoError(t, application.Shutdown()) }()
	ctx := context.Background()

	ready, err := sdk.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks["redis"])

	par, err := sdk.PushAuthorizationRequest(ctx, authsdk.ClientAuth{ID: "web", Secret: "web-secret"}, url.Values{
		"response_type": {"code"},
		"redirect_uri":  {"https://rp.example/cb"},
		"scope":         {"openid"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, par.RequestURI)
	require.Len(t, mr.Keys(), 1)

	mr.Close()
	_, err = sdk.GetReadiness(ctx)
	require.Error(t, err)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.ParStoreDriver = "memcached"

	_, err := New(cfg)
	require.ErrorContains(t, err, "invalid configuration")
}

func TestNew_PersistentKeysNeedMasterKey(t *testing.T) {
	t.Setenv("AUTHZ_MASTER_KEY", "")
	cfg := testConfig(t, t.TempDir())
	cfg.MasterKeyPath = ""

	_, err := New(cfg)
	require.ErrorContains(t, err, "master key")
}

func kids(set *authsdk.JWKSResponse) []string {
	out := make([]string, 0, len(set.Keys))
	for _, k := range set.Keys {
		out = append(out, k.Kid)
	}
	return out
}

package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JanssenProject/jans-sub054/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("remote addr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("first forwarded hop", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("real ip header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestClientKeyExtractors(t *testing.T) {
	form := url.Values{"client_id": {"form-client"}}

	t.Run("form field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		require.Equal(t, "form-client", httpx.FormFieldKeyExtractor("client_id")(req))
	})

	t.Run("basic auth wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth("basic-client", "secret")

		key := httpx.FirstKeyExtractor(
			httpx.BasicAuthUserKeyExtractor,
			httpx.FormFieldKeyExtractor("client_id"),
		)(req)
		require.Equal(t, "basic-client", key)
	})

	t.Run("composite skips blanks", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1"
		key := httpx.CompositeKeyExtractor(":",
			httpx.IPKeyExtractor,
			httpx.FormFieldKeyExtractor("client_id"),
		)(req)
		require.Equal(t, "10.0.0.1", key)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limit := httpx.RateLimit{Requests: 3, Window: time.Minute, Burst: 3}

	t.Run("blocks after burst", func(t *testing.T) {
		h := httpx.RateLimitByIP(limit)(okHandler())

		for i := range 3 {
			req := httptest.NewRequest(http.MethodPost, "/token", nil)
			req.RemoteAddr = "192.0.2.1:1000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}

		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "no-store, no-transform", rec.Header().Get("Cache-Control"))
		require.Contains(t, rec.Body.String(), "slow_down")
	})

	t.Run("keys are independent", func(t *testing.T) {
		h := httpx.RateLimitByClient(httpx.RateLimit{Requests: 1, Window: time.Minute, Burst: 1})(okHandler())

		for _, client := range []string{"a", "b"} {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.SetBasicAuth(client, "x")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, client)
		}

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.SetBasicAuth("a", "x")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("disabled passes through", func(t *testing.T) {
		h := httpx.RateLimitByIP(httpx.RateLimit{})(okHandler())
		for range 50 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestRateLimitFromEnv(t *testing.T) {
	def := httpx.DefaultRateLimitProfiles().Credential

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("AUTHZ_RATELIMIT_TEST_REQUESTS", "7")
		t.Setenv("AUTHZ_RATELIMIT_TEST_WINDOW_SEC", "30")
		t.Setenv("AUTHZ_RATELIMIT_TEST_BURST", "2")

		got := httpx.RateLimitFromEnv("TEST", def)
		require.Equal(t, httpx.RateLimit{Requests: 7, Window: 30 * time.Second, Burst: 2}, got)
	})

	t.Run("invalid values keep defaults", func(t *testing.T) {
		t.Setenv("AUTHZ_RATELIMIT_TEST_REQUESTS", "many")
		t.Setenv("AUTHZ_RATELIMIT_TEST_WINDOW_SEC", "-5")

		got := httpx.RateLimitFromEnv("TEST", def)
		require.Equal(t, def, got)
	})

	t.Run("zero disables", func(t *testing.T) {
		t.Setenv("AUTHZ_RATELIMIT_TEST_REQUESTS", "0")
		require.True(t, httpx.RateLimitFromEnv("TEST", def).Disabled())
	})
}

func BenchmarkRateLimitMiddleware(b *testing.B) {
	h := httpx.RateLimitByIP(httpx.RateLimit{Requests: 1 << 30, Window: time.Second, Burst: 1 << 30})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:1"

	b.ResetTimer()
	for range b.N {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}

package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JanssenProject/jans-sub054/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimit is a token bucket allowance of Requests per Window.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Disabled reports whether the limit lets everything through.
func (l RateLimit) Disabled() bool {
	return l.Requests <= 0 || l.Window <= 0
}

// RateLimitProfiles groups the limits applied to each class of endpoint.
type RateLimitProfiles struct {
	// Credential covers endpoints that check secrets: token, par, authorize.
	Credential RateLimit
	// Introspection covers validate and revoke.
	Introspection RateLimit
	// Public covers discovery and health endpoints.
	Public RateLimit
}

// DefaultRateLimitProfiles returns the built-in limits.
func DefaultRateLimitProfiles() RateLimitProfiles {
	return RateLimitProfiles{
		Credential:    RateLimit{Requests: 60, Window: time.Minute, Burst: 20},
		Introspection: RateLimit{Requests: 300, Window: time.Minute, Burst: 50},
		Public:        RateLimit{Requests: 1000, Window: time.Minute, Burst: 1000},
	}
}

// RateLimitProfilesFromEnv overlays AUTHZ_RATELIMIT_{CREDENTIAL,INTROSPECTION,PUBLIC}_{REQUESTS,WINDOW_SEC,BURST}
// on the defaults. Malformed or non-positive values are ignored, except that
// REQUESTS=0 disables the profile.
func RateLimitProfilesFromEnv() RateLimitProfiles {
	p := DefaultRateLimitProfiles()
	p.Credential = RateLimitFromEnv("CREDENTIAL", p.Credential)
	p.Introspection = RateLimitFromEnv("INTROSPECTION", p.Introspection)
	p.Public = RateLimitFromEnv("PUBLIC", p.Public)
	return p
}

// RateLimitFromEnv reads AUTHZ_RATELIMIT_{name}_* over def.
func RateLimitFromEnv(name string, def RateLimit) RateLimit {
	prefix := "AUTHZ_RATELIMIT_" + name + "_"
	if n, ok := envInt(prefix + "REQUESTS"); ok && n >= 0 {
		def.Requests = n
	}
	if n, ok := envInt(prefix + "WINDOW_SEC"); ok && n > 0 {
		def.Window = time.Duration(n) * time.Second
	}
	if n, ok := envInt(prefix + "BURST"); ok && n > 0 {
		def.Burst = n
	}
	return def
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// KeyExtractor returns the bucket key for a request. An empty key skips
// limiting.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys on the first X-Forwarded-For hop, then X-Real-IP, then
// the peer address.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// FormFieldKeyExtractor keys on a form or query parameter.
func FormFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.FormValue(field)
	}
}

// BasicAuthUserKeyExtractor keys on the HTTP Basic user name, which is the
// client_id for client_secret_basic.
func BasicAuthUserKeyExtractor(r *http.Request) string {
	user, _, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	return user
}

// FirstKeyExtractor returns the first non-empty key.
func FirstKeyExtractor(extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		for _, e := range extractors {
			if k := e(r); k != "" {
				return k
			}
		}
		return ""
	}
}

// CompositeKeyExtractor joins the non-empty keys with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, e := range extractors {
			if k := e(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

const limiterSweepInterval = 5 * time.Minute

type limiterSet struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	lastSweep time.Time
}

func newLimiterSet(l RateLimit) *limiterSet {
	burst := l.Burst
	if burst <= 0 {
		burst = l.Requests
	}
	return &limiterSet{
		limit:     rate.Limit(float64(l.Requests) / l.Window.Seconds()),
		burst:     burst,
		limiters:  make(map[string]*rate.Limiter),
		lastSweep: time.Now(),
	}
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= limiterSweepInterval {
		// A full bucket has been idle long enough to forget.
		for k, l := range s.limiters {
			if l.TokensAt(now) >= float64(s.burst) {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[key] = l
	}
	return l
}

// RateLimitMiddleware rejects requests over limit with 429 and a Retry-After
// header. Requests are bucketed by key.
func RateLimitMiddleware(limit RateLimit, key KeyExtractor) Middleware {
	if limit.Disabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	set := newLimiterSet(limit)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			l := set.get(k, now)
			if l.AllowN(now, 1) {
				next.ServeHTTP(w, r)
				return
			}

			res := l.ReserveN(now, 1)
			delay := res.DelayFrom(now)
			res.CancelAt(now)
			retry := max(int(delay.Seconds()), 1)

			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
			w.Header().Set("X-RateLimit-Window", limit.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", k,
				"path", r.URL.Path,
				"retry_after", retry,
			)

			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "slow_down",
				"error_description": "too many requests",
			})
		})
	}
}

// RateLimitByIP buckets by client address.
func RateLimitByIP(limit RateLimit) Middleware {
	return RateLimitMiddleware(limit, IPKeyExtractor)
}

// RateLimitByClient buckets by the client_id presented in Basic auth or the
// form, falling back to the address for anonymous requests.
func RateLimitByClient(limit RateLimit) Middleware {
	return RateLimitMiddleware(limit, FirstKeyExtractor(
		BasicAuthUserKeyExtractor,
		FormFieldKeyExtractor("client_id"),
		IPKeyExtractor,
	))
}

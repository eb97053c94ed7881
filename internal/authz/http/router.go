package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/pkg/httpx"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"

	_ "github.com/JanssenProject/jans-sub054/api/authz" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	TokenService     *service.TokenService
	ParService       *service.ParService
	AuthorizeService *service.AuthorizeService
	Clients          *service.ClientRegistry

	// RateLimits are applied per endpoint class.
	RateLimits httpx.RateLimitProfiles

	// ReadinessChecks are reported by /readyz. NewRouter adds the database
	// and the signing keys.
	ReadinessChecks map[string]ReadinessCheck
}

// NewRouter builds a router with the default middleware chain: panic
// recovery, request logging and a per-request deadline.
func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	requestTimeout time.Duration,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		RateLimits:   httpx.DefaultRateLimitProfiles(),
		ReadinessChecks: map[string]ReadinessCheck{
			"database": st.Ping,
			"signer": func(context.Context) error {
				if !keys.IsReady() {
					return errors.New("no keys loaded")
				}
				return nil
			},
		},
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
		httpx.RequestTimeout(requestTimeout),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Authorization Server API
//	@version		0.1.0
//	@description	OAuth 2.0 and OpenID Connect grant and token issuance engine.
//	@description
//	@description	Supports the authorization_code (with PKCE and PAR), refresh_token, client_credentials, password and token-exchange grants.
//	@description	Issued JWTs can be verified using the JWKS endpoint.
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.basic	ClientBasic
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	limits := r.RateLimits

	// POST /token - credential limit by IP and by client
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(limits.Credential),
			httpx.RateLimitByClient(limits.Credential),
		),
	)

	// /par - every method is routed so the handler can answer 405 as JSON
	parHandler := &ParHandler{ParService: r.ParService, Clients: r.Clients}
	r.Mux.Handle("/v1/oauth2/par",
		httpx.Chain(parHandler,
			httpx.RateLimitByIP(limits.Credential),
		),
	)

	// POST /authorize - limited by IP + username to slow password guessing
	authorizeHandler := &AuthorizeHandler{AuthorizeService: r.AuthorizeService, Clients: r.Clients}
	r.Mux.Handle("POST /v1/oauth2/authorize",
		httpx.Chain(authorizeHandler,
			httpx.RateLimitMiddleware(limits.Credential, httpx.CompositeKeyExtractor("|",
				httpx.IPKeyExtractor,
				httpx.FormFieldKeyExtractor("username"),
			)),
		),
	)

	validateHandler := &ValidateHandler{TokenService: r.TokenService}
	validate := httpx.Chain(validateHandler, httpx.RateLimitByIP(limits.Introspection))
	r.Mux.Handle("GET /v1/oauth2/validate", validate)
	r.Mux.Handle("POST /v1/oauth2/validate", validate)

	revokeHandler := &RevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByClient(limits.Introspection),
		),
	)

	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys.KeySet),
			httpx.RateLimitByIP(limits.Public),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.ReadinessChecks),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
}

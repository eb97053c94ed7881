package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/pkg/authsdk"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// AuthorizeHandler processes form-login authorization requests
// (authorization code flow).
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
	Clients          *service.ClientRegistry
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 authorization endpoint (POST)
//	@Description	Signs the user in with username and password (plus otp when enrolled) and issues an authorization code.
//	@Description	The request is either a request_uri from the PAR endpoint or direct parameters, optionally with a request object.
//	@Description
//	@Description	**Response:**
//	@Description	- Success: 302 redirect to redirect_uri with code and state parameters
//	@Description	- Error after the redirect_uri is validated: 302 redirect with error, error_description and state
//	@Description	- Other errors: JSON error response
//	@Tags			OAuth2
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			client_id				formData	string					true	"OAuth2 client identifier"
//	@Param			request_uri				formData	string					false	"request_uri returned by the PAR endpoint"
//	@Param			request					formData	string					false	"Request object (JWS or JWE)"
//	@Param			response_type			formData	string					false	"Must be 'code'"	default(code)
//	@Param			redirect_uri			formData	string					false	"Callback URI (must match a registered redirect URI)"
//	@Param			scope					formData	string					false	"Space-delimited list of scopes"
//	@Param			state					formData	string					false	"Opaque value for CSRF protection"
//	@Param			nonce					formData	string					false	"OIDC nonce"
//	@Param			code_challenge			formData	string					false	"PKCE code challenge (required for public clients)"
//	@Param			code_challenge_method	formData	string					false	"PKCE method"	default(S256)	Enums(S256, plain)
//	@Param			username				formData	string					true	"Username"
//	@Param			password				formData	string					true	"Password"
//	@Param			otp						formData	string					false	"TOTP code when the user has a second factor"
//	@Success		302						{string}	string					"Redirect to redirect_uri with code and state"
//	@Failure		400						{object}	authsdk.ErrorResponse	"error, error_description, state"
//	@Failure		401						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		403						{object}	authsdk.ErrorResponse	"error, error_description, state"
//	@Router			/v1/oauth2/authorize [post]
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	form := r.PostForm
	req := service.AuthorizeRequest{
		ClientID:   strings.TrimSpace(form.Get("client_id")),
		RequestURI: strings.TrimSpace(form.Get("request_uri")),
		Request:    strings.TrimSpace(form.Get("request")),
		Attributes: parseAttributes(form),
		Username:   strings.TrimSpace(form.Get("username")),
		Password:   form.Get("password"),
		OTP:        strings.TrimSpace(form.Get("otp")),
	}

	resp, err := h.AuthorizeService.Authorize(r.Context(), req)
	if err != nil {
		h.handleAuthorizeError(w, r, req, err)
		return
	}

	redirectURL, err := buildAuthorizeRedirect(resp.RedirectURI, url.Values{"code": {resp.Code}}, resp.State)
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to build redirect URL", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *AuthorizeHandler) handleAuthorizeError(w http.ResponseWriter, r *http.Request, req service.AuthorizeRequest, err error) {
	l := slogx.FromContext(r.Context())
	oerr := oauthError(r, err, service.ClientCredentials{})
	state := service.State(err)

	// RFC 6749 section 4.1.2.1: errors are only redirected to a redirect_uri
	// registered for the client. Pushed requests and request objects are
	// answered directly since their redirect_uri is not known here.
	if oerr.StatusCode < http.StatusInternalServerError && h.redirectable(r, req, err) {
		q := url.Values{"error": {oerr.Code}}
		if oerr.Description != "" {
			q.Set("error_description", oerr.Description)
		}
		if redirectURL, berr := buildAuthorizeRedirect(req.Attributes.RedirectURI, q, state); berr == nil {
			l.Debug("authorize error redirected", "error_code", oerr.Code)
			http.Redirect(w, r, redirectURL, http.StatusFound)
			return
		}
	}

	l.Debug("authorize request returned error response", "error_code", oerr.Code)
	oerr.WithState(state).WriteError(w)
}

func (h *AuthorizeHandler) redirectable(r *http.Request, req service.AuthorizeRequest, err error) bool {
	if req.RequestURI != "" || req.Request != "" || req.Attributes.RedirectURI == "" {
		return false
	}
	if errors.Is(err, service.ErrInvalidClient) {
		return false
	}
	client, cerr := h.Clients.GetClient(r.Context(), req.ClientID)
	if cerr != nil {
		return false
	}
	return h.Clients.ValidateRedirectURI(client, req.Attributes.RedirectURI)
}

// buildAuthorizeRedirect appends params and state to the redirect URI.
func buildAuthorizeRedirect(baseURI string, params url.Values, state string) (string, error) {
	u, err := url.Parse(baseURI)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

package http

import (
	"net/http"
	"strings"

	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/pkg/authsdk"
	"github.com/JanssenProject/jans-sub054/pkg/httpx"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues tokens for the authorization_code, refresh_token, client_credentials, password and token-exchange grants.
//	@Description	Extension grant types that are absolute URIs are answered with 501 invalid_grant.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type				formData	string					true	"Grant type"
//	@Param			code					formData	string					false	"Authorization code (authorization_code grant)"
//	@Param			redirect_uri			formData	string					false	"Redirect URI used at the authorization endpoint"
//	@Param			code_verifier			formData	string					false	"PKCE code_verifier"
//	@Param			refresh_token			formData	string					false	"Refresh token (refresh_token grant)"
//	@Param			scope					formData	string					false	"Space-delimited list of scopes"
//	@Param			username				formData	string					false	"Resource owner username (password grant)"
//	@Param			password				formData	string					false	"Resource owner password (password grant)"
//	@Param			otp						formData	string					false	"TOTP code when the user has a second factor"
//	@Param			subject_token			formData	string					false	"Access token to exchange (token-exchange grant)"
//	@Param			subject_token_type		formData	string					false	"urn:ietf:params:oauth:token-type:access_token"
//	@Param			requested_token_type	formData	string					false	"urn:ietf:params:oauth:token-type:access_token"
//	@Param			client_id				formData	string					false	"Client identifier (client_secret_post)"
//	@Param			client_secret			formData	string					false	"Client secret (client_secret_post)"
//	@Param			DPoP					header		string					false	"DPoP proof JWT"
//	@Success		200						{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, refresh_token, id_token, scope"
//	@Failure		400						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		501						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200						{string}	Cache-Control			"no-store, no-transform"
//	@Header			200						{string}	Pragma					"no-cache"
//	@Router			/v1/oauth2/token [post]
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	creds, oerr := clientCredentials(r)
	if oerr != nil {
		oerr.WriteError(w)
		return
	}

	form := r.PostForm
	req := service.TokenRequest{
		GrantType:          strings.TrimSpace(form.Get("grant_type")),
		Client:             creds,
		Code:               strings.TrimSpace(form.Get("code")),
		RedirectURI:        strings.TrimSpace(form.Get("redirect_uri")),
		CodeVerifier:       strings.TrimSpace(form.Get("code_verifier")),
		RefreshToken:       strings.TrimSpace(form.Get("refresh_token")),
		Scope:              strings.TrimSpace(form.Get("scope")),
		Username:           strings.TrimSpace(form.Get("username")),
		Password:           form.Get("password"),
		OTP:                strings.TrimSpace(form.Get("otp")),
		SubjectToken:       strings.TrimSpace(form.Get("subject_token")),
		SubjectTokenType:   strings.TrimSpace(form.Get("subject_token_type")),
		RequestedTokenType: strings.TrimSpace(form.Get("requested_token_type")),
		DPoPProof:          r.Header.Get(service.DPoPHeader),
		Method:             r.Method,
		URL:                requestURL(r),
	}

	resp, err := h.TokenService.Exchange(r.Context(), req)
	if err != nil {
		slogx.FromContext(r.Context()).Info("token request rejected",
			"grant_type", req.GrantType, "client_id", creds.ID, "error", err)
		oauthError(r, err, creds).WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:     resp.AccessToken,
		TokenType:       resp.TokenType,
		ExpiresIn:       resp.ExpiresIn,
		RefreshToken:    resp.RefreshToken,
		Scope:           resp.Scope,
		IDToken:         resp.IDToken,
		IssuedTokenType: resp.IssuedTokenType,
	})
}

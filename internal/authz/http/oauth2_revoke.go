package http

import (
	"net/http"

	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/pkg/httpx"
)

// RevokeHandler serves POST /v1/oauth2/revoke (RFC 7009).
type RevokeHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Token Revocation (RFC 7009)
//	@Description	Revokes an access or refresh token of the authenticated client. Revoking a refresh token revokes every token of its grant.
//	@Description	Unknown tokens are answered with 200 as well.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string					true	"Token to revoke"
//	@Param			token_type_hint	formData	string					false	"access_token or refresh_token"
//	@Param			client_id		formData	string					false	"Client identifier (client_secret_post)"
//	@Param			client_secret	formData	string					false	"Client secret (client_secret_post)"
//	@Success		200				{object}	map[string]string		"empty object"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/oauth2/revoke [post]
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	creds, oerr := clientCredentials(r)
	if oerr != nil {
		oerr.WriteError(w)
		return
	}

	if err := h.TokenService.Revoke(r.Context(), creds, r.PostForm.Get("token")); err != nil {
		oauthError(r, err, creds).WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

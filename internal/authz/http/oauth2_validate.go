package http

import (
	"net/http"
	"strings"

	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/pkg/authsdk"
	"github.com/JanssenProject/jans-sub054/pkg/httpx"
)

// ValidateHandler serves GET and POST /v1/oauth2/validate.
type ValidateHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Validate Access Token
//	@Description	Reports whether an access token is live and how long it has left.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			access_token	formData	string						true	"Access token"
//	@Success		200				{object}	authsdk.ValidateResponse	"valid, expires_in"
//	@Failure		400				{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse		"error, error_description"
//	@Router			/v1/oauth2/validate [get]
//	@Router			/v1/oauth2/validate [post]
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	v, err := h.TokenService.Validate(r.Context(), strings.TrimSpace(r.Form.Get("access_token")))
	if err != nil {
		oauthError(r, err, service.ClientCredentials{}).WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ValidateResponse{
		Valid:     true,
		ExpiresIn: v.ExpiresIn,
	})
}

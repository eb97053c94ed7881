package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/pkg/authsdk"
	"github.com/JanssenProject/jans-sub054/pkg/httpx"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// ParHandler serves /v1/oauth2/par (RFC 9126).
type ParHandler struct {
	ParService *service.ParService
	Clients    *service.ClientRegistry
}

// ServeHTTP godoc
//
//	@Summary		Pushed Authorization Request
//	@Description	Stores authorization parameters for an authenticated client and returns a single-use request_uri.
//	@Description	A signed or encrypted request object in the request parameter overrides the form values it carries.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			response_type			formData	string					true	"Must be code"
//	@Param			redirect_uri			formData	string					true	"Registered redirect URI"
//	@Param			scope					formData	string					false	"Space-delimited list of scopes"
//	@Param			state					formData	string					false	"Opaque client state"
//	@Param			nonce					formData	string					false	"OIDC nonce"
//	@Param			code_challenge			formData	string					false	"PKCE challenge"
//	@Param			code_challenge_method	formData	string					false	"S256 or plain"
//	@Param			request					formData	string					false	"Request object (JWS or JWE)"
//	@Param			client_id				formData	string					false	"Client identifier (client_secret_post)"
//	@Param			client_secret			formData	string					false	"Client secret (client_secret_post)"
//	@Success		201						{object}	authsdk.ParResponse		"request_uri, expires_in"
//	@Failure		400						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		405						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/oauth2/par [post]
func (h *ParHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		authsdk.ErrMethodNotAllowed.WriteError(w)
		return
	}
	if !parseForm(w, r) {
		return
	}

	ctx := r.Context()
	l := slogx.FromContext(ctx)

	creds, oerr := clientCredentials(r)
	if oerr != nil {
		oerr.WriteError(w)
		return
	}

	client, err := h.Clients.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, service.ErrClientMissing) {
			err = service.ErrInvalidClient
		}
		oauthError(r, err, creds).WriteError(w)
		return
	}

	res, err := h.ParService.Push(ctx, service.PushRequest{
		Client:     client,
		Attributes: parseAttributes(r.PostForm),
		Request:    strings.TrimSpace(r.PostForm.Get("request")),
		RequestURI: strings.TrimSpace(r.PostForm.Get("request_uri")),
	})
	if err != nil {
		l.Info("pushed authorization request rejected", "client_id", client.ID, "error", err)
		if errors.Is(err, service.ErrInvalidRequestObject) {
			authsdk.ErrInvalidRequest.WithDescription(service.Description(err)).WriteError(w)
			return
		}
		oauthError(r, err, creds).WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.ParResponse{
		RequestURI: res.RequestURI,
		ExpiresIn:  res.ExpiresIn,
	})
}

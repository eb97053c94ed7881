package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/pkg/authsdk"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// basicChallenge is sent with invalid_client when the client used Basic.
const basicChallenge = `Basic realm="authz"`

var errLoginRequired = &authsdk.OAuth2Error{
	StatusCode:  http.StatusBadRequest,
	Code:        "login_required",
	Description: "end-user authentication is required",
}

// oauthError maps a service error to its OAuth2 response. The service
// description replaces the generic one when present. Anything unclassified
// is logged and becomes server_error.
func oauthError(r *http.Request, err error, creds service.ClientCredentials) *authsdk.OAuth2Error {
	l := slogx.FromContext(r.Context())

	var out *authsdk.OAuth2Error
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		out = authsdk.ErrInvalidRequest
	case errors.Is(err, service.ErrInvalidClient):
		out = authsdk.ErrInvalidClient
		if creds.Basic {
			c := *out
			c.Authenticate = basicChallenge
			out = &c
		}
	case errors.Is(err, service.ErrInvalidGrant):
		out = authsdk.ErrInvalidGrant
	case errors.Is(err, service.ErrNotImplemented):
		out = authsdk.ErrGrantNotImplemented
	case errors.Is(err, service.ErrInvalidScope):
		out = authsdk.ErrInvalidScope
	case errors.Is(err, service.ErrInvalidToken):
		out = authsdk.ErrInvalidToken
	case errors.Is(err, service.ErrInvalidRequestObject):
		out = authsdk.ErrInvalidRequestObject
	case errors.Is(err, service.ErrInvalidRequestURI):
		out = authsdk.ErrInvalidRequestURI
	case errors.Is(err, service.ErrUnauthorizedClient):
		out = authsdk.ErrUnauthorizedClient
	case errors.Is(err, service.ErrUnsupportedGrantType):
		out = authsdk.ErrUnsupportedGrantType
	case errors.Is(err, service.ErrUnsupportedResponseType):
		out = authsdk.ErrUnsupportedResponseType
	case errors.Is(err, service.ErrInvalidDPoPProof):
		out = authsdk.ErrInvalidDPoPProof
	case errors.Is(err, service.ErrAccessDenied), errors.Is(err, service.ErrInvalidCredentials):
		out = authsdk.ErrAccessDenied
	case errors.Is(err, service.ErrLoginRequired):
		out = errLoginRequired
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		l.Warn("request aborted", "error", err)
		return authsdk.ErrServerError
	default:
		l.Error("request failed", "error", err)
		return authsdk.ErrServerError
	}

	if desc := service.Description(err); desc != "" {
		out = out.WithDescription(desc)
	}
	return out
}

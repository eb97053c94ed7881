package service

import (
	"context"
	"strings"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/requestobject"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// AuthorizeService issues authorization codes for a signed-in user, from
// either a pushed request or direct parameters.
type AuthorizeService struct {
	Clients *ClientRegistry
	Pars    *ParService
	Grants  *GrantRegistry
	Users   *UserAuthenticator
	Config  Config
}

// AuthorizeRequest is the authorization endpoint input.
type AuthorizeRequest struct {
	ClientID   string
	RequestURI string
	Request    string

	// Attributes are the direct parameters. They are ignored when
	// RequestURI is set.
	Attributes domain.ParAttributes

	Username string
	Password string
	OTP      string
}

// AuthorizeCodeResponse carries the redirect back to the client.
type AuthorizeCodeResponse struct {
	Code        string
	RedirectURI string
	State       string
}

// Authorize resolves the effective request, signs the user in and issues a
// code. Errors carry the request state once it is known.
func (s *AuthorizeService) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeCodeResponse, error) {
	l := slogx.FromContext(ctx)

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return nil, newError(ErrInvalidRequest, "client_id is required")
	}
	client, err := s.Clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var attrs domain.ParAttributes
	switch {
	case strings.TrimSpace(req.RequestURI) != "":
		par, err := s.Pars.GetAndValidateForAuthorizationRequest(ctx, req.RequestURI, req.Attributes.State, clientID)
		if err != nil {
			return nil, err
		}
		attrs = par.Attributes
	case client.RequirePAR:
		return nil, withState(newError(ErrInvalidRequest, "pushed authorization request required"), req.Attributes.State)
	default:
		attrs = req.Attributes
		attrs.ClientID = clientID
		if strings.TrimSpace(req.Request) != "" {
			ro, err := s.Pars.validateRequestObject(ctx, client, req.Request)
			if err != nil {
				return nil, withState(err, attrs.State)
			}
			requestobject.Merge(&attrs, ro)
			if attrs.ClientID != clientID {
				return nil, withState(newError(ErrInvalidRequest, "client_id does not match"), attrs.State)
			}
		}
		if err := checkTimeBounds(attrs, s.Grants.now()); err != nil {
			return nil, withState(err, attrs.State)
		}
	}
	state := attrs.State

	if attrs.ResponseType != ResponseTypeCode {
		return nil, withState(newError(ErrUnsupportedResponseType, "only response_type=code is supported"), state)
	}
	if !client.MatchesRedirectURI(attrs.RedirectURI) {
		return nil, withState(newError(ErrInvalidRequest, "redirect_uri is not registered"), state)
	}
	if !client.AllowsGrantType(domain.GrantTypeAuthorizationCode) {
		return nil, withState(newError(ErrUnauthorizedClient, "client may not use the authorization code flow"), state)
	}

	challenge, method, err := validatePKCE(attrs.CodeChallenge, attrs.CodeChallengeMethod, client, s.Config.FAPI || client.FAPI)
	if err != nil {
		return nil, withState(err, state)
	}

	auth, err := s.Users.Authenticate(ctx, req.Username, req.Password, req.OTP)
	if err != nil {
		return nil, withState(err, state)
	}

	scopes := s.Grants.CheckScopesPolicy(client.Scopes, client, ParseScope(attrs.Scope))
	if len(scopes) == 0 {
		return nil, withState(newError(ErrInvalidScope, "no requested scope is allowed"), state)
	}

	grant, code, err := s.Grants.CreateAuthorizationCodeGrant(ctx, CodeGrantParams{
		Client:              client,
		UserID:              auth.User.ID,
		RedirectURI:         attrs.RedirectURI,
		Scopes:              scopes,
		Nonce:               attrs.Nonce,
		ACR:                 firstField(attrs.ACRValues),
		AMR:                 auth.AMR,
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
	})
	if err != nil {
		return nil, err
	}

	l.Info("authorization code issued",
		"client_id", client.ID, "user_id", auth.User.ID, "grant_id", grant.ID)

	return &AuthorizeCodeResponse{
		Code:        code,
		RedirectURI: attrs.RedirectURI,
		State:       state,
	}, nil
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

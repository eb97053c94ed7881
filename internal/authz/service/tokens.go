package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// Token type identifiers for token exchange (RFC 8693).
const (
	TokenTypeAccessToken  = "urn:ietf:params:oauth:token-type:access_token"
	TokenTypeRefreshToken = "urn:ietf:params:oauth:token-type:refresh_token"
)

// TokenService answers the token, validate and revoke endpoints.
type TokenService struct {
	Store   store.Store
	Clients *ClientRegistry
	Grants  *GrantRegistry
	Issuer  *TokenIssuer
	Users   *UserAuthenticator
	DPoP    *DPoPValidator
	Config  Config
	Now     func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// TokenRequest is a parsed token endpoint request.
type TokenRequest struct {
	GrantType string
	Client    ClientCredentials

	Code         string
	RedirectURI  string
	CodeVerifier string

	RefreshToken string
	Scope        string

	Username string
	Password string
	OTP      string

	SubjectToken       string
	SubjectTokenType   string
	RequestedTokenType string

	// DPoPProof is the DPoP header. Method and URL describe the request it
	// must be bound to.
	DPoPProof string
	Method    string
	URL       string
}

// TokenResponse is a successful token endpoint answer.
type TokenResponse struct {
	AccessToken     string
	TokenType       string
	ExpiresIn       int64
	RefreshToken    string
	IDToken         string
	Scope           string
	IssuedTokenType string
}

// Exchange dispatches on grant_type and issues tokens.
func (s *TokenService) Exchange(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	l := slogx.FromContext(ctx)

	gt := domain.GrantType(strings.TrimSpace(req.GrantType))
	switch gt {
	case "":
		return nil, newError(ErrInvalidRequest, "grant_type is required")
	case domain.GrantTypeAuthorizationCode,
		domain.GrantTypeRefreshToken,
		domain.GrantTypeClientCredentials,
		domain.GrantTypePassword,
		domain.GrantTypeTokenExchange:
	default:
		if isExtensionGrant(string(gt)) {
			l.Info("extension grant type not supported", slog.String("grant_type", string(gt)))
			return nil, newError(ErrNotImplemented, "grant type is not supported")
		}
		return nil, newError(ErrUnsupportedGrantType, fmt.Sprintf("unsupported grant_type %q", gt))
	}

	client, err := s.Clients.Authenticate(ctx, req.Client)
	if err != nil {
		if errors.Is(err, ErrClientMissing) {
			if gt == domain.GrantTypePassword {
				return nil, newError(ErrInvalidClient, "client authentication is required")
			}
			return nil, newError(ErrInvalidGrant, "client is required")
		}
		return nil, err
	}

	if !s.Clients.AllowsGrantType(client, gt) {
		l.Info("grant type not allowed for client",
			slog.String("client_id", client.ID), slog.String("grant_type", string(gt)))
		return nil, newError(ErrUnauthorizedClient, "client is not allowed to use this grant type")
	}

	var jkt string
	if req.DPoPProof != "" && s.DPoP != nil {
		if jkt, err = s.DPoP.Validate(req.DPoPProof, req.Method, req.URL); err != nil {
			l.Info("dpop proof rejected", slog.String("client_id", client.ID), slog.Any("error", err))
			return nil, err
		}
	}

	switch gt {
	case domain.GrantTypeAuthorizationCode:
		return s.exchangeAuthorizationCode(ctx, client, req, jkt)
	case domain.GrantTypeRefreshToken:
		return s.exchangeRefreshToken(ctx, client, req, jkt)
	case domain.GrantTypeClientCredentials:
		return s.exchangeClientCredentials(ctx, client, req, jkt)
	case domain.GrantTypePassword:
		return s.exchangePassword(ctx, client, req, jkt)
	default:
		return s.exchangeToken(ctx, client, req)
	}
}

// isExtensionGrant reports whether gt is an absolute URI, which RFC 6749
// reserves for extension grants.
func isExtensionGrant(gt string) bool {
	i := strings.Index(gt, ":")
	return i > 0 && i < len(gt)-1
}

func (s *TokenService) exchangeAuthorizationCode(ctx context.Context, client domain.Client, req TokenRequest, jkt string) (*TokenResponse, error) {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(req.Code) == "" {
		return nil, newError(ErrInvalidRequest, "code is required")
	}

	var (
		resp   *TokenResponse
		replay bool
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		cg, err := s.Grants.GetAuthorizationCodeGrant(ctx, tx, client.ID, req.Code)
		if err != nil {
			replay = errors.Is(err, ErrInvalidGrant)
			return err
		}

		if cg.Code.RedirectURI != "" && cg.Code.RedirectURI != strings.TrimSpace(req.RedirectURI) {
			return newError(ErrInvalidGrant, "redirect_uri does not match")
		}
		if !verifyCodeVerifier(cg.Code.CodeChallenge, cg.Code.CodeChallengeMethod, req.CodeVerifier) {
			return newError(ErrInvalidGrant, "code_verifier is invalid")
		}

		if err := s.Grants.ConsumeAuthorizationCode(ctx, tx, cg.Code.ID); err != nil {
			replay = errors.Is(err, ErrInvalidGrant)
			return err
		}

		resp, err = s.issue(ctx, tx, cg.Grant, client, cg.Grant.Scopes, jkt, IDTokenInput{
			Nonce: cg.Code.Nonce,
			Code:  req.Code,
		})
		return err
	})
	if err != nil {
		if replay {
			if rerr := s.Grants.RemoveAllByAuthorizationCode(ctx, req.Code); rerr != nil {
				l.Error("failed to revoke grants of replayed code", slog.Any("error", rerr))
			}
			return nil, newError(ErrInvalidGrant, "authorization code is invalid, expired or already used")
		}
		return nil, err
	}

	l.Info("authorization code exchanged", slog.String("client_id", client.ID))
	return resp, nil
}

func (s *TokenService) exchangeRefreshToken(ctx context.Context, client domain.Client, req TokenRequest, jkt string) (*TokenResponse, error) {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(req.RefreshToken) == "" {
		return nil, newError(ErrInvalidRequest, "refresh_token is required")
	}

	tg, err := s.Grants.GetAuthorizationGrantByRefreshToken(ctx, client.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidGrant) {
			return nil, newError(ErrInvalidGrant, "refresh token is invalid, expired or revoked")
		}
		return nil, err
	}

	requested := ParseScope(req.Scope)
	scopes := s.Grants.CheckScopesPolicy(tg.Token.Scopes, client, requested)
	if len(requested) > 0 && len(scopes) == 0 {
		return nil, newError(ErrInvalidScope, "requested scope exceeds the original grant")
	}

	var resp *TokenResponse
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().RevokeToken(ctx, tg.Token.ID, s.now()); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return newError(ErrInvalidGrant, "refresh token is invalid, expired or revoked")
			}
			return err
		}
		var err error
		resp, err = s.issue(ctx, tx, tg.Grant, client, scopes, jkt, IDTokenInput{})
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Info("refresh token rotated", slog.String("client_id", client.ID), slog.String("grant_id", tg.Grant.ID))
	return resp, nil
}

func (s *TokenService) exchangeClientCredentials(ctx context.Context, client domain.Client, req TokenRequest, jkt string) (*TokenResponse, error) {
	var resp *TokenResponse
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		g, err := s.Grants.CreateClientCredentialsGrant(ctx, tx, client, ParseScope(req.Scope))
		if err != nil {
			return err
		}
		at, err := s.Issuer.CreateAccessToken(ctx, tx, g, client, g.Scopes, jkt)
		if err != nil {
			return err
		}
		resp = accessResponse(at)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *TokenService) exchangePassword(ctx context.Context, client domain.Client, req TokenRequest, jkt string) (*TokenResponse, error) {
	auth, err := s.Users.Authenticate(ctx, req.Username, req.Password, req.OTP)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, newError(ErrInvalidClient, "user authentication failed")
		}
		return nil, err
	}

	var resp *TokenResponse
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		g, err := s.Grants.CreateResourceOwnerPasswordCredentialsGrant(ctx, tx, auth, client, ParseScope(req.Scope))
		if err != nil {
			return err
		}
		resp, err = s.issue(ctx, tx, g, client, g.Scopes, jkt, IDTokenInput{})
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *TokenService) exchangeToken(ctx context.Context, client domain.Client, req TokenRequest) (*TokenResponse, error) {
	if strings.TrimSpace(req.SubjectToken) == "" {
		return nil, newError(ErrInvalidRequest, "subject_token is required")
	}
	if t := strings.TrimSpace(req.SubjectTokenType); t != "" && t != TokenTypeAccessToken {
		return nil, newError(ErrInvalidRequest, "subject_token_type must be an access token")
	}
	if t := strings.TrimSpace(req.RequestedTokenType); t != "" && t != TokenTypeAccessToken {
		return nil, newError(ErrInvalidRequest, "requested_token_type is not supported")
	}

	parent, err := s.Grants.GetAuthorizationGrantByAccessToken(ctx, req.SubjectToken)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, newError(ErrInvalidGrant, "subject_token is invalid, expired or revoked")
	}

	var resp *TokenResponse
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		child, err := s.Grants.CreateExchangedGrant(ctx, tx, parent.Grant, client, ParseScope(req.Scope))
		if err != nil {
			return err
		}
		at, err := s.Issuer.CreateLongLivedAccessToken(ctx, tx, child, client)
		if err != nil {
			return err
		}
		resp = accessResponse(at)
		resp.IssuedTokenType = TokenTypeAccessToken
		return nil
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("token exchanged",
		slog.String("client_id", client.ID), slog.String("parent_grant_id", parent.Grant.ID))
	return resp, nil
}

// issue mints the access token, then the refresh and ID tokens the grant
// allows.
func (s *TokenService) issue(ctx context.Context, tx store.Tx, grant domain.Grant, client domain.Client, scopes []string, jkt string, in IDTokenInput) (*TokenResponse, error) {
	at, err := s.Issuer.CreateAccessToken(ctx, tx, grant, client, scopes, jkt)
	if err != nil {
		return nil, err
	}
	resp := accessResponse(at)

	rt, err := s.Issuer.CreateRefreshToken(ctx, tx, grant, client, scopes)
	if err != nil {
		return nil, err
	}
	if rt != nil {
		resp.RefreshToken = rt.Value
	}

	in.AccessToken = at.Value
	idt, err := s.Issuer.CreateIDToken(ctx, tx, grant, client, scopes, in)
	if err != nil {
		return nil, err
	}
	if idt != nil {
		resp.IDToken = idt.Value
	}
	return resp, nil
}

func accessResponse(at *IssuedToken) *TokenResponse {
	return &TokenResponse{
		AccessToken: at.Value,
		TokenType:   at.Record.TokenType,
		ExpiresIn:   at.ExpiresIn(),
		Scope:       JoinScopes(at.Record.Scopes),
	}
}

// Validation describes a live access token.
type Validation struct {
	ClientID  string
	Subject   string
	Scopes    []string
	TokenType string
	ExpiresIn int64
}

// Validate checks an access token. An unknown, expired or revoked token,
// or one whose grant is gone, yields ErrInvalidToken.
func (s *TokenService) Validate(ctx context.Context, token string) (*Validation, error) {
	if strings.TrimSpace(token) == "" {
		return nil, newError(ErrInvalidRequest, "access_token is required")
	}

	tg, err := s.Grants.GetAuthorizationGrantByAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if tg == nil {
		return nil, newError(ErrInvalidToken, "token is invalid, expired or revoked")
	}

	return &Validation{
		ClientID:  tg.Token.ClientID,
		Subject:   tg.Grant.Subject(),
		Scopes:    tg.Token.Scopes,
		TokenType: tg.Token.TokenType,
		ExpiresIn: tg.Token.ExpiresIn(s.now()),
	}, nil
}

// Revoke revokes an access or refresh token issued to the authenticated
// client. Revoking a refresh token also revokes the grant's other tokens.
// Unknown tokens and tokens of other clients are ignored.
func (s *TokenService) Revoke(ctx context.Context, creds ClientCredentials, token string) error {
	l := slogx.FromContext(ctx)

	client, err := s.Clients.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, ErrClientMissing) {
			return newError(ErrInvalidClient, "client authentication is required")
		}
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return newError(ErrInvalidRequest, "token is required")
	}

	t, err := s.Store.Tokens().GetTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Debug("revocation of unknown token", slog.String("client_id", client.ID))
			return nil
		}
		return err
	}
	if t.ClientID != client.ID {
		l.Warn("revocation of another client's token", slog.String("client_id", client.ID))
		return nil
	}

	now := s.now()
	if t.Kind == domain.TokenKindRefresh {
		n, err := s.Store.Tokens().RevokeTokensByGrant(ctx, t.GrantID, now)
		if err != nil {
			return err
		}
		l.Info("grant tokens revoked", slog.String("grant_id", t.GrantID), slog.Int64("count", n))
		return nil
	}

	if err := s.Store.Tokens().RevokeToken(ctx, t.ID, now); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	l.Info("token revoked", slog.String("token_id", t.ID))
	return nil
}

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
	"github.com/JanssenProject/jans-sub054/pkg/idx"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// GrantRegistry maps codes and tokens to grants and creates new grants.
type GrantRegistry struct {
	Store  store.Store
	Config Config
	Now    func() time.Time
}

func (r *GrantRegistry) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// CodeGrantParams describes an authenticated authorization request.
type CodeGrantParams struct {
	Client              domain.Client
	UserID              string
	RedirectURI         string
	Scopes              []string
	Nonce               string
	ACR                 string
	AMR                 []string
	AuthTime            time.Time
	SessionID           string
	CodeChallenge       string
	CodeChallengeMethod string
}

// CreateAuthorizationCodeGrant stores a new grant with its code and returns
// the code value. Only the code fingerprint is kept.
func (r *GrantRegistry) CreateAuthorizationCodeGrant(ctx context.Context, p CodeGrantParams) (domain.Grant, string, error) {
	now := r.now()

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Grant{}, "", err
	}

	sessionID := p.SessionID
	if sessionID == "" {
		sessionID = idx.NewString()
	}
	authTime := p.AuthTime
	if authTime.IsZero() {
		authTime = now
	}

	g := domain.Grant{
		ID:        idx.NewString(),
		Type:      domain.GrantTypeAuthorizationCode,
		ClientID:  p.Client.ID,
		UserID:    p.UserID,
		Scopes:    dedupe(p.Scopes),
		ACR:       p.ACR,
		AMR:       dedupe(p.AMR),
		AuthTime:  authTime,
		Nonce:     p.Nonce,
		SessionID: sessionID,
		CreatedAt: now,
	}
	ac := domain.AuthorizationCode{
		ID:                  idx.NewString(),
		GrantID:             g.ID,
		ClientID:            p.Client.ID,
		CodeHash:            cryptox.FingerprintToken(code),
		RedirectURI:         p.RedirectURI,
		CodeChallenge:       p.CodeChallenge,
		CodeChallengeMethod: p.CodeChallengeMethod,
		Nonce:               p.Nonce,
		ExpiresAt:           now.Add(r.Config.CodeTTL),
		CreatedAt:           now,
	}

	err = r.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Grants().CreateGrant(ctx, g); err != nil {
			return err
		}
		return tx.AuthorizationCodes().CreateAuthorizationCode(ctx, ac)
	})
	if err != nil {
		return domain.Grant{}, "", fmt.Errorf("create authorization code grant: %w", err)
	}
	return g, code, nil
}

// CodeGrant is a grant located through its authorization code.
type CodeGrant struct {
	Grant domain.Grant
	Code  domain.AuthorizationCode
}

// GetAuthorizationCodeGrant returns the grant of code if the code belongs to
// clientID, is unused and unexpired, and the grant is live. It does not
// consume the code. Every miss is ErrInvalidGrant.
func (r *GrantRegistry) GetAuthorizationCodeGrant(ctx context.Context, q store.Tx, clientID, code string) (CodeGrant, error) {
	l := slogx.FromContext(ctx)

	code = strings.TrimSpace(code)
	if code == "" {
		return CodeGrant{}, ErrInvalidGrant
	}

	ac, err := q.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, cryptox.FingerprintToken(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Debug("authorization code not found", slog.String("client_id", clientID))
			return CodeGrant{}, ErrInvalidGrant
		}
		return CodeGrant{}, err
	}

	if ac.ClientID != clientID {
		l.Warn("authorization code presented by another client",
			slog.String("client_id", clientID), slog.String("code_client_id", ac.ClientID))
		return CodeGrant{}, ErrInvalidGrant
	}
	if !ac.IsUsable(r.now()) {
		l.Debug("authorization code used or expired", slog.String("code_id", ac.ID))
		return CodeGrant{}, ErrInvalidGrant
	}

	g, err := q.Grants().GetGrantByID(ctx, ac.GrantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CodeGrant{}, ErrInvalidGrant
		}
		return CodeGrant{}, err
	}
	if g.IsRevoked() {
		return CodeGrant{}, ErrInvalidGrant
	}

	return CodeGrant{Grant: g, Code: ac}, nil
}

// ConsumeAuthorizationCode marks the code used. When another redemption got
// there first it returns ErrInvalidGrant.
func (r *GrantRegistry) ConsumeAuthorizationCode(ctx context.Context, tx store.Tx, codeID string) error {
	err := tx.AuthorizationCodes().ConsumeAuthorizationCode(ctx, codeID, r.now())
	if errors.Is(err, store.ErrConflict) {
		slogx.FromContext(ctx).Warn("authorization code redeemed concurrently", slog.String("code_id", codeID))
		return ErrInvalidGrant
	}
	return err
}

// RemoveAllByAuthorizationCode revokes the grant behind code, everything
// exchanged from it, and their tokens. It is the replay response for a
// code that was presented again. Memory mode only logs.
func (r *GrantRegistry) RemoveAllByAuthorizationCode(ctx context.Context, code string) error {
	l := slogx.FromContext(ctx)

	ac, err := r.Store.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, cryptox.FingerprintToken(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if !r.Config.IsPersistent() {
		l.Info("authorization code replay, grant kept in memory mode", slog.String("grant_id", ac.GrantID))
		return nil
	}

	now := r.now()
	var revoked []string
	err = r.Store.WithTx(ctx, func(tx store.Tx) error {
		ids, err := tx.Grants().RevokeGrant(ctx, ac.GrantID, now)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := tx.Tokens().RevokeTokensByGrant(ctx, id, now); err != nil {
				return err
			}
		}
		revoked = ids
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoke grants of replayed code: %w", err)
	}

	l.Warn("authorization code replay, grants revoked",
		slog.String("grant_id", ac.GrantID), slog.Int("revoked", len(revoked)))
	return nil
}

// TokenGrant is a grant located through one of its tokens.
type TokenGrant struct {
	Grant domain.Grant
	Token domain.Token
}

// GetAuthorizationGrantByRefreshToken returns the grant of a live refresh
// token issued to clientID. Every miss is ErrInvalidGrant.
func (r *GrantRegistry) GetAuthorizationGrantByRefreshToken(ctx context.Context, clientID, token string) (TokenGrant, error) {
	tg, err := r.lookupToken(ctx, token)
	if err != nil {
		return TokenGrant{}, err
	}
	if tg == nil || tg.Token.Kind != domain.TokenKindRefresh || tg.Token.ClientID != clientID {
		return TokenGrant{}, ErrInvalidGrant
	}
	return *tg, nil
}

// GetAuthorizationGrantByAccessToken returns the grant of a live access
// token, or nil when the token is unknown, expired or revoked.
func (r *GrantRegistry) GetAuthorizationGrantByAccessToken(ctx context.Context, token string) (*TokenGrant, error) {
	tg, err := r.lookupToken(ctx, token)
	if err != nil || tg == nil {
		return nil, err
	}
	if !tg.Token.IsAccess() {
		return nil, nil
	}
	return tg, nil
}

func (r *GrantRegistry) lookupToken(ctx context.Context, token string) (*TokenGrant, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	t, err := r.Store.Tokens().GetTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Debug("token not found")
			return nil, nil
		}
		return nil, err
	}
	if !t.IsValid(r.now()) {
		return nil, nil
	}

	g, err := r.Store.Grants().GetGrantByID(ctx, t.GrantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if g.IsRevoked() {
		return nil, nil
	}
	return &TokenGrant{Grant: g, Token: t}, nil
}

// CreateClientCredentialsGrant creates a grant for the client acting on its
// own behalf. The baseline is the client's registered scopes.
func (r *GrantRegistry) CreateClientCredentialsGrant(ctx context.Context, tx store.Tx, client domain.Client, requested []string) (domain.Grant, error) {
	scopes := r.CheckScopesPolicy(client.Scopes, client, requested)
	return r.createGrant(ctx, tx, domain.Grant{
		Type:     domain.GrantTypeClientCredentials,
		ClientID: client.ID,
		Scopes:   scopes,
	})
}

// CreateResourceOwnerPasswordCredentialsGrant creates a grant for a user
// authenticated at the token endpoint.
func (r *GrantRegistry) CreateResourceOwnerPasswordCredentialsGrant(ctx context.Context, tx store.Tx, auth Authentication, client domain.Client, requested []string) (domain.Grant, error) {
	scopes := r.CheckScopesPolicy(client.Scopes, client, requested)
	return r.createGrant(ctx, tx, domain.Grant{
		Type:      domain.GrantTypePassword,
		ClientID:  client.ID,
		UserID:    auth.User.ID,
		Scopes:    scopes,
		AMR:       auth.AMR,
		AuthTime:  r.now(),
		SessionID: idx.NewString(),
	})
}

// CreateExchangedGrant derives a child grant from parent for token exchange.
// The child never holds more scope than its parent.
func (r *GrantRegistry) CreateExchangedGrant(ctx context.Context, tx store.Tx, parent domain.Grant, client domain.Client, requested []string) (domain.Grant, error) {
	scopes := r.CheckScopesPolicy(parent.Scopes, client, requested)
	return r.createGrant(ctx, tx, domain.Grant{
		Type:      domain.GrantTypeTokenExchange,
		ClientID:  client.ID,
		UserID:    parent.UserID,
		Scopes:    scopes,
		ACR:       parent.ACR,
		AMR:       parent.AMR,
		AuthTime:  parent.AuthTime,
		SessionID: parent.SessionID,
		ParentID:  parent.ID,
	})
}

func (r *GrantRegistry) createGrant(ctx context.Context, tx store.Tx, g domain.Grant) (domain.Grant, error) {
	g.ID = idx.NewString()
	g.CreatedAt = r.now()
	if err := tx.Grants().CreateGrant(ctx, g); err != nil {
		return domain.Grant{}, fmt.Errorf("create %s grant: %w", g.Type, err)
	}
	return g, nil
}

// CheckScopesPolicy narrows requested to what the baseline and the client
// allow, in request order. An empty request yields the baseline as limited
// by the client. The result is never wider than baseline.
func (r *GrantRegistry) CheckScopesPolicy(baseline []string, client domain.Client, requested []string) []string {
	allowed := intersectScopes(baseline, client.Scopes)
	if len(requested) == 0 {
		return allowed
	}
	return intersectScopes(requested, allowed)
}

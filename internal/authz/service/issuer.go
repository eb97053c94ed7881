package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/idx"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

var errNoSigner = errors.New("no signing key available")

// TokenIssuer mints tokens for a grant and records them.
type TokenIssuer struct {
	Keys   *jwtx.KeyManager
	Config Config
	Now    func() time.Time
}

func (i *TokenIssuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// IssuedToken is a freshly minted token and its stored record.
type IssuedToken struct {
	Value  string
	Record domain.Token
}

// ExpiresIn is the whole seconds left at issuance.
func (t *IssuedToken) ExpiresIn() int64 {
	return domain.SecondsUntil(t.Record.ExpiresAt, t.Record.CreatedAt)
}

func (i *TokenIssuer) signer() (*jwtx.Signer, error) {
	s := i.Keys.Signer()
	if s == nil {
		return nil, errNoSigner
	}
	return s, nil
}

func (i *TokenIssuer) accessAsJWT(client domain.Client) bool {
	return i.Config.AccessTokenAsJWT || client.AccessTokenAsJWT
}

// CreateAccessToken issues an access token. A non-empty jkt binds it to a
// DPoP key and makes it a DPoP token.
func (i *TokenIssuer) CreateAccessToken(ctx context.Context, tx store.Tx, grant domain.Grant, client domain.Client, scopes []string, jkt string) (*IssuedToken, error) {
	return i.createAccess(ctx, tx, grant, client, scopes, jkt, domain.TokenKindAccess, i.Config.AccessTokenTTL)
}

// CreateLongLivedAccessToken issues an access token with the extended
// lifetime, then signs and stores a lineage record of what the grant
// chain has issued so far.
func (i *TokenIssuer) CreateLongLivedAccessToken(ctx context.Context, tx store.Tx, grant domain.Grant, client domain.Client) (*IssuedToken, error) {
	t, err := i.createAccess(ctx, tx, grant, client, grant.Scopes, "", domain.TokenKindLongLivedAccess, i.Config.LongLivedAccessTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := i.createLineage(ctx, tx, grant, client); err != nil {
		return nil, err
	}
	return t, nil
}

func (i *TokenIssuer) createAccess(
	ctx context.Context,
	tx store.Tx,
	grant domain.Grant,
	client domain.Client,
	scopes []string,
	jkt string,
	kind domain.TokenKind,
	ttl time.Duration,
) (*IssuedToken, error) {
	now := i.now()

	tokenType := domain.TokenTypeBearer
	if jkt != "" {
		tokenType = domain.TokenTypeDPoP
	}

	var value string
	if i.accessAsJWT(client) {
		s, err := i.signer()
		if err != nil {
			return nil, err
		}
		claims := jwtx.AccessClaims{
			RegisteredClaims: jwtx.Registered(i.Config.Issuer, grant.Subject(), []string{client.ID}, ttl, now),
			ClientID:         client.ID,
			Scope:            JoinScopes(scopes),
			GrantID:          grant.ID,
		}
		if jkt != "" {
			claims.Cnf = &jwtx.Confirmation{JKT: jkt}
		}
		if value, err = s.Sign(claims); err != nil {
			slogx.FromContext(ctx).Error("failed to sign access token", slog.Any("error", err))
			return nil, err
		}
	} else {
		var err error
		if value, err = cryptox.GenerateToken(cryptox.TokenSize256); err != nil {
			return nil, err
		}
	}

	return i.record(ctx, tx, value, domain.Token{
		GrantID:   grant.ID,
		ClientID:  client.ID,
		Kind:      kind,
		TokenType: tokenType,
		JKT:       jkt,
		Scopes:    scopes,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
}

// CreateRefreshToken issues a refresh token, or returns nil when the grant
// type does not allow refreshing.
func (i *TokenIssuer) CreateRefreshToken(ctx context.Context, tx store.Tx, grant domain.Grant, client domain.Client, scopes []string) (*IssuedToken, error) {
	if !grant.AllowsRefresh() {
		return nil, nil
	}

	value, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	now := i.now()
	return i.record(ctx, tx, value, domain.Token{
		GrantID:   grant.ID,
		ClientID:  client.ID,
		Kind:      domain.TokenKindRefresh,
		TokenType: domain.TokenTypeBearer,
		Scopes:    scopes,
		ExpiresAt: now.Add(i.Config.RefreshTokenTTL),
		CreatedAt: now,
	})
}

// IDTokenInput carries the values an ID token binds to.
type IDTokenInput struct {
	Nonce       string
	Code        string
	AccessToken string
	ACR         string
}

// CreateIDToken issues an ID token, or returns nil unless the grant allows
// one and scopes contain openid.
func (i *TokenIssuer) CreateIDToken(ctx context.Context, tx store.Tx, grant domain.Grant, client domain.Client, scopes []string, in IDTokenInput) (*IssuedToken, error) {
	if !grant.AllowsIDToken() || !hasScope(scopes, domain.ScopeOpenID) {
		return nil, nil
	}

	s, err := i.signer()
	if err != nil {
		return nil, err
	}

	now := i.now()
	acr := in.ACR
	if acr == "" {
		acr = grant.ACR
	}
	nonce := in.Nonce
	if nonce == "" {
		nonce = grant.Nonce
	}

	claims := jwtx.IDTokenClaims{
		RegisteredClaims: jwtx.Registered(i.Config.Issuer, grant.UserID, []string{client.ID}, i.Config.IDTokenTTL, now),
		ACR:              acr,
		AMR:              grant.AMR,
		Nonce:            nonce,
		SID:              grant.SessionID,
		AZP:              client.ID,
		AtHash:           jwtx.HashClaim(s.Alg(), in.AccessToken),
		CHash:            jwtx.HashClaim(s.Alg(), in.Code),
	}
	if !grant.AuthTime.IsZero() {
		claims.AuthTime = jwt.NewNumericDate(grant.AuthTime)
	}

	value, err := s.Sign(claims)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to sign id token", slog.Any("error", err))
		return nil, err
	}

	return i.record(ctx, tx, value, domain.Token{
		GrantID:   grant.ID,
		ClientID:  client.ID,
		Kind:      domain.TokenKindID,
		TokenType: domain.TokenTypeBearer,
		Scopes:    scopes,
		ExpiresAt: now.Add(i.Config.IDTokenTTL),
		CreatedAt: now,
	})
}

func (i *TokenIssuer) record(ctx context.Context, tx store.Tx, value string, t domain.Token) (*IssuedToken, error) {
	t.ID = idx.NewString()
	t.Hash = cryptox.FingerprintToken(value)
	if err := tx.Tokens().CreateToken(ctx, t); err != nil {
		return nil, fmt.Errorf("store %s: %w", t.Kind, err)
	}
	return &IssuedToken{Value: value, Record: t}, nil
}

// createLineage signs the history of the grant chain: the parent grant's
// access and refresh token fingerprints and its last ID token.
func (i *TokenIssuer) createLineage(ctx context.Context, tx store.Tx, grant domain.Grant, client domain.Client) error {
	s, err := i.signer()
	if err != nil {
		return err
	}

	source := grant.ID
	if grant.ParentID != "" {
		source = grant.ParentID
	}
	tokens, err := tx.Tokens().ListTokensByGrant(ctx, source)
	if err != nil {
		return fmt.Errorf("list tokens of grant %s: %w", source, err)
	}

	now := i.now()
	claims := jwtx.LineageClaims{
		RegisteredClaims: jwtx.Registered(i.Config.Issuer, grant.Subject(), []string{i.Config.Issuer}, i.Config.LongLivedAccessTokenTTL, now),
		ClientID:         client.ID,
		Scopes:           grant.Scopes,
		ParentGrantID:    grant.ParentID,
	}
	var lastID time.Time
	for _, t := range tokens {
		switch t.Kind {
		case domain.TokenKindAccess, domain.TokenKindLongLivedAccess:
			claims.AccessTokens = append(claims.AccessTokens, t.Hash)
		case domain.TokenKindRefresh:
			claims.RefreshTokens = append(claims.RefreshTokens, t.Hash)
		case domain.TokenKindID:
			if !t.CreatedAt.Before(lastID) {
				lastID = t.CreatedAt
				claims.IDToken = t.Hash
			}
		}
	}

	signed, err := s.Sign(claims)
	if err != nil {
		return err
	}

	return tx.Lineage().CreateLineage(ctx, domain.GrantLineage{
		ID:            idx.NewString(),
		GrantID:       grant.ID,
		ParentGrantID: grant.ParentID,
		JWT:           signed,
		CreatedAt:     now,
	})
}

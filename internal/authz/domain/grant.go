package domain

import (
	"slices"
	"time"
)

// GrantType is the tag of a Grant and the value of the grant_type parameter.
type GrantType string

const (
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	GrantTypeRefreshToken      GrantType = "refresh_token"
	GrantTypeClientCredentials GrantType = "client_credentials"
	GrantTypePassword          GrantType = "password"
	GrantTypeTokenExchange     GrantType = "urn:ietf:params:oauth:grant-type:token-exchange"
)

// ScopeOpenID marks an OpenID Connect request.
const ScopeOpenID = "openid"

// Grant binds a client, an optional user and an approved scope set. Tokens
// are derived from it. Refreshing continues the same grant, so
// refresh_token is never a Grant type.
type Grant struct {
	ID        string
	Type      GrantType
	ClientID  string
	UserID    string // empty for client_credentials
	Scopes    []string
	ACR       string
	AMR       []string
	AuthTime  time.Time
	Nonce     string
	SessionID string
	ParentID  string // token exchange source grant
	CreatedAt time.Time
	RevokedAt *time.Time
}

// AllowsRefresh reports whether refresh tokens may be issued.
func (g *Grant) AllowsRefresh() bool {
	switch g.Type {
	case GrantTypeAuthorizationCode, GrantTypePassword:
		return true
	default:
		return false
	}
}

// AllowsIDToken reports whether an ID token may be issued. It also requires
// openid in the granted scopes.
func (g *Grant) AllowsIDToken() bool {
	if g.UserID == "" {
		return false
	}
	switch g.Type {
	case GrantTypeAuthorizationCode, GrantTypePassword:
		return slices.Contains(g.Scopes, ScopeOpenID)
	default:
		return false
	}
}

// IsRevoked reports whether the grant was revoked.
func (g *Grant) IsRevoked() bool { return g.RevokedAt != nil }

// Subject is the sub claim for tokens of this grant.
func (g *Grant) Subject() string {
	if g.UserID != "" {
		return g.UserID
	}
	return g.ClientID
}

package domain

import "time"

// TokenKind distinguishes the rows of the token table.
type TokenKind string

const (
	TokenKindAccess          TokenKind = "access_token"
	TokenKindRefresh         TokenKind = "refresh_token"
	TokenKindID              TokenKind = "id_token"
	TokenKindLongLivedAccess TokenKind = "long_lived_access_token"
)

// Token type values of the token_type response field.
const (
	TokenTypeBearer = "Bearer"
	TokenTypeDPoP   = "DPoP"
)

// Token is an issued artifact. The token string itself is never stored.
type Token struct {
	ID        string
	GrantID   string
	ClientID  string
	Kind      TokenKind
	Hash      string
	TokenType string
	JKT       string // DPoP key thumbprint
	Scopes    []string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IsValid reports whether the token is unexpired and not revoked at now.
func (t *Token) IsValid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// IsAccess reports whether the token authorizes resource access.
func (t *Token) IsAccess() bool {
	return t.Kind == TokenKindAccess || t.Kind == TokenKindLongLivedAccess
}

// ExpiresIn returns the whole seconds remaining at now, never negative.
func (t *Token) ExpiresIn(now time.Time) int64 {
	return SecondsUntil(t.ExpiresAt, now)
}

// SecondsUntil truncates the time left before at to whole seconds.
func SecondsUntil(at, now time.Time) int64 {
	d := at.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

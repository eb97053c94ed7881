package domain

import "time"

// AuthorizationCode is an issued code. Only the fingerprint of the code is
// stored. UsedAt is set exactly once.
type AuthorizationCode struct {
	ID                  string
	GrantID             string
	ClientID            string
	CodeHash            string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	Nonce               string
	ExpiresAt           time.Time
	UsedAt              *time.Time
	CreatedAt           time.Time
}

// IsUsable reports whether the code is unused and unexpired at now.
func (c *AuthorizationCode) IsUsable(now time.Time) bool {
	return c.UsedAt == nil && now.Before(c.ExpiresAt)
}

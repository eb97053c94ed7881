package domain

import (
	"slices"
	"strings"
	"time"
)

// Client is a registered OAuth client. The engine only reads clients.
type Client struct {
	ID           string
	Name         string
	SecretHash   string // argon2id, empty for public clients
	SecretSealed []byte // AES-GCM sealed plaintext secret, for HMAC and dir keys
	RedirectURIs []string
	GrantTypes   []GrantType
	Scopes       []string

	// ParLifetime overrides the server PAR lifetime when positive.
	ParLifetime time.Duration
	RequirePAR  bool
	FAPI        bool

	// RequestObjectSigningAlg pins the request object alg when set.
	RequestObjectSigningAlg string
	// JWKS is the client's public key set as JSON.
	JWKS string

	AccessTokenAsJWT bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsPublic reports whether the client has no secret.
func (c *Client) IsPublic() bool { return c.SecretHash == "" }

// AllowsGrantType reports whether gt is registered. An empty list allows all.
func (c *Client) AllowsGrantType(gt GrantType) bool {
	return len(c.GrantTypes) == 0 || slices.Contains(c.GrantTypes, gt)
}

// MatchesRedirectURI checks uri against the registered URIs. A registered
// value ending in '*' matches by prefix, anything else must match exactly.
func (c *Client) MatchesRedirectURI(uri string) bool {
	if uri == "" {
		return false
	}
	for _, registered := range c.RedirectURIs {
		if prefix, ok := strings.CutSuffix(registered, "*"); ok {
			if strings.HasPrefix(uri, prefix) {
				return true
			}
			continue
		}
		if registered == uri {
			return true
		}
	}
	return false
}

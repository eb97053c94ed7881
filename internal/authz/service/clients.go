package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// ClientCredentials is what a request presented to identify its client.
type ClientCredentials struct {
	ID     string
	Secret string

	// Basic is set when the credentials came from the Authorization header.
	Basic bool
}

// Present reports whether any client identification was sent.
func (c ClientCredentials) Present() bool {
	return strings.TrimSpace(c.ID) != ""
}

// ClientRegistry looks up and authenticates registered clients.
type ClientRegistry struct {
	Store  store.Store
	Sealer *cryptox.Sealer
}

// GetClient returns the client, or ErrInvalidClient when it is unknown.
func (r *ClientRegistry) GetClient(ctx context.Context, id string) (domain.Client, error) {
	c, err := r.Store.Clients().GetClientByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Debug("client not found", slog.String("client_id", id))
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, err
	}
	return c, nil
}

// Authenticate resolves the client from client_secret_basic or
// client_secret_post credentials. Public clients authenticate by id alone.
// No credentials at all yield ErrClientMissing.
func (r *ClientRegistry) Authenticate(ctx context.Context, creds ClientCredentials) (domain.Client, error) {
	if !creds.Present() {
		return domain.Client{}, ErrClientMissing
	}

	c, err := r.GetClient(ctx, creds.ID)
	if err != nil {
		return domain.Client{}, err
	}

	l := slogx.FromContext(ctx)
	if c.IsPublic() {
		if creds.Secret != "" {
			l.Info("public client presented a secret", slog.String("client_id", c.ID))
			return domain.Client{}, ErrInvalidClient
		}
		return c, nil
	}

	if creds.Secret == "" || cryptox.VerifyPassword(creds.Secret, c.SecretHash) != nil {
		l.Info("client authentication failed", slog.String("client_id", c.ID))
		return domain.Client{}, ErrInvalidClient
	}
	return c, nil
}

// ValidateRedirectURI reports whether uri is registered for the client.
func (r *ClientRegistry) ValidateRedirectURI(c domain.Client, uri string) bool {
	return c.MatchesRedirectURI(uri)
}

// AllowsGrantType reports whether the client may use gt.
func (r *ClientRegistry) AllowsGrantType(c domain.Client, gt domain.GrantType) bool {
	return c.AllowsGrantType(gt)
}

// SharedSecret returns the plaintext client secret for HMAC request objects
// and symmetric JWE. It is nil when the client has no sealed secret.
func (r *ClientRegistry) SharedSecret(c domain.Client) ([]byte, error) {
	if len(c.SecretSealed) == 0 || r.Sealer == nil {
		return nil, nil
	}
	secret, err := r.Sealer.Open(c.SecretSealed)
	if err != nil {
		return nil, fmt.Errorf("open client secret: %w", err)
	}
	return secret, nil
}

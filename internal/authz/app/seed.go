package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/idx"
)

// SeedFile is the YAML document listing the registered clients and users.
type SeedFile struct {
	Clients []SeedClient `yaml:"clients"`
	Users   []SeedUser   `yaml:"users"`
}

type SeedClient struct {
	ID                      string        `yaml:"id"`
	Name                    string        `yaml:"name"`
	Secret                  string        `yaml:"secret"`
	RedirectURIs            []string      `yaml:"redirect_uris"`
	GrantTypes              []string      `yaml:"grant_types"`
	Scopes                  []string      `yaml:"scopes"`
	ParLifetime             time.Duration `yaml:"par_lifetime"`
	RequirePAR              bool          `yaml:"require_par"`
	FAPI                    bool          `yaml:"fapi"`
	RequestObjectSigningAlg string        `yaml:"request_object_signing_alg"`
	JWKS                    string        `yaml:"jwks"`
	AccessTokenAsJWT        bool          `yaml:"access_token_as_jwt"`
}

type SeedUser struct {
	ID         string `yaml:"id"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	TOTPSecret string `yaml:"totp_secret"`
}

// ParseSeed decodes a seed document. Unknown keys are rejected so typos do
// not silently drop settings.
func ParseSeed(r io.Reader) (SeedFile, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return SeedFile{}, fmt.Errorf("decode seed: %w", err)
	}
	return seed, nil
}

// LoadSeedFile reads and applies the seed at path.
func LoadSeedFile(ctx context.Context, path string, db store.Store, sealer *cryptox.Sealer) (clients, users int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	seed, err := ParseSeed(f)
	if err != nil {
		return 0, 0, err
	}
	if err := ApplySeed(ctx, seed, db, sealer); err != nil {
		return 0, 0, err
	}
	return len(seed.Clients), len(seed.Users), nil
}

// ApplySeed upserts every client and user in one transaction. Secrets and
// passwords are hashed; client secrets are also sealed so HMAC-signed and
// directly encrypted request objects can be verified.
func ApplySeed(ctx context.Context, seed SeedFile, db store.Store, sealer *cryptox.Sealer) error {
	now := time.Now()

	clients := make([]domain.Client, 0, len(seed.Clients))
	for _, sc := range seed.Clients {
		c, err := sc.toDomain(sealer, now)
		if err != nil {
			return fmt.Errorf("client %q: %w", sc.ID, err)
		}
		clients = append(clients, c)
	}

	users := make([]domain.User, 0, len(seed.Users))
	for _, su := range seed.Users {
		u, err := su.toDomain(now)
		if err != nil {
			return fmt.Errorf("user %q: %w", su.Username, err)
		}
		users = append(users, u)
	}

	return db.WithTx(ctx, func(tx store.Tx) error {
		for _, c := range clients {
			if err := tx.Clients().UpsertClient(ctx, c); err != nil {
				return fmt.Errorf("upsert client %q: %w", c.ID, err)
			}
		}
		for _, u := range users {
			if u.ID == "" {
				id, err := existingUserID(ctx, tx, u.Username)
				if err != nil {
					return err
				}
				u.ID = id
			}
			if err := tx.Users().UpsertUser(ctx, u); err != nil {
				return fmt.Errorf("upsert user %q: %w", u.Username, err)
			}
		}
		return nil
	})
}

func (sc SeedClient) toDomain(sealer *cryptox.Sealer, now time.Time) (domain.Client, error) {
	if sc.ID == "" {
		return domain.Client{}, errors.New("id is required")
	}

	c := domain.Client{
		ID:                      sc.ID,
		Name:                    sc.Name,
		RedirectURIs:            sc.RedirectURIs,
		Scopes:                  sc.Scopes,
		ParLifetime:             sc.ParLifetime,
		RequirePAR:              sc.RequirePAR,
		FAPI:                    sc.FAPI,
		RequestObjectSigningAlg: sc.RequestObjectSigningAlg,
		JWKS:                    sc.JWKS,
		AccessTokenAsJWT:        sc.AccessTokenAsJWT,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if c.Name == "" {
		c.Name = c.ID
	}
	for _, gt := range sc.GrantTypes {
		c.GrantTypes = append(c.GrantTypes, domain.GrantType(gt))
	}

	if sc.Secret != "" {
		hash, err := cryptox.HashPassword(sc.Secret)
		if err != nil {
			return domain.Client{}, fmt.Errorf("hash secret: %w", err)
		}
		c.SecretHash = hash

		if sealer != nil {
			sealed, err := sealer.Seal([]byte(sc.Secret))
			if err != nil {
				return domain.Client{}, fmt.Errorf("seal secret: %w", err)
			}
			c.SecretSealed = sealed
		}
	}

	return c, nil
}

// existingUserID keeps the id of a user seeded earlier without one, so
// reapplying a seed does not collide on the username.
func existingUserID(ctx context.Context, tx store.Tx, username string) (string, error) {
	u, err := tx.Users().GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return u.ID, nil
	case errors.Is(err, store.ErrNotFound):
		return idx.NewString(), nil
	default:
		return "", fmt.Errorf("lookup user %q: %w", username, err)
	}
}

func (su SeedUser) toDomain(now time.Time) (domain.User, error) {
	if su.Username == "" || su.Password == "" {
		return domain.User{}, errors.New("username and password are required")
	}

	hash, err := cryptox.HashPassword(su.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	return domain.User{
		ID:           su.ID,
		Username:     su.Username,
		PasswordHash: hash,
		MFASecret:    su.TOTPSecret,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

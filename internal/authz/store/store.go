package store

import (
	"context"
	"errors"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports that a conditional write lost, e.g. an
	// authorization code that was already consumed.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Sub-repositories are reached
// through methods so a Tx exposes exactly the same surface.
type Store interface {
	Clients() Clients
	Users() Users
	Grants() Grants
	AuthorizationCodes() AuthorizationCodes
	Tokens() Tokens
	PARs() PARs
	Lineage() Lineage
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// WithTx runs fn in a transaction, committing when fn returns nil.
	// Inside fn only the tx repositories may be used.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store.
type Tx interface {
	Clients() Clients
	Users() Users
	Grants() Grants
	AuthorizationCodes() AuthorizationCodes
	Tokens() Tokens
	PARs() PARs
	Lineage() Lineage
}

type Clients interface {
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// UpsertClient creates or replaces a client. Used by the seed loader.
	UpsertClient(ctx context.Context, c domain.Client) error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	UpsertUser(ctx context.Context, u domain.User) error
}

type Grants interface {
	CreateGrant(ctx context.Context, g domain.Grant) error
	GetGrantByID(ctx context.Context, id string) (domain.Grant, error)

	// RevokeGrant revokes the grant and every grant exchanged from it.
	// It returns the ids that were revoked.
	RevokeGrant(ctx context.Context, id string, at time.Time) ([]string, error)
}

type AuthorizationCodes interface {
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error
	GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error)

	// ConsumeAuthorizationCode sets used_at only if it is still unset.
	// A code that was already used yields ErrConflict.
	ConsumeAuthorizationCode(ctx context.Context, id string, at time.Time) error

	DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error)
}

type Tokens interface {
	CreateToken(ctx context.Context, t domain.Token) error
	GetTokenByHash(ctx context.Context, hash string) (domain.Token, error)
	ListTokensByGrant(ctx context.Context, grantID string) ([]domain.Token, error)
	// RevokeToken revokes an active token. A token that is unknown or
	// already revoked yields ErrNotFound.
	RevokeToken(ctx context.Context, id string, at time.Time) error
	RevokeTokensByGrant(ctx context.Context, grantID string, at time.Time) (int64, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// PARs stores pushed authorization requests. DeletePAR reporting
// ErrNotFound is the single-use gate: only one caller can delete a record.
type PARs interface {
	CreatePAR(ctx context.Context, p domain.Par) error
	GetPAR(ctx context.Context, id string) (domain.Par, error)
	DeletePAR(ctx context.Context, id string) error
	DeleteExpiredPARs(ctx context.Context, now time.Time) (int64, error)
}

type Lineage interface {
	CreateLineage(ctx context.Context, l domain.GrantLineage) error
	GetLineageByGrant(ctx context.Context, grantID string) (domain.GrantLineage, error)
}

type SigningKeys interface {
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error
	ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error)
}

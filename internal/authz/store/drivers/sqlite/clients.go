package sqlite

import (
	"context"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

type clientsRepo struct {
	db dbtx
}

const clientColumns = `id, name, secret_hash, secret_sealed, redirect_uris, grant_types, scopes,
	par_lifetime_sec, require_par, fapi, request_object_signing_alg, jwks,
	access_token_as_jwt, created_at, updated_at`

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)

	var (
		c                       domain.Client
		redirects, grantTypes   string
		scopes                  string
		parLifetime             int64
		requirePAR, fapi, asJWT bool
		created, updated        int64
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.SecretHash, &c.SecretSealed, &redirects, &grantTypes, &scopes,
		&parLifetime, &requirePAR, &fapi, &c.RequestObjectSigningAlg, &c.JWKS,
		&asJWT, &created, &updated,
	)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	c.RedirectURIs = splitFields(redirects)
	for _, gt := range splitFields(grantTypes) {
		c.GrantTypes = append(c.GrantTypes, domain.GrantType(gt))
	}
	c.Scopes = splitFields(scopes)
	c.ParLifetime = time.Duration(parLifetime) * time.Second
	c.RequirePAR = requirePAR
	c.FAPI = fapi
	c.AccessTokenAsJWT = asJWT
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return c, nil
}

func (r *clientsRepo) UpsertClient(ctx context.Context, c domain.Client) error {
	grantTypes := make([]string, len(c.GrantTypes))
	for i, gt := range c.GrantTypes {
		grantTypes[i] = string(gt)
	}
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			secret_hash = excluded.secret_hash,
			secret_sealed = excluded.secret_sealed,
			redirect_uris = excluded.redirect_uris,
			grant_types = excluded.grant_types,
			scopes = excluded.scopes,
			par_lifetime_sec = excluded.par_lifetime_sec,
			require_par = excluded.require_par,
			fapi = excluded.fapi,
			request_object_signing_alg = excluded.request_object_signing_alg,
			jwks = excluded.jwks,
			access_token_as_jwt = excluded.access_token_as_jwt,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.SecretHash, c.SecretSealed,
		joinFields(c.RedirectURIs), joinFields(grantTypes), joinFields(c.Scopes),
		int64(c.ParLifetime/time.Second), boolInt(c.RequirePAR), boolInt(c.FAPI),
		c.RequestObjectSigningAlg, c.JWKS, boolInt(c.AccessTokenAsJWT),
		toMillis(now), toMillis(now),
	)
	return err
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
)

type authorizationCodesRepo struct {
	db dbtx
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, c domain.AuthorizationCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO authorization_codes (id, grant_id, client_id, code_hash, redirect_uri,
			code_challenge, code_challenge_method, nonce, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.GrantID, c.ClientID, c.CodeHash, c.RedirectURI, c.CodeChallenge,
		c.CodeChallengeMethod, c.Nonce, toMillis(c.ExpiresAt), toMillis(c.CreatedAt),
	)
	return mapInsert(err)
}

func (r *authorizationCodesRepo) GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	var (
		c                domain.AuthorizationCode
		expires, created int64
		used             sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, grant_id, client_id, code_hash, redirect_uri, code_challenge,
			code_challenge_method, nonce, expires_at, used_at, created_at
		FROM authorization_codes WHERE code_hash = ?`, hash,
	).Scan(
		&c.ID, &c.GrantID, &c.ClientID, &c.CodeHash, &c.RedirectURI, &c.CodeChallenge,
		&c.CodeChallengeMethod, &c.Nonce, &expires, &used, &created,
	)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}

	c.ExpiresAt = fromMillis(expires)
	c.UsedAt = fromNullMillis(used)
	c.CreatedAt = fromMillis(created)
	return c, nil
}

func (r *authorizationCodesRepo) ConsumeAuthorizationCode(ctx context.Context, id string, at time.Time) error {
	err := requireOne(r.db.ExecContext(ctx,
		`UPDATE authorization_codes SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		toMillis(at), id,
	))
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrConflict
	}
	return err
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		`DELETE FROM authorization_codes WHERE expires_at < ?`, toMillis(now),
	))
}

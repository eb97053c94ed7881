package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

type tokensRepo struct {
	db dbtx
}

const tokenColumns = `id, grant_id, client_id, kind, token_hash, token_type, jkt, scopes,
	expires_at, revoked_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(s scanner) (domain.Token, error) {
	var (
		t                domain.Token
		kind, scopes     string
		expires, created int64
		revoked          sql.NullInt64
	)
	err := s.Scan(
		&t.ID, &t.GrantID, &t.ClientID, &kind, &t.Hash, &t.TokenType, &t.JKT, &scopes,
		&expires, &revoked, &created,
	)
	if err != nil {
		return domain.Token{}, err
	}
	t.Kind = domain.TokenKind(kind)
	t.Scopes = splitFields(scopes)
	t.ExpiresAt = fromMillis(expires)
	t.RevokedAt = fromNullMillis(revoked)
	t.CreatedAt = fromMillis(created)
	return t, nil
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO tokens (`+tokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.GrantID, t.ClientID, string(t.Kind), t.Hash, t.TokenType, t.JKT,
		joinFields(t.Scopes), toMillis(t.ExpiresAt), toNullMillis(t.RevokedAt),
		toMillis(t.CreatedAt),
	)
	return mapInsert(err)
}

func (r *tokensRepo) GetTokenByHash(ctx context.Context, hash string) (domain.Token, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE token_hash = ?`, hash)
	t, err := scanToken(row)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tokensRepo) ListTokensByGrant(ctx context.Context, grantID string) ([]domain.Token, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE grant_id = ? ORDER BY created_at, id`, grantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tokensRepo) RevokeToken(ctx context.Context, id string, at time.Time) error {
	return requireOne(r.db.ExecContext(ctx,
		`UPDATE tokens SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`, toMillis(at), id,
	))
}

func (r *tokensRepo) RevokeTokensByGrant(ctx context.Context, grantID string, at time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		`UPDATE tokens SET revoked_at = ? WHERE grant_id = ? AND revoked_at IS NULL`,
		toMillis(at), grantID,
	))
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expires_at < ?`, toMillis(now),
	))
}

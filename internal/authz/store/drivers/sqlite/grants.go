package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

type grantsRepo struct {
	db dbtx
}

func (r *grantsRepo) CreateGrant(ctx context.Context, g domain.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grants (id, type, client_id, user_id, scopes, acr, amr, auth_time,
			nonce, session_id, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, string(g.Type), g.ClientID, g.UserID, joinFields(g.Scopes), g.ACR,
		joinFields(g.AMR), toMillis(g.AuthTime), g.Nonce, g.SessionID, g.ParentID,
		toMillis(g.CreatedAt),
	)
	return mapInsert(err)
}

func (r *grantsRepo) GetGrantByID(ctx context.Context, id string) (domain.Grant, error) {
	var (
		g                 domain.Grant
		typ, scopes, amr  string
		authTime, created int64
		revoked           sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, type, client_id, user_id, scopes, acr, amr, auth_time, nonce,
			session_id, parent_id, created_at, revoked_at
		FROM grants WHERE id = ?`, id,
	).Scan(
		&g.ID, &typ, &g.ClientID, &g.UserID, &scopes, &g.ACR, &amr, &authTime,
		&g.Nonce, &g.SessionID, &g.ParentID, &created, &revoked,
	)
	if err != nil {
		return domain.Grant{}, mapNotFound(err)
	}

	g.Type = domain.GrantType(typ)
	g.Scopes = splitFields(scopes)
	g.AMR = splitFields(amr)
	g.AuthTime = fromMillis(authTime)
	g.CreatedAt = fromMillis(created)
	g.RevokedAt = fromNullMillis(revoked)
	return g, nil
}

func (r *grantsRepo) RevokeGrant(ctx context.Context, id string, at time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE family(id) AS (
			SELECT id FROM grants WHERE id = ?
			UNION
			SELECT g.id FROM grants g JOIN family f ON g.parent_id = f.id
		)
		UPDATE grants SET revoked_at = ?
		WHERE id IN (SELECT id FROM family) AND revoked_at IS NULL
		RETURNING id`,
		id, toMillis(at),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var revoked string
		if err := rows.Scan(&revoked); err != nil {
			return nil, err
		}
		ids = append(ids, revoked)
	}
	return ids, rows.Err()
}

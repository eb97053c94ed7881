package sqlite

import (
	"context"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, password_hash, mfa_secret, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *usersRepo) get(ctx context.Context, query string, arg string) (domain.User, error) {
	var (
		u                domain.User
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.MFASecret, &created, &updated,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *usersRepo) UpsertUser(ctx context.Context, u domain.User) error {
	now := toMillis(time.Now().UTC())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			password_hash = excluded.password_hash,
			mfa_secret = excluded.mfa_secret,
			updated_at = excluded.updated_at`,
		u.ID, u.Username, u.PasswordHash, u.MFASecret, now, now,
	)
	return mapInsert(err)
}

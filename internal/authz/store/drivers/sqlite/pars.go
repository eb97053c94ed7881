package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

type parsRepo struct {
	db dbtx
}

func (r *parsRepo) CreatePAR(ctx context.Context, p domain.Par) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("sqlite: encode par attributes: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pars (id, client_id, attributes, expires_at, deletable, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClientID, string(attrs), toMillis(p.ExpiresAt), boolInt(p.Deletable), toMillis(p.CreatedAt),
	)
	return mapInsert(err)
}

func (r *parsRepo) GetPAR(ctx context.Context, id string) (domain.Par, error) {
	var (
		p                domain.Par
		attrs            string
		expires, created int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, client_id, attributes, expires_at, deletable, created_at
		FROM pars WHERE id = ?`, id,
	).Scan(&p.ID, &p.ClientID, &attrs, &expires, &p.Deletable, &created)
	if err != nil {
		return domain.Par{}, mapNotFound(err)
	}

	if err := json.Unmarshal([]byte(attrs), &p.Attributes); err != nil {
		return domain.Par{}, fmt.Errorf("sqlite: decode par %s: %w", id, err)
	}
	p.ExpiresAt = fromMillis(expires)
	p.CreatedAt = fromMillis(created)
	return p, nil
}

func (r *parsRepo) DeletePAR(ctx context.Context, id string) error {
	return requireOne(r.db.ExecContext(ctx, `DELETE FROM pars WHERE id = ?`, id))
}

func (r *parsRepo) DeleteExpiredPARs(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		`DELETE FROM pars WHERE expires_at < ? AND deletable = 1`, toMillis(now),
	))
}

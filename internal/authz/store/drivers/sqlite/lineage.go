package sqlite

import (
	"context"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

type lineageRepo struct {
	db dbtx
}

func (r *lineageRepo) CreateLineage(ctx context.Context, l domain.GrantLineage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grant_lineage (id, grant_id, parent_grant_id, jwt, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.GrantID, l.ParentGrantID, l.JWT, toMillis(l.CreatedAt),
	)
	return mapInsert(err)
}

func (r *lineageRepo) GetLineageByGrant(ctx context.Context, grantID string) (domain.GrantLineage, error) {
	var (
		l       domain.GrantLineage
		created int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, grant_id, parent_grant_id, jwt, created_at
		FROM grant_lineage WHERE grant_id = ?`, grantID,
	).Scan(&l.ID, &l.GrantID, &l.ParentGrantID, &l.JWT, &created)
	if err != nil {
		return domain.GrantLineage{}, mapNotFound(err)
	}
	l.CreatedAt = fromMillis(created)
	return l, nil
}

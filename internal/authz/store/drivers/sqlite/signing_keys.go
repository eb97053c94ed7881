package sqlite

import (
	"context"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

type signingKeysRepo struct {
	db dbtx
}

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, k domain.SigningKey) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO signing_keys (id, kid, algorithm, key_use, private_key_encrypted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		k.ID, k.Kid, k.Algorithm, k.Use, k.PrivateKeyEncrypted, toMillis(k.CreatedAt),
	)
	return mapInsert(err)
}

// ListSigningKeys returns keys oldest first so reloads keep a stable order.
func (r *signingKeysRepo) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kid, algorithm, key_use, private_key_encrypted, created_at
		FROM signing_keys ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.SigningKey
	for rows.Next() {
		var (
			k       domain.SigningKey
			created int64
		)
		if err := rows.Scan(&k.ID, &k.Kid, &k.Algorithm, &k.Use, &k.PrivateKeyEncrypted, &created); err != nil {
			return nil, err
		}
		k.CreatedAt = fromMillis(created)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

package sqlite

import (
	"database/sql"

	"github.com/JanssenProject/jans-sub054/internal/authz/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Clients() store.Clients                       { return &clientsRepo{db: t.tx} }
func (t *txStore) Users() store.Users                           { return &usersRepo{db: t.tx} }
func (t *txStore) Grants() store.Grants                         { return &grantsRepo{db: t.tx} }
func (t *txStore) AuthorizationCodes() store.AuthorizationCodes { return &authorizationCodesRepo{db: t.tx} }
func (t *txStore) Tokens() store.Tokens                         { return &tokensRepo{db: t.tx} }
func (t *txStore) PARs() store.PARs                             { return &parsRepo{db: t.tx} }
func (t *txStore) Lineage() store.Lineage                       { return &lineageRepo{db: t.tx} }

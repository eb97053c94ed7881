package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/internal/authz/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlite.NewStoreFromDB(db), mock
}

func TestErrorMapping_NoRowsIsNotFound(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM pars WHERE id = \?`).
		WithArgs("par:x").
		WillReturnError(sql.ErrNoRows)

	_, err := s.PARs().GetPAR(context.Background(), "par:x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestErrorMapping_UniqueIsAlreadyExists(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO pars`).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: pars.id (1555)"))

	err := s.PARs().CreatePAR(context.Background(), domain.Par{ID: "par:x", ExpiresAt: time.Now()})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestErrorMapping_ZeroRowsOnConsumeIsConflict(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE authorization_codes SET used_at = \? WHERE id = \? AND used_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), "ac1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.AuthorizationCodes().ConsumeAuthorizationCode(context.Background(), "ac1", time.Now())
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestErrorMapping_DriverErrorsPassThrough(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	boom := errors.New("disk I/O error")
	mock.ExpectExec(`DELETE FROM pars WHERE id = \?`).WithArgs("par:x").WillReturnError(boom)

	err := s.PARs().DeletePAR(context.Background(), "par:x")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM pars`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.PARs().DeletePAR(ctx, "par:x")
	}))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM pars`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.PARs().DeletePAR(ctx, "par:x")
	})
	require.ErrorIs(t, err, store.ErrNotFound)
}

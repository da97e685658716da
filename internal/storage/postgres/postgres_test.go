package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/hodei-sh/authz-core/hrn"
	"github.com/hodei-sh/authz-core/policy"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestSchemaStoreSaveAssignsNextVersion(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM authz_schemas`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`INSERT INTO authz_schemas`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	store := NewSchemaStore(db)
	persisted, err := store.Save(context.Background(), "entity User;", "hash-abc")
	require.NoError(t, err)
	require.Equal(t, "3", persisted.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaStoreLoadLatestNoRows(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, content, hash, version, created_at FROM authz_schemas`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "hash", "version", "created_at"}))

	store := NewSchemaStore(db)
	latest, err := store.LoadLatest(context.Background())
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestPolicyStoreGetNotFound(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT hrn, source, revision, description, binding, annotations, tombstoned, tombstoned_at, validated_against_schema_hash FROM authz_policies WHERE hrn = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"hrn", "source", "revision", "description", "binding",
			"annotations", "tombstoned", "tombstoned_at", "validated_against_schema_hash",
		}))

	store := NewPolicyStore(db)
	h, err := hrn.Parse("hrn:hodei:iam::acc1:policy:p1")
	require.NoError(t, err)

	_, err = store.Get(context.Background(), h)
	require.Error(t, err)
	var pe *policy.Error
	require.True(t, errors.As(err, &pe))
	require.Equal(t, policy.KindNotFound, pe.Kind)
}

func TestPolicyStoreUpdateZeroRowsIsConflict(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE authz_policies SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT hrn, source, revision, description, binding, annotations, tombstoned, tombstoned_at, validated_against_schema_hash FROM authz_policies WHERE hrn = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"hrn", "source", "revision", "description", "binding",
			"annotations", "tombstoned", "tombstoned_at", "validated_against_schema_hash",
		}).AddRow("hrn:hodei:iam::acc1:policy:p1", "permit(principal, action, resource);", 5, "", "", []byte("{}"), false, nil, ""))

	store := NewPolicyStore(db)
	h, err := hrn.Parse("hrn:hodei:iam::acc1:policy:p1")
	require.NoError(t, err)

	_, err = store.Update(context.Background(), 1, policy.Policy{HRN: h, Revision: 2})
	require.Error(t, err)
	var pe *policy.Error
	require.True(t, errors.As(err, &pe))
	require.Equal(t, policy.KindConflict, pe.Kind)
}

package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geochat-service/internal/apperr"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mockDB
}

func TestAcceptSharingGrantsBothDirections(t *testing.T) {
	db, mockDB := setupMockDB(t)
	repo := NewUserRepo(db)

	appendGrant := regexp.QuoteMeta(
		`SET location_sharing_with = location_sharing_with || to_jsonb($2::text)`)

	mockDB.ExpectBegin()
	mockDB.ExpectExec(regexp.QuoteMeta(`location_sharing_requests - $2::text`)).
		WithArgs("u2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec(appendGrant).
		WithArgs("u2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec(appendGrant).
		WithArgs("u1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	require.NoError(t, repo.AcceptSharing(context.Background(), "u2", "u1"))
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestAcceptSharingMissingAccepterRollsBack(t *testing.T) {
	db, mockDB := setupMockDB(t)
	repo := NewUserRepo(db)

	mockDB.ExpectBegin()
	mockDB.ExpectExec(regexp.QuoteMeta(`location_sharing_requests - $2::text`)).
		WithArgs("ghost", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectRollback()

	err := repo.AcceptSharing(context.Background(), "ghost", "u1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestAcceptSharingAlreadyMutualIsIdempotent(t *testing.T) {
	db, mockDB := setupMockDB(t)
	repo := NewUserRepo(db)

	appendGrant := regexp.QuoteMeta(
		`SET location_sharing_with = location_sharing_with || to_jsonb($2::text)`)
	existsQuery := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`)

	mockDB.ExpectBegin()
	mockDB.ExpectExec(regexp.QuoteMeta(`location_sharing_requests - $2::text`)).
		WithArgs("u2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec(appendGrant).
		WithArgs("u2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery(existsQuery).
		WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mockDB.ExpectExec(appendGrant).
		WithArgs("u1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery(existsQuery).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mockDB.ExpectCommit()

	require.NoError(t, repo.AcceptSharing(context.Background(), "u2", "u1"))
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestAppendSharingRequestSkipsDuplicates(t *testing.T) {
	db, mockDB := setupMockDB(t)
	repo := NewUserRepo(db)

	mockDB.ExpectExec(regexp.QuoteMeta(
		`location_sharing_requests || to_jsonb($2::text)`)).
		WithArgs("u2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`)).
		WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, repo.AppendSharingRequest(context.Background(), "u2", "u1"))
	require.NoError(t, mockDB.ExpectationsWereMet())
}

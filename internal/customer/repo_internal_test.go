package customer

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, dialect Dialect) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return NewSQLStore(sqlx.NewDb(db, "sqlmock"), dialect), mock
}

func TestSQLStore_FindAllWrapsError(t *testing.T) {
	store, mock := newMockStore(t, SQLite)
	boom := errors.New("disk I/O error")

	mock.ExpectQuery(`SELECT (.+) FROM customer ORDER BY customer_id`).WillReturnError(boom)

	_, err := store.FindAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "find all customers")
}

func TestSQLStore_SaveRollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMockStore(t, SQLite)
	boom := errors.New("constraint failed")

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO customer`).
		WithArgs("John", "Doe", int64(12345)).
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := store.Save(context.Background(), &Customer{Firstname: "John", Lastname: "Doe", SocialSecurityNumber: 12345})
	assert.ErrorIs(t, err, boom)
}

func TestSQLStore_SaveNewReturnsReloadedRow(t *testing.T) {
	store, mock := newMockStore(t, SQLite)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO customer (.+) RETURNING customer_id`).
		WithArgs("John", "Doe", int64(12345)).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id"}).AddRow(int64(3)))
	mock.ExpectQuery(`SELECT (.+) FROM customer WHERE customer_id = \?`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "firstname", "lastname", "socialsecuritynumber"}).
			AddRow(int64(3), "John", "Doe", int64(12345)))
	mock.ExpectCommit()

	saved, err := store.Save(context.Background(), &Customer{Firstname: "John", Lastname: "Doe", SocialSecurityNumber: 12345})
	require.NoError(t, err)
	assert.Equal(t, Customer{ID: 3, Firstname: "John", Lastname: "Doe", SocialSecurityNumber: 12345}, *saved)
}

func TestSQLStore_PostgresUpsertResyncsIdentity(t *testing.T) {
	store, mock := newMockStore(t, Postgres)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO customer (.+) VALUES \(\$1, \$2, \$3, \$4\) ON CONFLICT`).
		WithArgs(int64(9), "Bill", "Gates", int64(123)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SELECT setval`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM customer WHERE customer_id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "firstname", "lastname", "socialsecuritynumber"}).
			AddRow(int64(9), "Bill", "Gates", int64(123)))
	mock.ExpectCommit()

	saved, err := store.Save(context.Background(), &Customer{ID: 9, Firstname: "Bill", Lastname: "Gates", SocialSecurityNumber: 123})
	require.NoError(t, err)
	assert.Equal(t, int64(9), saved.ID)
}

func TestSQLStore_DeleteWrapsError(t *testing.T) {
	store, mock := newMockStore(t, SQLite)
	boom := errors.New("database is locked")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM customer`).WithArgs(int64(1)).WillReturnError(boom)
	mock.ExpectRollback()

	err := store.DeleteByID(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "delete customer")
}

package database

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "academy", Pass: "pw", Host: "db", Port: "3306", Name: "academy"}.DSN()
	assert.Contains(t, dsn, "academy:pw@tcp(db:3306)/academy?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "clientFoundRows=true")

	noPass := Options{User: "academy", Host: "db", Port: "3306", Name: "academy"}.DSN()
	assert.Contains(t, noPass, "academy@tcp(db:3306)/academy?")
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "coaches", "permissions", "permission_assignments", "refresh_tokens"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table + " (")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(t.Context(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS coaches").WillReturnError(errors.New("boom"))

	err = Migrate(t.Context(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate step 2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsernamesCompareCaseSensitively(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	binary := `username\s+VARCHAR\(50\)\s+COLLATE utf8mb4_bin NOT NULL`
	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS users \(.*` + binary).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS coaches \(.*` + binary).WillReturnResult(sqlmock.NewResult(0, 0))
	for range schema[2:] {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(t.Context(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

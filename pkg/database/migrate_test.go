package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migrationFS() fstest.MapFS {
	return fstest.MapFS{
		"0002_reviews.up.sql": {Data: []byte("CREATE TABLE reviews (id UUID PRIMARY KEY)")},
		"0001_users.up.sql":   {Data: []byte("CREATE TABLE users (id UUID PRIMARY KEY)")},
		"0001_users.down.sql": {Data: []byte("DROP TABLE users")},
		"README.md":           {Data: []byte("not a migration")},
		"nested/0003.up.sql":  {Data: []byte("ignored")},
	}
}

func TestUpMigrations_SortedAndFiltered(t *testing.T) {
	names, err := upMigrations(migrationFS())

	require.NoError(t, err)
	assert.Equal(t, []string{"0001_users.up.sql", "0002_reviews.up.sql"}, names)
}

func TestRunMigrations_AppliesPendingAndSkipsApplied(t *testing.T) {
	mock := NewMockPool(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("0001_users.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("0002_reviews.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE reviews").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("0002_reviews.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := RunMigrations(context.Background(), mock, migrationFS(), nil)

	require.NoError(t, err)
}

func TestRunMigrations_SQLErrorRollsBackWithoutRetry(t *testing.T) {
	mock := NewMockPool(t)

	fsys := fstest.MapFS{"0001_bad.up.sql": {Data: []byte("CREATE TABLEX broken")}}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("0001_bad.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLEX").WillReturnError(errors.New(`syntax error at or near "TABLEX"`))
	mock.ExpectRollback()

	err := RunMigrations(context.Background(), mock, fsys, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 0001_bad.up.sql")
}

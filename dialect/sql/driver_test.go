package sql

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbmap/dialect"
)

func TestDriverExecQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.Postgres, db)
	assert.Equal(t, dialect.Postgres, drv.Dialect())
	assert.Same(t, db, drv.DB())

	mock.ExpectExec("CREATE TABLE t").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(context.Background(), "CREATE TABLE t", []any{}, nil))

	mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
	var res sql.Result
	require.NoError(t, drv.Exec(context.Background(), "INSERT INTO t", []any{1}, &res))
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.True(t, rows.Next())
	require.NoError(t, rows.Close())

	mock.ExpectClose()
	require.NoError(t, drv.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverInvalidArguments(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.SQLite, db)
	ctx := context.Background()

	assert.Error(t, drv.Exec(ctx, "SELECT 1", 1, nil))
	assert.Error(t, drv.Exec(ctx, "SELECT 1", []any{}, new(int)))
	assert.Error(t, drv.Query(ctx, "SELECT 1", []any{}, new(int)))
	assert.Error(t, drv.Query(ctx, "SELECT 1", "x", &Rows{}))
}

func TestOpenUnknownDialect(t *testing.T) {
	_, err := Open("oracle", "")
	assert.Error(t, err)
}

package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_CreatesSchema(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectPing()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS members").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, bootstrap(conn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBootstrap_ClosesOnPingFailure(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	err = bootstrap(conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping postgres")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBootstrap_ClosesOnSchemaFailure(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS members").WillReturnError(errors.New("permission denied"))
	mock.ExpectClose()

	err = bootstrap(conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

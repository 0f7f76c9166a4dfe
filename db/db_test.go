package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	conn, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, Migrate(ctx, conn, DriverSQLite))
	return conn
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	require.Error(t, err)
}

func TestMigrateCreatesTables(t *testing.T) {
	conn := openMigrated(t)

	for _, table := range []string{"users_table", "notes_table", "sessions_table"} {
		var count int
		err := conn.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&count)
		require.NoError(t, err, "table %s must exist", table)
		require.Zero(t, count)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Migrate(ctx, conn, DriverSQLite))
	require.NoError(t, Migrate(ctx, conn, DriverSQLite))
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	conn := openMigrated(t)
	ctx := context.Background()

	insert := "INSERT INTO users_table (user_email, user_password, user_username) VALUES ($1, $2, $3)"
	_, err := conn.ExecContext(ctx, insert, "a@x.com", "hash", "alice")
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, insert, "a@x.com", "hash", "alice2")
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
	require.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", err)))
}

func TestIsUniqueViolationPostgres(t *testing.T) {
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("boom")))
	require.False(t, IsUniqueViolation(nil))
}

func TestForeignKeysEnforced(t *testing.T) {
	conn := openMigrated(t)

	_, err := conn.ExecContext(context.Background(),
		"INSERT INTO notes_table (user_id, note_title) VALUES ($1, $2)", 999, "orphan")
	require.Error(t, err, "note without owner must be rejected")
}

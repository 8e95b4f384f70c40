package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	applied, err := NewMigrationRunner(db).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)

	expectedTables := []string{
		"conversations",
		"monthly",
		"edges",
		"frame_meta",
		"schema_migrations",
	}
	for _, table := range expectedTables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	_, err := NewMigrationRunner(db).Run(context.Background())
	require.NoError(t, err)

	expectedIndexes := []string{
		"idx_conversations_messages",
		"idx_monthly_kind_month",
		"idx_monthly_kind_title",
		"idx_edges_kind_messages",
	}
	for _, idx := range expectedIndexes {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
		assert.Equal(t, idx, name)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	applied, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied, "nothing left to apply on the second run")

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "each migration is recorded once after double-run")
}

func TestMigrationRunner_SchemaMigrationsTracking(t *testing.T) {
	db := openTestDB(t)
	_, err := NewMigrationRunner(db).Run(context.Background())
	require.NoError(t, err)

	var version int
	var name string
	err = db.QueryRow("SELECT version, name FROM schema_migrations WHERE version = 1").Scan(&version, &name)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, "frame_schema", name)

	err = db.QueryRow("SELECT version, name FROM schema_migrations WHERE version = 2").Scan(&version, &name)
	require.NoError(t, err)
	assert.Equal(t, "frame_meta", name)
}

func TestMigrationRunner_ChecksRejectBadRows(t *testing.T) {
	db := openTestDB(t)
	_, err := NewMigrationRunner(db).Run(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name string
		stmt string
	}{
		{
			"zero participants",
			`INSERT INTO conversations (title, message_count, participant_count, messages_per_participant, active_days, active_days_log_safe)
			 VALUES ('x', 1, 0, 1, 0, 1.001)`,
		},
		{
			"log-safe below floor",
			`INSERT INTO conversations (title, message_count, participant_count, messages_per_participant, active_days, active_days_log_safe)
			 VALUES ('x', 1, 1, 1, 0, 0.5)`,
		},
		{
			"self loop edge",
			`INSERT INTO edges (kind, name, connection, messages) VALUES ('pairwise', 'A', 'A', 1)`,
		},
		{
			"unknown monthly kind",
			`INSERT INTO monthly (kind, title, month, count) VALUES ('weekly', 'x', '2023-01', 1)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Exec(tt.stmt)
			assert.Error(t, err)
		})
	}
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(context.Background(), "")
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestOpen_FileIsRebuilt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.db")

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO edges (kind, name, connection, messages) VALUES ('pairwise', 'A', 'B', 3)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&count))
	assert.Equal(t, 0, count, "a reopened frame starts empty")
}

func TestOpen_RefusesForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("important user data\n"), 0o644))

	_, err := Open(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFrame)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "important user data\n", string(b), "the file is left untouched")
}

func TestOpen_RefusesOtherSQLiteDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	other, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = other.Exec("CREATE TABLE bookmarks (url TEXT)")
	require.NoError(t, err)
	require.NoError(t, other.Close())

	_, err = Open(context.Background(), path)
	assert.ErrorIs(t, err, ErrNotFrame)

	other, err = sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer other.Close()
	var n int
	require.NoError(t, other.QueryRow("SELECT COUNT(*) FROM bookmarks").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestOpen_RefusesDirectory(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNotFrame)
}

func TestOpen_ReusesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM frame_meta").Scan(&count))
	assert.Equal(t, 0, count)
}

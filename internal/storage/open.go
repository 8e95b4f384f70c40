package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN keeps the frame in memory for the lifetime of the process.
const MemoryDSN = ":memory:"

// ErrNotFrame is returned when the frame path names an existing file that
// is neither empty nor a frame written by an earlier run.
var ErrNotFrame = errors.New("file exists and is not an inboxlens frame")

// Open opens the frame database at path and applies migrations. An empty
// path or MemoryDSN opens a private in-memory database. A file path is
// removed first so the frame is rebuilt on every run, but only when it is
// empty or already a frame.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = MemoryDSN
	}
	if path != MemoryDSN {
		if err := removeStaleFrame(ctx, path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	// Each pooled connection to :memory: would see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := NewMigrationRunner(db).Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate frame: %w", err)
	}
	return db, nil
}

func removeStaleFrame(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat frame %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("frame %s: %w", path, ErrNotFrame)
	}
	if info.Size() > 0 {
		ok, err := isFrame(ctx, path)
		if err != nil || !ok {
			return fmt.Errorf("frame %s: %w", path, ErrNotFrame)
		}
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale frame %s: %w", path, err)
	}
	return nil
}

// isFrame reports whether path is a SQLite database holding a frame_meta
// table. The file is opened read-only.
func isFrame(ctx context.Context, path string) (bool, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return false, err
	}
	defer db.Close()

	var n int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='frame_meta'",
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

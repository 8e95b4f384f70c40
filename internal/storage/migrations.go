package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

var frameMigrations = []migration{
	{version: 1, name: "frame_schema", apply: migrateV001},
	{version: 2, name: "frame_meta", apply: migrateV002},
}

// MigrationRunner creates the frame schema in a SQLite database.
type MigrationRunner struct {
	db         *sql.DB
	migrations []migration
}

// NewMigrationRunner creates a MigrationRunner with every frame migration.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{db: db, migrations: frameMigrations}
}

// Run applies the migrations not yet recorded in schema_migrations, in
// version order, and returns the versions it applied.
func (r *MigrationRunner) Run(ctx context.Context) ([]int, error) {
	if _, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	done, err := r.recorded(ctx)
	if err != nil {
		return nil, err
	}

	applied := []int{}
	for _, m := range r.migrations {
		if done[m.version] {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return applied, fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
		applied = append(applied, m.version)
	}
	return applied, nil
}

func (r *MigrationRunner) recorded(ctx context.Context) (map[int]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

func (r *MigrationRunner) apply(ctx context.Context, m migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.apply(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.version, m.name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

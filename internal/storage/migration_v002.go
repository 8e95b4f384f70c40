package storage

import "database/sql"

// migrateV002 adds the single-row provenance table a rendering tool reads to
// tell which run and archive produced a frame file.
func migrateV002(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS frame_meta (
		id           INTEGER PRIMARY KEY CHECK (id = 1),
		run_id       TEXT NOT NULL,
		self         TEXT NOT NULL,
		archive_path TEXT NOT NULL,
		timezone     TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`)
	return err
}

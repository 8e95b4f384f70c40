package storage

import "database/sql"

// migrateV001 creates the derived-table schema. The CHECK constraints restate
// the pipeline's invariants so a bad row fails loudly at insert time.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			title                    TEXT PRIMARY KEY,
			message_count            INTEGER NOT NULL CHECK (message_count >= 0),
			participant_count        INTEGER NOT NULL CHECK (participant_count >= 1),
			messages_per_participant REAL NOT NULL,
			active_days              REAL NOT NULL CHECK (active_days >= 0),
			active_days_log_safe     REAL NOT NULL CHECK (active_days_log_safe >= 1.001),
			self_messages            INTEGER NOT NULL DEFAULT 0,
			first_message            TEXT,
			last_message             TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS monthly (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			kind  TEXT NOT NULL CHECK (kind IN ('conversation', 'self', 'timeline')),
			title TEXT NOT NULL,
			month TEXT NOT NULL,
			count INTEGER NOT NULL CHECK (count >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS edges (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			kind       TEXT NOT NULL CHECK (kind IN ('pairwise', 'group')),
			name       TEXT NOT NULL,
			connection TEXT NOT NULL,
			messages   INTEGER NOT NULL CHECK (messages >= 0),
			CHECK (name <> connection),
			UNIQUE (kind, name, connection)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_conversations_messages ON conversations(message_count)`,
		`CREATE INDEX IF NOT EXISTS idx_monthly_kind_month    ON monthly(kind, month)`,
		`CREATE INDEX IF NOT EXISTS idx_monthly_kind_title    ON monthly(kind, title)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_kind_messages   ON edges(kind, messages)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

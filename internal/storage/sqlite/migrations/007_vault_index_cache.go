package migrations

import "database/sql"

func migrateVaultIndexCache(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vault_index_cache (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			note_count INTEGER NOT NULL,
			payload BLOB NOT NULL,
			cached_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`)
	return err
}

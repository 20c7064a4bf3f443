package migrations

import "database/sql"

// migrateInitialSchema creates the config and metadata tables that every
// other migration may depend on.
func migrateInitialSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS fts_metadata (
			component TEXT PRIMARY KEY,
			built_at TEXT NOT NULL
		);
	`)
	return err
}

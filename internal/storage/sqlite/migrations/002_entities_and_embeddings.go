package migrations

import "database/sql"

// migrateEntitiesAndEmbeddings creates the canonical entities table plus
// notes_fts/entities_fts search tables. modernc.org/sqlite
// supports FTS5 virtual tables the same as mattn/go-sqlite3.
func migrateEntitiesAndEmbeddings(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entities (
			name_lower TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			category TEXT NOT NULL,
			aliases TEXT NOT NULL DEFAULT '[]',
			hub_score INTEGER NOT NULL DEFAULT 0,
			content_hash TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_entities_path ON entities(path);

		CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
			name_lower UNINDEXED, name, aliases, tokenize = 'porter'
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			path UNINDEXED, body, tokenize = 'porter'
		);

		CREATE TABLE IF NOT EXISTS entity_embeddings (
			name_lower TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			vector BLOB NOT NULL,
			dims INTEGER NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS note_embeddings (
			path TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			vector BLOB NOT NULL,
			dims INTEGER NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`)
	return err
}

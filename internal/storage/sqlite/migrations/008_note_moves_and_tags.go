package migrations

import "database/sql"

func migrateNoteMovesAndTags(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS note_moves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			old_path TEXT NOT NULL,
			new_path TEXT NOT NULL,
			moved_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS note_tags (
			note_path TEXT NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY (note_path, tag)
		);
	`)
	return err
}

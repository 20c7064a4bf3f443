package migrations

import "database/sql"

func migrateNoteLinksAndHistory(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS note_links (
			note_path TEXT NOT NULL,
			entity_name_lower TEXT NOT NULL,
			weight REAL NOT NULL DEFAULT 1.0,
			PRIMARY KEY (note_path, entity_name_lower)
		);

		CREATE TABLE IF NOT EXISTS note_link_history (
			note_path TEXT NOT NULL,
			entity_name_lower TEXT NOT NULL,
			survived_edits INTEGER NOT NULL DEFAULT 0,
			manually_added INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (note_path, entity_name_lower)
		);
	`)
	return err
}

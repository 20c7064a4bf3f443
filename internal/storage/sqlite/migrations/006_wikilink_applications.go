package migrations

import "database/sql"

func migrateWikilinkApplications(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS wikilink_applications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_path TEXT NOT NULL,
			entity_name_lower TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'applied',
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_applications_note ON wikilink_applications(note_path);
		CREATE INDEX IF NOT EXISTS idx_applications_entity ON wikilink_applications(entity_name_lower);
	`)
	return err
}

package migrations

import "database/sql"

func migrateFeedbackAndSuppressions(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS wikilink_feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_name_lower TEXT NOT NULL,
			context TEXT NOT NULL,
			note_path TEXT NOT NULL,
			correct INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_entity ON wikilink_feedback(entity_name_lower);
		CREATE INDEX IF NOT EXISTS idx_feedback_folder ON wikilink_feedback(note_path);

		CREATE TABLE IF NOT EXISTS wikilink_suppressions (
			entity_name_lower TEXT NOT NULL,
			folder TEXT NOT NULL DEFAULT '',
			suppressed_at TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (entity_name_lower, folder)
		);
	`)
	return err
}

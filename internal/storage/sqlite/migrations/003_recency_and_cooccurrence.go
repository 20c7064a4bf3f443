package migrations

import "database/sql"

func migrateRecencyAndCooccurrence(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS recency (
			entity_name_lower TEXT PRIMARY KEY,
			last_mentioned TEXT NOT NULL,
			mention_count INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS cooccurrence (
			entity_a TEXT NOT NULL,
			entity_b TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (entity_a, entity_b)
		);
		CREATE INDEX IF NOT EXISTS idx_cooccurrence_b ON cooccurrence(entity_b);
	`)
	return err
}

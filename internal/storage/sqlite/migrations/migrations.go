// Package migrations holds flywheel's ordered, idempotent schema
// migrations, one file per change (NNN_description.go, each defining an
// unexported migrate<Name>(db *sql.DB) error function).
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// migration pairs a monotonic version with the function that applies it.
type migration struct {
	version int
	name    string
	apply   func(db *sql.DB) error
}

// registry lists every migration in order. Each must be safe to run
// against a database that has already applied it (idempotent).
var registry = []migration{
	{1, "initial_schema", migrateInitialSchema},
	{2, "entities_and_embeddings", migrateEntitiesAndEmbeddings},
	{3, "recency_and_cooccurrence", migrateRecencyAndCooccurrence},
	{4, "note_links_and_history", migrateNoteLinksAndHistory},
	{5, "feedback_and_suppressions", migrateFeedbackAndSuppressions},
	{6, "wikilink_applications", migrateWikilinkApplications},
	{7, "vault_index_cache", migrateVaultIndexCache},
	{8, "note_moves_and_tags", migrateNoteMovesAndTags},
	{9, "index_events", migrateIndexEvents},
}

// Run applies every migration not yet recorded in schema_version, in
// order, then records it there. A migration and its schema_version row are
// not wrapped in a transaction; each migration is idempotent, so one that
// ran without being recorded is simply applied again on the next Run.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema_version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, m := range registry {
		if applied[m.version] {
			continue
		}
		if err := m.apply(db); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

// columnExists checks pragma_table_info for a column, guarding an
// ALTER TABLE so a migration stays safe to run twice.
func columnExists(db *sql.DB, table, column string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0 FROM pragma_table_info(?) WHERE name = ?
	`, table, column).Scan(&exists)
	return exists, err
}

// tableExists checks sqlite_master for a table name.
func tableExists(db *sql.DB, table string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name = ?
	`, table).Scan(&exists)
	return exists, err
}

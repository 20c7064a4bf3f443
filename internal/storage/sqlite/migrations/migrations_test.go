package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, Run(ctx, db))
	require.NoError(t, Run(ctx, db)) // second run must be a no-op, not an error

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count))
	require.Equal(t, len(registry), count)
}

func TestRunCreatesAllDerivedTables(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Run(context.Background(), db))

	tables := []string{
		"entities", "entity_embeddings", "note_embeddings",
		"recency", "cooccurrence", "note_links", "note_link_history",
		"wikilink_feedback", "wikilink_suppressions", "wikilink_applications",
		"vault_index_cache", "note_moves", "note_tags", "index_events",
		"config", "metadata", "fts_metadata",
	}
	for _, tbl := range tables {
		exists, err := tableExists(db, tbl)
		require.NoError(t, err)
		require.Truef(t, exists, "expected table %q to exist", tbl)
	}
}

package sqlite

import (
	"context"
	"database/sql"
)

// SyncEntityFTS upserts an entity's searchable text into entities_fts.
// fts5 has no native UPSERT, so we delete-then-insert, matching the
// atomic-swap shape used elsewhere in this package.
func (s *Store) SyncEntityFTS(ctx context.Context, nameLower, name, aliases string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entities_fts WHERE name_lower = ?`, nameLower); err != nil {
			return wrapDBError("clear entity fts", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entities_fts (name_lower, name, aliases) VALUES (?, ?, ?)
		`, nameLower, name, aliases)
		return wrapDBError("sync entity fts", err)
	})
}

// SyncNoteFTS upserts a note body into notes_fts.
func (s *Store) SyncNoteFTS(ctx context.Context, path, body string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE path = ?`, path); err != nil {
			return wrapDBError("clear note fts", err)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO notes_fts (path, body) VALUES (?, ?)`, path, body)
		return wrapDBError("sync note fts", err)
	})
}

// SearchEntitiesFTS runs a full-text query over entity names and aliases
// and returns matching name_lower values ranked by fts5's bm25.
func (s *Store) SearchEntitiesFTS(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name_lower FROM entities_fts WHERE entities_fts MATCH ? ORDER BY rank LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, wrapDBError("search entities fts", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapDBError("scan entity fts result", err)
		}
		out = append(out, name)
	}
	return out, wrapDBError("iterate entity fts results", rows.Err())
}

// SearchNotesFTS runs a full-text query over note bodies.
func (s *Store) SearchNotesFTS(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path FROM notes_fts WHERE notes_fts MATCH ? ORDER BY rank LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, wrapDBError("search notes fts", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, wrapDBError("scan note fts result", err)
		}
		out = append(out, path)
	}
	return out, wrapDBError("iterate note fts results", rows.Err())
}

// DeleteNoteFTS removes a note's FTS row (ownership cleanup on delete).
func (s *Store) DeleteNoteFTS(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notes_fts WHERE path = ?`, path)
	return wrapDBError("delete note fts", err)
}

// FTSStale reports whether the named derived-table component is older
// than maxAgeSeconds, "is this derived table older than
// N?".
func (s *Store) FTSStale(ctx context.Context, component string, maxAgeSeconds int64) (bool, error) {
	var builtAt string
	err := s.db.QueryRowContext(ctx, `SELECT built_at FROM fts_metadata WHERE component = ?`, component).Scan(&builtAt)
	if IsNotFound(wrapDBError("fts staleness", err)) {
		return true, nil
	}
	if err != nil {
		return false, wrapDBError("fts staleness", err)
	}
	var ageSeconds float64
	row := s.db.QueryRowContext(ctx, `SELECT (julianday('now') - julianday(?)) * 86400`, builtAt)
	if err := row.Scan(&ageSeconds); err != nil {
		return false, wrapDBError("fts staleness age", err)
	}
	return int64(ageSeconds) > maxAgeSeconds, nil
}

// MarkFTSBuilt records that component was just rebuilt.
func (s *Store) MarkFTSBuilt(ctx context.Context, component string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fts_metadata (component, built_at) VALUES (?, datetime('now'))
		ON CONFLICT (component) DO UPDATE SET built_at = datetime('now')
	`, component)
	return wrapDBError("mark fts built", err)
}

package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// SaveIndexCache persists a serialized VaultIndex snapshot, overwriting
// any previous cache in one transaction (delete-then-insert applied to a
// single-row table).
func (s *Store) SaveIndexCache(ctx context.Context, noteCount int, payload []byte) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vault_index_cache`); err != nil {
			return wrapDBError("clear index cache", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vault_index_cache (id, note_count, payload, cached_at)
			VALUES (1, ?, ?, datetime('now'))
		`, noteCount, payload)
		return wrapDBError("save index cache", err)
	})
}

// LoadIndexCache returns the cached payload, note count, and the time the
// cache was saved. ok
// is false if no cache has ever been saved.
func (s *Store) LoadIndexCache(ctx context.Context) (payload []byte, noteCount int, cachedAt time.Time, ok bool, err error) {
	var cachedAtStr string
	row := s.db.QueryRowContext(ctx, `SELECT note_count, payload, cached_at FROM vault_index_cache WHERE id = 1`)
	if scanErr := row.Scan(&noteCount, &payload, &cachedAtStr); scanErr != nil {
		if IsNotFound(wrapDBError("load index cache", scanErr)) {
			return nil, 0, time.Time{}, false, nil
		}
		return nil, 0, time.Time{}, false, wrapDBError("load index cache", scanErr)
	}
	cachedAt, parseErr := time.Parse("2006-01-02 15:04:05", cachedAtStr)
	if parseErr != nil {
		cachedAt, parseErr = time.Parse(time.RFC3339, cachedAtStr)
		if parseErr != nil {
			return payload, noteCount, time.Now(), true, nil
		}
	}
	return payload, noteCount, cachedAt, true, nil
}

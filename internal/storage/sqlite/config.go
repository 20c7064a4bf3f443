package sqlite

import "context"

// SetConfig sets a configuration value, upserting on key.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return wrapDBError("set config", err)
}

// GetConfig returns a configuration value, or "" if unset.
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if IsNotFound(wrapDBError("get config", err)) {
		return "", nil
	}
	return value, wrapDBError("get config", err)
}

// SetMetadata records a counter or migration-state value.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key, value)
	return wrapDBError("set metadata", err)
}

// GetMetadata returns a metadata value, or "" if unset.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if IsNotFound(wrapDBError("get metadata", err)) {
		return "", nil
	}
	return value, wrapDBError("get metadata", err)
}

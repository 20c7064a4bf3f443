package sqlite

import (
	"context"
	"time"
)

// BumpRecency records that entityNameLower was mentioned at ts, upserting
// the mention count and timestamp in one statement.
func (s *Store) BumpRecency(ctx context.Context, entityNameLower string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recency (entity_name_lower, last_mentioned, mention_count)
		VALUES (?, ?, 1)
		ON CONFLICT (entity_name_lower) DO UPDATE SET
			last_mentioned = excluded.last_mentioned,
			mention_count = mention_count + 1
	`, entityNameLower, ts.UTC().Format(time.RFC3339))
	return wrapDBError("bump recency", err)
}

// GetRecency returns the last-mentioned time and count for an entity. A
// zero time with no error means the entity has never been mentioned.
func (s *Store) GetRecency(ctx context.Context, entityNameLower string) (time.Time, int, error) {
	var lastStr string
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT last_mentioned, mention_count FROM recency WHERE entity_name_lower = ?
	`, entityNameLower).Scan(&lastStr, &count)
	if IsNotFound(wrapDBError("get recency", err)) {
		return time.Time{}, 0, nil
	}
	if err != nil {
		return time.Time{}, 0, wrapDBError("get recency", err)
	}
	t, parseErr := time.Parse(time.RFC3339, lastStr)
	if parseErr != nil {
		return time.Time{}, 0, parseErr
	}
	return t, count, nil
}

// AllRecency returns the full recency table keyed by entity name_lower,
// for bulk loading into the scoring engine's in-memory map.
func (s *Store) AllRecency(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity_name_lower, last_mentioned FROM recency`)
	if err != nil {
		return nil, wrapDBError("list recency", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]time.Time)
	for rows.Next() {
		var name, lastStr string
		if err := rows.Scan(&name, &lastStr); err != nil {
			return nil, wrapDBError("scan recency", err)
		}
		t, err := time.Parse(time.RFC3339, lastStr)
		if err != nil {
			continue
		}
		out[name] = t
	}
	return out, wrapDBError("iterate recency", rows.Err())
}

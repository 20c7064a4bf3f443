package sqlite

import "context"

// BumpCooccurrence increments the pair count for (a, b), storing the pair
// in a canonical order (a < b) so each unordered pair has one row.
func (s *Store) BumpCooccurrence(ctx context.Context, a, b string, delta int) error {
	if a == b {
		return nil
	}
	if a > b {
		a, b = b, a
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cooccurrence (entity_a, entity_b, count) VALUES (?, ?, ?)
		ON CONFLICT (entity_a, entity_b) DO UPDATE SET count = count + excluded.count
	`, a, b, delta)
	return wrapDBError("bump cooccurrence", err)
}

// CooccurrenceCount returns how many notes mention both a and b together.
func (s *Store) CooccurrenceCount(ctx context.Context, a, b string) (int, error) {
	if a > b {
		a, b = b, a
	}
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM cooccurrence WHERE entity_a = ? AND entity_b = ?
	`, a, b).Scan(&count)
	if IsNotFound(wrapDBError("cooccurrence count", err)) {
		return 0, nil
	}
	return count, wrapDBError("cooccurrence count", err)
}

// CooccurringWith returns every entity that co-occurs with nameLower and
// its pair count, for Layer 2 of the scoring engine.
func (s *Store) CooccurringWith(ctx context.Context, nameLower string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_b, count FROM cooccurrence WHERE entity_a = ?
		UNION ALL
		SELECT entity_a, count FROM cooccurrence WHERE entity_b = ?
	`, nameLower, nameLower)
	if err != nil {
		return nil, wrapDBError("list cooccurring", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int)
	for rows.Next() {
		var other string
		var count int
		if err := rows.Scan(&other, &count); err != nil {
			return nil, wrapDBError("scan cooccurring", err)
		}
		out[other] += count
	}
	return out, wrapDBError("iterate cooccurring", rows.Err())
}

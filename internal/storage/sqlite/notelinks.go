package sqlite

import (
	"context"
	"database/sql"
)

// NoteLinkSet is the current resolved outgoing entity set for one note.
type NoteLinkSet map[string]float64 // entity_name_lower -> weight

// GetNoteLinks returns the stored link set for a note, or an empty set if
// this is the first run.
func (s *Store) GetNoteLinks(ctx context.Context, notePath string) (NoteLinkSet, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_name_lower, weight FROM note_links WHERE note_path = ?
	`, notePath)
	if err != nil {
		return nil, false, wrapDBError("get note links", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(NoteLinkSet)
	found := false
	for rows.Next() {
		found = true
		var name string
		var weight float64
		if err := rows.Scan(&name, &weight); err != nil {
			return nil, false, wrapDBError("scan note link", err)
		}
		out[name] = weight
	}
	return out, found, wrapDBError("iterate note links", rows.Err())
}

// AverageEdgeWeight returns the mean weight across every note currently
// linking to entityNameLower, or 0 if it has no incoming links yet.
func (s *Store) AverageEdgeWeight(ctx context.Context, entityNameLower string) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT AVG(weight) FROM note_links WHERE entity_name_lower = ?
	`, entityNameLower).Scan(&avg)
	if err != nil {
		return 0, wrapDBError("average edge weight", err)
	}
	return avg.Float64, nil
}

// ReplaceNoteLinks performs the atomic-swap contract for
// one note's link set: DELETE + bulk INSERT in a single transaction, so
// readers never observe an empty table mid-update.
func (s *Store) ReplaceNoteLinks(ctx context.Context, notePath string, set NoteLinkSet) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM note_links WHERE note_path = ?`, notePath); err != nil {
			return wrapDBError("delete note links", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO note_links (note_path, entity_name_lower, weight) VALUES (?, ?, ?)
		`)
		if err != nil {
			return wrapDBError("prepare note links insert", err)
		}
		defer func() { _ = stmt.Close() }()

		for name, weight := range set {
			if _, err := stmt.ExecContext(ctx, notePath, name, weight); err != nil {
				return wrapDBError("insert note link", err)
			}
		}
		return nil
	})
}

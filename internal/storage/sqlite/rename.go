package sqlite

import "context"

// ApplyRename rewrites every row keyed by oldPath across note_links,
// note_link_history, note_tags, and wikilink_applications to newPath, and
// appends a note_moves record.
func (s *Store) ApplyRename(ctx context.Context, oldPath, newPath string) error {
	stmts := []string{
		`UPDATE note_links SET note_path = ? WHERE note_path = ?`,
		`UPDATE note_link_history SET note_path = ? WHERE note_path = ?`,
		`UPDATE note_tags SET note_path = ? WHERE note_path = ?`,
		`UPDATE wikilink_applications SET note_path = ? WHERE note_path = ?`,
		`UPDATE entities SET path = ? WHERE path = ?`,
		`UPDATE note_embeddings SET path = ? WHERE path = ?`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt, newPath, oldPath); err != nil {
			return wrapDBError("apply rename", err)
		}
	}
	return s.RecordMove(ctx, oldPath, newPath)
}

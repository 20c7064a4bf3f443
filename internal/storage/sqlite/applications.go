package sqlite

import "context"

// ApplicationStatus is the lifecycle of one engine-applied link.
type ApplicationStatus string

const (
	ApplicationApplied ApplicationStatus = "applied"
	ApplicationRemoved ApplicationStatus = "removed"
)

// RecordApplication logs one engine-applied wikilink insertion.
func (s *Store) RecordApplication(ctx context.Context, notePath, entityNameLower string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wikilink_applications (note_path, entity_name_lower, status)
		VALUES (?, ?, ?)
	`, notePath, entityNameLower, string(ApplicationApplied))
	return wrapDBError("record application", err)
}

// MarkApplicationRemoved flips the most recent application row for
// (notePath, entityNameLower) to "removed", used when a forward-link diff
// finds the link gone.
func (s *Store) MarkApplicationRemoved(ctx context.Context, notePath, entityNameLower string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE wikilink_applications SET status = ?
		WHERE id = (
			SELECT id FROM wikilink_applications
			WHERE note_path = ? AND entity_name_lower = ? AND status = ?
			ORDER BY id DESC LIMIT 1
		)
	`, string(ApplicationRemoved), notePath, entityNameLower, string(ApplicationApplied))
	return wrapDBError("mark application removed", err)
}

// WasEngineApplied reports whether the current (non-removed) link for
// (notePath, entityNameLower) was originally inserted by the rewriter.
func (s *Store) WasEngineApplied(ctx context.Context, notePath, entityNameLower string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM wikilink_applications
		WHERE note_path = ? AND entity_name_lower = ? AND status = ?
	`, notePath, entityNameLower, string(ApplicationApplied)).Scan(&count)
	return count > 0, wrapDBError("check engine applied", err)
}

// RenameApplications rewrites every wikilink_applications row for oldPath
// to newPath.
func (s *Store) RenameApplications(ctx context.Context, oldPath, newPath string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE wikilink_applications SET note_path = ? WHERE note_path = ?`, newPath, oldPath)
	return wrapDBError("rename applications", err)
}

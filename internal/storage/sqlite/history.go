package sqlite

import "context"

// BumpSurvivedEdits increments the survival counter for (notePath, entity)
// in note_link_history — it "survives" an edit when it is still present
// after a batch that touched the note.
func (s *Store) BumpSurvivedEdits(ctx context.Context, notePath, entityNameLower string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO note_link_history (note_path, entity_name_lower, survived_edits)
		VALUES (?, ?, 1)
		ON CONFLICT (note_path, entity_name_lower) DO UPDATE SET survived_edits = survived_edits + 1
	`, notePath, entityNameLower)
	return wrapDBError("bump survived edits", err)
}

// MarkManuallyAdded records that a link was added outside the rewriter.
func (s *Store) MarkManuallyAdded(ctx context.Context, notePath, entityNameLower string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO note_link_history (note_path, entity_name_lower, manually_added)
		VALUES (?, ?, 1)
		ON CONFLICT (note_path, entity_name_lower) DO UPDATE SET manually_added = 1
	`, notePath, entityNameLower)
	return wrapDBError("mark manually added", err)
}

// LinkHistory is the per-(note, entity) survival record.
type LinkHistory struct {
	SurvivedEdits int
	ManuallyAdded bool
}

// GetLinkHistory returns the history row for (notePath, entityNameLower),
// or a zero value if none exists yet.
func (s *Store) GetLinkHistory(ctx context.Context, notePath, entityNameLower string) (LinkHistory, error) {
	var h LinkHistory
	var manuallyAdded int
	err := s.db.QueryRowContext(ctx, `
		SELECT survived_edits, manually_added FROM note_link_history
		WHERE note_path = ? AND entity_name_lower = ?
	`, notePath, entityNameLower).Scan(&h.SurvivedEdits, &manuallyAdded)
	if IsNotFound(wrapDBError("get link history", err)) {
		return LinkHistory{}, nil
	}
	h.ManuallyAdded = manuallyAdded != 0
	return h, wrapDBError("get link history", err)
}

// EditWeightSignal returns the edits_survived component of Layer 10 (edge
// weight): 0.5 per survived edit, capped at 2.0 (Open Question #2 — see
// DESIGN.md).
func (h LinkHistory) EditWeightSignal() float64 {
	v := 0.5 * float64(h.SurvivedEdits)
	if v > 2.0 {
		v = 2.0
	}
	return v
}

// SourceAccessSignal is the source_access component of Layer 10: a flat
// 1.0 if the link was ever manually added (a strong trust signal).
func (h LinkHistory) SourceAccessSignal() float64 {
	if h.ManuallyAdded {
		return 1.0
	}
	return 0.0
}

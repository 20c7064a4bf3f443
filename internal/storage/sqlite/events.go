package sqlite

import (
	"context"
	"database/sql"
)

// StepOutcome is the result of one pipeline step, recorded into
// index_events.
type StepOutcome string

const (
	StepOK    StepOutcome = "ok"
	StepSkip  StepOutcome = "skip"
	StepError StepOutcome = "error"
)

// RecordStep appends one {step_name, duration_ms, outcome} row for batchID.
func (s *Store) RecordStep(ctx context.Context, batchID, stepName string, durationMS int64, outcome StepOutcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_events (batch_id, step_name, duration_ms, outcome)
		VALUES (?, ?, ?, ?)
	`, batchID, stepName, durationMS, string(outcome))
	return wrapDBError("record step", err)
}

// StepRecord is one row read back from index_events.
type StepRecord struct {
	BatchID    string
	StepName   string
	DurationMS int64
	Outcome    StepOutcome
}

// RecentSteps returns the most recent N step records across all batches,
// newest first, for the feedback dashboard query.
func (s *Store) RecentSteps(ctx context.Context, limit int) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, step_name, duration_ms, outcome FROM index_events
		ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, wrapDBError("recent steps", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StepRecord
	for rows.Next() {
		var r StepRecord
		var outcome string
		if err := rows.Scan(&r.BatchID, &r.StepName, &r.DurationMS, &outcome); err != nil {
			return nil, wrapDBError("scan step", err)
		}
		r.Outcome = StepOutcome(outcome)
		out = append(out, r)
	}
	return out, wrapDBError("iterate steps", rows.Err())
}

// RecordMove appends a rename-history row.
func (s *Store) RecordMove(ctx context.Context, oldPath, newPath string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO note_moves (old_path, new_path) VALUES (?, ?)`, oldPath, newPath)
	return wrapDBError("record move", err)
}

// ReplaceNoteTags performs the atomic-swap contract for one note's tag
// set.
func (s *Store) ReplaceNoteTags(ctx context.Context, notePath string, tags []string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_path = ?`, notePath); err != nil {
			return wrapDBError("clear note tags", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO note_tags (note_path, tag) VALUES (?, ?)`)
		if err != nil {
			return wrapDBError("prepare note tags insert", err)
		}
		defer func() { _ = stmt.Close() }()
		for _, tag := range tags {
			if _, err := stmt.ExecContext(ctx, notePath, tag); err != nil {
				return wrapDBError("insert note tag", err)
			}
		}
		return nil
	})
}

// GetNoteTags returns the stored tag set for notePath. Pipeline step 15
// replaces a note's tags without reading them back through this method.
func (s *Store) GetNoteTags(ctx context.Context, notePath string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag FROM note_tags WHERE note_path = ?`, notePath)
	if err != nil {
		return nil, wrapDBError("get note tags", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]struct{})
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, wrapDBError("scan note tag", err)
		}
		out[tag] = struct{}{}
	}
	return out, wrapDBError("iterate note tags", rows.Err())
}

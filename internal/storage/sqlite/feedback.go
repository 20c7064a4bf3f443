package sqlite

import (
	"context"

	"github.com/flywheel-memory/flywheel/internal/types"
)

// Feedback contexts recognized by the implicit-feedback loop.
const (
	ContextImplicitRemoved     = "implicit:removed"
	ContextImplicitManualAdded = "implicit:manual_added"
	ContextImplicitKept        = "implicit:kept"
)

// RecordFeedback appends one feedback row.
func (s *Store) RecordFeedback(ctx context.Context, entityNameLower, feedbackContext, notePath string, correct bool) error {
	correctInt := 0
	if correct {
		correctInt = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wikilink_feedback (entity_name_lower, context, note_path, correct)
		VALUES (?, ?, ?, ?)
	`, entityNameLower, feedbackContext, notePath, correctInt)
	return wrapDBError("record feedback", err)
}

// AccuracyStats is the (accuracy, n) pair Layer 8 consults, optionally
// scoped to a folder.
type AccuracyStats struct {
	Accuracy float64
	Samples  int
}

// Accuracy computes global accuracy for an entity across all recorded
// feedback.
func (s *Store) Accuracy(ctx context.Context, entityNameLower string) (AccuracyStats, error) {
	return s.accuracyQuery(ctx, `
		SELECT COUNT(*), COALESCE(SUM(correct), 0) FROM wikilink_feedback WHERE entity_name_lower = ?
	`, entityNameLower)
}

// AccuracyInFolder computes folder-scoped accuracy: every feedback row
// whose note_path's first segment matches folder.
func (s *Store) AccuracyInFolder(ctx context.Context, entityNameLower, folder string) (AccuracyStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT note_path, correct FROM wikilink_feedback WHERE entity_name_lower = ?
	`, entityNameLower)
	if err != nil {
		return AccuracyStats{}, wrapDBError("folder accuracy", err)
	}
	defer func() { _ = rows.Close() }()

	var total, correctSum int
	for rows.Next() {
		var path string
		var correct int
		if err := rows.Scan(&path, &correct); err != nil {
			return AccuracyStats{}, wrapDBError("scan folder accuracy", err)
		}
		if types.FolderOf(path) != folder {
			continue
		}
		total++
		correctSum += correct
	}
	if err := rows.Err(); err != nil {
		return AccuracyStats{}, wrapDBError("iterate folder accuracy", err)
	}
	if total == 0 {
		return AccuracyStats{}, nil
	}
	return AccuracyStats{Accuracy: float64(correctSum) / float64(total), Samples: total}, nil
}

func (s *Store) accuracyQuery(ctx context.Context, query, arg string) (AccuracyStats, error) {
	var total, correctSum int
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&total, &correctSum); err != nil {
		return AccuracyStats{}, wrapDBError("accuracy query", err)
	}
	if total == 0 {
		return AccuracyStats{}, nil
	}
	return AccuracyStats{Accuracy: float64(correctSum) / float64(total), Samples: total}, nil
}

// FalsePositiveRate returns 1-accuracy, the rate the
// suppression-reconciliation step compares against its threshold.
func (st AccuracyStats) FalsePositiveRate() float64 {
	return 1 - st.Accuracy
}

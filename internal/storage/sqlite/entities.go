package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/flywheel-memory/flywheel/internal/types"
)

// EntityRow is the persisted shape of a types.Entity (content_hash added
// for embedding-staleness checks).
type EntityRow struct {
	types.Entity
	ContentHash string
}

// UpsertEntity inserts or replaces one entity row.
func (s *Store) UpsertEntity(ctx context.Context, e EntityRow) error {
	aliasesJSON, err := json.Marshal(e.Aliases)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (name_lower, name, path, category, aliases, hub_score, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (name_lower) DO UPDATE SET
			name = excluded.name, path = excluded.path, category = excluded.category,
			aliases = excluded.aliases, hub_score = excluded.hub_score,
			content_hash = excluded.content_hash, updated_at = datetime('now')
	`, e.NameLower, e.Name, e.Path, string(e.Category), string(aliasesJSON), e.HubScore, e.ContentHash)
	return wrapDBError("upsert entity", err)
}

// DeleteEntitiesForPath removes every entity row backed by path (the note
// disappeared or was renamed away).
func (s *Store) DeleteEntitiesForPath(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE path = ?`, path)
	return wrapDBError("delete entities for path", err)
}

// GetEntity returns the entity row for nameLower, or ErrNotFound.
func (s *Store) GetEntity(ctx context.Context, nameLower string) (*EntityRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name_lower, name, path, category, aliases, hub_score, content_hash
		FROM entities WHERE name_lower = ?
	`, nameLower)
	return scanEntityRow(row)
}

// ListEntities returns every entity row, ordered by name_lower for
// deterministic iteration.
func (s *Store) ListEntities(ctx context.Context) ([]EntityRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name_lower, name, path, category, aliases, hub_score, content_hash
		FROM entities ORDER BY name_lower
	`)
	if err != nil {
		return nil, wrapDBError("list entities", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EntityRow
	for rows.Next() {
		e, err := scanEntityRowFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, wrapDBError("iterate entities", rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntityRow(row *sql.Row) (*EntityRow, error) {
	return scanEntityRowGeneric(row)
}

func scanEntityRowFromRows(rows *sql.Rows) (*EntityRow, error) {
	return scanEntityRowGeneric(rows)
}

func scanEntityRowGeneric(s rowScanner) (*EntityRow, error) {
	var e EntityRow
	var category, aliasesJSON string
	if err := s.Scan(&e.NameLower, &e.Name, &e.Path, &category, &aliasesJSON, &e.HubScore, &e.ContentHash); err != nil {
		return nil, wrapDBError("scan entity", err)
	}
	e.Category = types.Category(category)
	_ = json.Unmarshal([]byte(aliasesJSON), &e.Aliases)
	return &e, nil
}

// SetSuppressed records nameLower as suppressed in wikilink_suppressions
// for the given folder scope ("" for global). Entity-level "Suppressed" in
// memory is derived by the caller from ListSuppressions, not stored on the
// row itself.
func (s *Store) SetSuppressed(ctx context.Context, nameLower, folder string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wikilink_suppressions (entity_name_lower, folder) VALUES (?, ?)
		ON CONFLICT (entity_name_lower, folder) DO NOTHING
	`, nameLower, folder)
	return wrapDBError("suppress entity", err)
}

// ClearSuppressed un-suppresses nameLower in the given folder scope ("" for
// global).
func (s *Store) ClearSuppressed(ctx context.Context, nameLower, folder string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM wikilink_suppressions WHERE entity_name_lower = ? AND folder = ?
	`, nameLower, folder)
	return wrapDBError("unsuppress entity", err)
}

// ListSuppressions returns every suppression row (entity, folder).
func (s *Store) ListSuppressions(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity_name_lower, folder FROM wikilink_suppressions`)
	if err != nil {
		return nil, wrapDBError("list suppressions", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]string)
	for rows.Next() {
		var name, folder string
		if err := rows.Scan(&name, &folder); err != nil {
			return nil, wrapDBError("scan suppression", err)
		}
		out[name] = append(out[name], folder)
	}
	return out, wrapDBError("iterate suppressions", rows.Err())
}

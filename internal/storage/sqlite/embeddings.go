package sqlite

import (
	"context"
	"encoding/binary"
	"math"
)

// encodeVector / decodeVector serialize a []float32 to/from the BLOB
// column, little-endian, matching the dims column for self-describing
// rows.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte, dims int) []float32 {
	v := make([]float32, dims)
	for i := 0; i < dims && (i+1)*4 <= len(buf); i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

// UpsertEntityEmbedding stores an entity's embedding vector keyed by its
// content hash, so unchanged entities are skipped on rebuild.
func (s *Store) UpsertEntityEmbedding(ctx context.Context, nameLower, contentHash string, vec []float32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_embeddings (name_lower, content_hash, vector, dims, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT (name_lower) DO UPDATE SET
			content_hash = excluded.content_hash, vector = excluded.vector,
			dims = excluded.dims, updated_at = datetime('now')
	`, nameLower, contentHash, encodeVector(vec), len(vec))
	return wrapDBError("upsert entity embedding", err)
}

// EntityEmbeddingHash returns the stored content hash for nameLower, or ""
// if none exists, so callers can decide whether a re-embed is needed.
func (s *Store) EntityEmbeddingHash(ctx context.Context, nameLower string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT content_hash FROM entity_embeddings WHERE name_lower = ?`, nameLower).Scan(&hash)
	if IsNotFound(wrapDBError("entity embedding hash", err)) {
		return "", nil
	}
	return hash, wrapDBError("entity embedding hash", err)
}

// AllEntityEmbeddings loads every stored embedding into memory, the shape
// the scoring engine's O(entities) cosine-search map needs at startup.
func (s *Store) AllEntityEmbeddings(ctx context.Context) (map[string][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name_lower, vector, dims FROM entity_embeddings`)
	if err != nil {
		return nil, wrapDBError("list entity embeddings", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]float32)
	for rows.Next() {
		var name string
		var blob []byte
		var dims int
		if err := rows.Scan(&name, &blob, &dims); err != nil {
			return nil, wrapDBError("scan entity embedding", err)
		}
		out[name] = decodeVector(blob, dims)
	}
	return out, wrapDBError("iterate entity embeddings", rows.Err())
}

// UpsertNoteEmbedding stores a note body's embedding, content-hash gated
// the same way as entity embeddings.
func (s *Store) UpsertNoteEmbedding(ctx context.Context, path, contentHash string, vec []float32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO note_embeddings (path, content_hash, vector, dims, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT (path) DO UPDATE SET
			content_hash = excluded.content_hash, vector = excluded.vector,
			dims = excluded.dims, updated_at = datetime('now')
	`, path, contentHash, encodeVector(vec), len(vec))
	return wrapDBError("upsert note embedding", err)
}

// NoteEmbeddingHash returns the stored content hash for path, or "".
func (s *Store) NoteEmbeddingHash(ctx context.Context, path string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT content_hash FROM note_embeddings WHERE path = ?`, path).Scan(&hash)
	if IsNotFound(wrapDBError("note embedding hash", err)) {
		return "", nil
	}
	return hash, wrapDBError("note embedding hash", err)
}

// DeleteEmbeddingsForPath removes a note's row from note_embeddings
// (called from the same ownership-cleanup path as DeleteEntitiesForPath).
// Entity embeddings are keyed by entity name and are left in place.
func (s *Store) DeleteEmbeddingsForPath(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM note_embeddings WHERE path = ?`, path)
	return wrapDBError("delete note embedding", err)
}

package entityindex

import (
	"context"
	"fmt"

	"github.com/flywheel-memory/flywheel/internal/embedcache"
	"github.com/flywheel-memory/flywheel/internal/types"
)

// EmbeddingStore is the persistence surface embeddings are synced through
// (implemented by internal/storage/sqlite.Store).
type EmbeddingStore interface {
	EntityEmbeddingHash(ctx context.Context, nameLower string) (string, error)
	UpsertEntityEmbedding(ctx context.Context, nameLower, contentHash string, vec []float32) error
}

// SyncEmbeddings walks entities and, for each whose content hash differs
// from the one already stored, embeds it via cache and persists the
// result. bodies maps each entity's backing note path to its body text.
// Rows whose hash matches are left untouched, so unchanged entities are
// skipped on rebuild.
func SyncEmbeddings(ctx context.Context, store EmbeddingStore, cache *embedcache.Cache, entities []types.Entity, bodies map[string]string) error {
	for _, e := range entities {
		text := EmbeddingText(e, bodies[e.Path])
		hash := ContentHash(text)

		existing, err := store.EntityEmbeddingHash(ctx, e.NameLower)
		if err != nil {
			return fmt.Errorf("entity embedding hash for %q: %w", e.NameLower, err)
		}
		if existing == hash {
			continue
		}

		vec, err := cache.Embed(ctx, text)
		if err != nil {
			// Embedding failures never block the pipeline; the entity
			// simply has no semantic signal until the next successful attempt.
			continue
		}
		if vec == nil {
			continue
		}
		if err := store.UpsertEntityEmbedding(ctx, e.NameLower, hash, vec); err != nil {
			return fmt.Errorf("upsert entity embedding for %q: %w", e.NameLower, err)
		}
	}
	return nil
}

package entityindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flywheel-memory/flywheel/internal/embedcache"
	"github.com/flywheel-memory/flywheel/internal/types"
	"github.com/flywheel-memory/flywheel/internal/vaultindex"
)

func TestClassifyFrontmatterOverrideWins(t *testing.T) {
	n := &types.Note{
		Path:        "concepts/Turbopump.md",
		Title:       "Turbopump",
		Frontmatter: map[string]any{"type": "technologies"},
	}
	cat, err := Classify(n)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryTechnologies, cat)
}

func TestClassifyFolderPrefix(t *testing.T) {
	n := &types.Note{Path: "people/Marcus Johnson.md", Title: "Marcus Johnson"}
	cat, err := Classify(n)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryPeople, cat)
}

func TestClassifyAcronymFallback(t *testing.T) {
	n := &types.Note{Path: "notes/NASA.md", Title: "NASA"}
	cat, err := Classify(n)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryAcronyms, cat)
}

func TestClassifyDefaultsToOther(t *testing.T) {
	n := &types.Note{Path: "notes/Some Topic.md", Title: "Some Topic"}
	cat, err := Classify(n)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryOther, cat)
}

func TestClassifyRejectsUnknownOverride(t *testing.T) {
	n := &types.Note{Path: "notes/X.md", Title: "X", Frontmatter: map[string]any{"type": "nonsense"}}
	_, err := Classify(n)
	assert.Error(t, err)
}

func TestBuildExcludesConfiguredFolders(t *testing.T) {
	idx := types.NewVaultIndex()
	vaultindex.Upsert(idx, &types.Note{Path: "projects/Turbopump.md", Title: "Turbopump", Tags: map[string]struct{}{}})
	vaultindex.Upsert(idx, &types.Note{Path: "daily/2026-07-30.md", Title: "2026-07-30", Tags: map[string]struct{}{}})

	entities, err := Build(idx)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "turbopump", entities[0].NameLower)
}

func TestBuildComputesHubScore(t *testing.T) {
	idx := types.NewVaultIndex()
	vaultindex.Upsert(idx, &types.Note{
		Path: "projects/Turbopump.md", Title: "Turbopump", Tags: map[string]struct{}{},
	})
	vaultindex.Upsert(idx, &types.Note{
		Path: "people/Marcus.md", Title: "Marcus", Tags: map[string]struct{}{},
		Outlinks: []types.Outlink{{Target: "Turbopump", LineNumber: 1}},
	})

	entities, err := Build(idx)
	require.NoError(t, err)

	var tp types.Entity
	for _, e := range entities {
		if e.NameLower == "turbopump" {
			tp = e
		}
	}
	assert.Equal(t, 1, tp.HubScore)
}

func TestEmbeddingTextIncludesFields(t *testing.T) {
	e := types.Entity{Name: "Turbopump", Category: types.CategoryTechnologies, Aliases: []string{"TP"}}
	text := EmbeddingText(e, "body text")
	assert.Contains(t, text, "Turbopump")
	assert.Contains(t, text, "TP")
	assert.Contains(t, text, "technologies")
	assert.Contains(t, text, "body text")
}

type fakeEmbeddingStore struct {
	hashes map[string]string
	upserts int
}

func (f *fakeEmbeddingStore) EntityEmbeddingHash(ctx context.Context, nameLower string) (string, error) {
	return f.hashes[nameLower], nil
}

func (f *fakeEmbeddingStore) UpsertEntityEmbedding(ctx context.Context, nameLower, contentHash string, vec []float32) error {
	f.upserts++
	if f.hashes == nil {
		f.hashes = make(map[string]string)
	}
	f.hashes[nameLower] = contentHash
	return nil
}

type fakeEmbedder struct{ calls int }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{1, 2, 3}, nil
}

func TestSyncEmbeddingsSkipsUnchangedContentHash(t *testing.T) {
	entities := []types.Entity{{Name: "Turbopump", NameLower: "turbopump", Path: "projects/Turbopump.md", Category: types.CategoryTechnologies}}
	bodies := map[string]string{"projects/Turbopump.md": "pump body"}

	store := &fakeEmbeddingStore{}
	cache := embedcache.New(&fakeEmbedder{})

	require.NoError(t, SyncEmbeddings(context.Background(), store, cache, entities, bodies))
	assert.Equal(t, 1, store.upserts)

	// second sync with identical content is a no-op
	require.NoError(t, SyncEmbeddings(context.Background(), store, cache, entities, bodies))
	assert.Equal(t, 1, store.upserts)
}

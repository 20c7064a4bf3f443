package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flywheel-memory/flywheel/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConfigRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v, err := s.GetConfig(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, s.SetConfig(ctx, "issue_prefix", "bd"))
	v, err = s.GetConfig(ctx, "issue_prefix")
	require.NoError(t, err)
	assert.Equal(t, "bd", v)
}

func TestEntityUpsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row := EntityRow{Entity: types.Entity{
		Name: "Turbopump", NameLower: "turbopump", Path: "projects/Turbopump.md",
		Category: types.CategoryProjects, Aliases: []string{"TP"}, HubScore: 3,
	}, ContentHash: "h1"}
	require.NoError(t, s.UpsertEntity(ctx, row))

	got, err := s.GetEntity(ctx, "turbopump")
	require.NoError(t, err)
	assert.Equal(t, "Turbopump", got.Name)
	assert.Equal(t, []string{"TP"}, got.Aliases)
	assert.Equal(t, 3, got.HubScore)

	require.NoError(t, s.DeleteEntitiesForPath(ctx, "projects/Turbopump.md"))
	_, err = s.GetEntity(ctx, "turbopump")
	assert.True(t, IsNotFound(err))
}

func TestRecencyBumpAccumulates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.BumpRecency(ctx, "marcus johnson", now))
	require.NoError(t, s.BumpRecency(ctx, "marcus johnson", now.Add(time.Minute)))

	last, count, err := s.GetRecency(ctx, "marcus johnson")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.WithinDuration(t, now.Add(time.Minute), last, time.Second)
}

func TestCooccurrenceSymmetricKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BumpCooccurrence(ctx, "b", "a", 2))
	count, err := s.CooccurrenceCount(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	related, err := s.CooccurringWith(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, related["b"])
}

func TestSuppressionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetSuppressed(ctx, "update", "daily-notes"))
	suppressions, err := s.ListSuppressions(ctx)
	require.NoError(t, err)
	assert.Contains(t, suppressions["update"], "daily-notes")

	require.NoError(t, s.ClearSuppressed(ctx, "update", "daily-notes"))
	suppressions, err = s.ListSuppressions(ctx)
	require.NoError(t, err)
	assert.NotContains(t, suppressions, "update")
}

func TestReplaceNoteLinksAtomicSwap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceNoteLinks(ctx, "a.md", NoteLinkSet{"x": 1.0, "y": 2.0}))
	set, found, err := s.GetNoteLinks(ctx, "a.md")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, set, 2)

	require.NoError(t, s.ReplaceNoteLinks(ctx, "a.md", NoteLinkSet{"z": 3.0}))
	set, found, err = s.GetNoteLinks(ctx, "a.md")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, NoteLinkSet{"z": 3.0}, set)
}

func TestEntityEmbeddingRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	vec := []float32{0.1, 0.2, 0.3}
	require.NoError(t, s.UpsertEntityEmbedding(ctx, "turbopump", "hash1", vec))

	hash, err := s.EntityEmbeddingHash(ctx, "turbopump")
	require.NoError(t, err)
	assert.Equal(t, "hash1", hash)

	all, err := s.AllEntityEmbeddings(ctx)
	require.NoError(t, err)
	require.Contains(t, all, "turbopump")
	assert.InDeltaSlice(t, vec, all["turbopump"], 1e-6)
}

func TestIndexCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, _, _, ok, err := s.LoadIndexCache(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveIndexCache(ctx, 42, []byte("payload")))
	payload, count, cachedAt, ok, err := s.LoadIndexCache(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), payload)
	assert.Equal(t, 42, count)
	assert.WithinDuration(t, time.Now(), cachedAt, time.Minute)
}

func TestFeedbackAccuracy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		correct := i < 6 // 6/8 = 0.75
		require.NoError(t, s.RecordFeedback(ctx, "update", ContextImplicitKept, "daily-notes/a.md", correct))
	}
	stats, err := s.Accuracy(ctx, "update")
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Samples)
	assert.InDelta(t, 0.75, stats.Accuracy, 0.01)
	assert.InDelta(t, 0.25, stats.FalsePositiveRate(), 0.01)
}

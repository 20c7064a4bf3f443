package vaultindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flywheel-memory/flywheel/internal/types"
)

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
}

func TestBuildBacklinkSymmetry(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "people/Marcus Johnson.md", "Works on [[Turbopump]].\n")
	writeNote(t, root, "projects/Turbopump.md", "Owned by [[Marcus Johnson]].\n")

	res, err := Build(context.Background(), root, nil, 2)
	require.NoError(t, err)
	idx := res.Index

	// invariant 5: backlink/outlink symmetry
	back := idx.Backlinks[types.NormalizeTarget("projects/Turbopump.md")]
	require.Len(t, back, 1)
	assert.Equal(t, "people/Marcus Johnson.md", back[0].SourcePath)

	back2 := idx.Backlinks[types.NormalizeTarget("people/Marcus Johnson.md")]
	require.Len(t, back2, 1)
	assert.Equal(t, "projects/Turbopump.md", back2[0].SourcePath)
}

func TestBuildEntityMapFirstWriterWinsThenPathOverrides(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a/Widget.md", "first\n")
	writeNote(t, root, "b/Widget.md", "second\n")

	res, err := Build(context.Background(), root, nil, 2)
	require.NoError(t, err)

	// title collision: first-writer-wins is deterministic by path sort
	p, ok := res.Index.EntityMap["widget"]
	require.True(t, ok)
	assert.Equal(t, "a/Widget.md", p)

	// path entries always win and exist for both notes
	assert.Equal(t, "a/Widget.md", res.Index.EntityMap[types.NormalizeTarget("a/Widget.md")])
	assert.Equal(t, "b/Widget.md", res.Index.EntityMap[types.NormalizeTarget("b/Widget.md")])
}

func TestUpsertAndRemove(t *testing.T) {
	idx := types.NewVaultIndex()
	n := &types.Note{
		Path:     "notes/Foo.md",
		Title:    "Foo",
		Tags:     map[string]struct{}{"x": {}},
		Outlinks: []types.Outlink{{Target: "Bar", LineNumber: 1}},
	}
	Upsert(idx, n)
	assert.Contains(t, idx.Notes, "notes/Foo.md")
	assert.Contains(t, idx.TagMap["x"], "notes/Foo.md")
	assert.Len(t, idx.Backlinks["bar"], 1)

	Remove(idx, "notes/Foo.md")
	assert.NotContains(t, idx.Notes, "notes/Foo.md")
	assert.NotContains(t, idx.TagMap, "x")
	assert.NotContains(t, idx.Backlinks, "bar")
}

func TestCacheValid(t *testing.T) {
	now := time.Now()
	assert.True(t, CacheValid(100, 98, now, 24*time.Hour))  // within 5%
	assert.False(t, CacheValid(100, 80, now, 24*time.Hour)) // outside 5%
	assert.False(t, CacheValid(100, 100, now.Add(-25*time.Hour), 24*time.Hour))
}

func TestTrackerReplaceAndSnapshot(t *testing.T) {
	tr := NewTracker()
	_, _, ready := tr.Snapshot()
	assert.False(t, ready)

	idx := types.NewVaultIndex()
	idx.Notes["a.md"] = &types.Note{Path: "a.md", Title: "a"}
	tr.Replace(idx)

	got, progress, ready := tr.Snapshot()
	assert.True(t, ready)
	assert.Equal(t, 1, progress.Parsed)
	assert.Same(t, idx, got)
}

package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNote(t *testing.T, root, relPath, body string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func TestBootstrapBuildsIndexAndEntities(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "people/Marcus Johnson.md", "# Marcus Johnson\n\nWorks on the turbopump project.\n")
	writeNote(t, root, "projects/Turbopump.md", "# Turbopump\n\nSee [[Marcus Johnson]] for context.\n")

	ctx := context.Background()
	core, err := Bootstrap(ctx, root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.Close() })

	idx, _, ready := core.VaultTracker.Snapshot()
	require.True(t, ready)
	assert.Len(t, idx.Notes, 2)

	entities := core.EntityTracker.Snapshot()
	assert.Len(t, entities, 2)
}

func TestBootstrapReusesValidIndexCache(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "people/Marcus Johnson.md", "# Marcus Johnson\n\nAn engineer.\n")

	ctx := context.Background()
	core, err := Bootstrap(ctx, root)
	require.NoError(t, err)

	idx, _, ready := core.VaultTracker.Snapshot()
	require.True(t, ready)
	require.Len(t, idx.Notes, 1)
	require.NoError(t, core.Close())

	// A second Bootstrap against the same vault, with no file changes,
	// should come back from the persisted cache rather than rescanning.
	core2, err := Bootstrap(ctx, root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = core2.Close() })

	idx2, _, ready2 := core2.VaultTracker.Snapshot()
	require.True(t, ready2)
	assert.Len(t, idx2.Notes, 1)
	assert.Contains(t, idx2.EntityMap, "marcus johnson")
}

func TestCandidatesEnrichesFromStore(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "people/Marcus Johnson.md", "# Marcus Johnson\n\nAn engineer.\n")

	ctx := context.Background()
	core, err := Bootstrap(ctx, root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.Close() })

	require.NoError(t, core.Store.SetSuppressed(ctx, "marcus johnson", ""))

	candidates, err := core.Candidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Suppressed)
}

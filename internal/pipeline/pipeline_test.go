package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flywheel-memory/flywheel/internal/config"
	"github.com/flywheel-memory/flywheel/internal/entityindex"
	"github.com/flywheel-memory/flywheel/internal/storage/sqlite"
	"github.com/flywheel-memory/flywheel/internal/vaultindex"
	"github.com/flywheel-memory/flywheel/internal/embedcache"
)

func TestPathFilterAcceptsAndRejects(t *testing.T) {
	f := NewPathFilter([]string{"Scratch"})
	assert.True(t, f.Accept("people/Marcus Johnson.md"))
	assert.False(t, f.Accept("people/Marcus Johnson.txt"))
	assert.False(t, f.Accept(".git/HEAD.md"))
	assert.False(t, f.Accept("attachments/photo.md"))
	assert.False(t, f.Accept("scratch/draft.md"))
	assert.True(t, f.Accept("projects/Turbopump.md"))
}

func TestDebouncerCoalescesRapidEvents(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, time.Second)
	defer d.Stop()

	d.Submit(Event{Path: "a.md", Kind: EventChange, At: time.Now()})
	d.Submit(Event{Path: "a.md", Kind: EventChange, At: time.Now()})
	d.Submit(Event{Path: "b.md", Kind: EventAdd, At: time.Now()})

	select {
	case batch := <-d.Flushes():
		assert.Len(t, batch, 2)
	case <-time.After(time.Second):
		t.Fatal("expected a coalesced flush")
	}
}

func TestDebouncerForcesFlushOnWindow(t *testing.T) {
	d := NewDebouncer(time.Hour, 30*time.Millisecond)
	defer d.Stop()

	d.Submit(Event{Path: "a.md", Kind: EventChange, At: time.Now()})
	select {
	case batch := <-d.Flushes():
		assert.Len(t, batch, 1)
	case <-time.After(time.Second):
		t.Fatal("expected the flush window to force a flush even under continuous debouncing")
	}
}

func TestDetectRenamesCollapsesDeleteAddPair(t *testing.T) {
	now := time.Now()
	events := []Event{
		{Path: "projects/Turbopump.md", Kind: EventDelete, At: now},
		{Path: "archive/Turbopump.md", Kind: EventAdd, At: now.Add(time.Second)},
		{Path: "people/Unrelated.md", Kind: EventChange, At: now},
	}
	renames, rest := DetectRenames(events)
	require.Len(t, renames, 1)
	assert.Equal(t, "projects/Turbopump.md", renames[0].From)
	assert.Equal(t, "archive/Turbopump.md", renames[0].To)
	require.Len(t, rest, 1)
	assert.Equal(t, "people/Unrelated.md", rest[0].Path)
}

func TestDetectRenamesRequiresMatchingStem(t *testing.T) {
	now := time.Now()
	events := []Event{
		{Path: "a.md", Kind: EventDelete, At: now},
		{Path: "b.md", Kind: EventAdd, At: now},
	}
	renames, rest := DetectRenames(events)
	assert.Empty(t, renames)
	assert.Len(t, rest, 2)
}

func TestDetectRenamesRequiresWithinWindow(t *testing.T) {
	now := time.Now()
	events := []Event{
		{Path: "a.md", Kind: EventDelete, At: now},
		{Path: "a.md", Kind: EventAdd, At: now.Add(10 * time.Second)},
	}
	renames, rest := DetectRenames(events)
	assert.Empty(t, renames)
	assert.Len(t, rest, 2)
}

func TestClassifyErrorClasses(t *testing.T) {
	assert.Equal(t, ErrorClassEnvironment, Classify(syscall.ENOTSUP))
	assert.Equal(t, ErrorClassResource, Classify(syscall.EMFILE))
	assert.Equal(t, ErrorClassUnknown, Classify(errors.New("boom")))
}

func TestSelfHealEnvironmentGoesStraightToPolling(t *testing.T) {
	s := NewSelfHeal()
	s.HandleError(context.Background(), syscall.EACCES, func(context.Context) error { return nil })
	assert.Equal(t, HealStatePolling, s.State())
	assert.True(t, s.Dirty())
}

func TestSelfHealUnknownRecoversOnSuccessfulRestart(t *testing.T) {
	s := NewSelfHeal()
	s.HandleError(context.Background(), errors.New("boom"), func(context.Context) error { return nil })
	assert.Equal(t, HealStateHealthy, s.State())
	assert.False(t, s.Dirty())
}

func TestSelfHealUnknownGivesUpAfterMaxRetries(t *testing.T) {
	s := NewSelfHeal()
	for i := 0; i < maxUnknownRetries+1; i++ {
		s.HandleError(context.Background(), errors.New("boom"), func(context.Context) error { return errors.New("still broken") })
	}
	assert.Equal(t, HealStateError, s.State())
}

// --- batch processor integration test, against a real temp vault + sqlite store ---

func writeNote(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestRunBatchParsesLinksAndEntities(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "people/Marcus Johnson.md", "# Marcus Johnson\n\nWorks with [[Turbopump]].\n")
	writeNote(t, root, "projects/Turbopump.md", "# Turbopump\n\nA rocket engine project.\n")

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default(root)
	tracker := vaultindex.NewTracker()
	entities := entityindex.NewTracker()
	cache := embedcache.New(nil)

	p := NewProcessor(root, cfg, tracker, entities, store, cache)
	defer p.Stop()

	events := []Event{
		{Path: "people/Marcus Johnson.md", Kind: EventAdd, At: time.Now()},
		{Path: "projects/Turbopump.md", Kind: EventAdd, At: time.Now()},
	}
	res, err := p.SubmitAndWait(context.Background(), events, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.NotesUpserted)
	assert.Equal(t, 2, res.Entities)

	snap := entities.Snapshot()
	names := map[string]bool{}
	for _, e := range snap {
		names[e.NameLower] = true
	}
	assert.True(t, names["marcus johnson"])
	assert.True(t, names["turbopump"])

	idx, _, ready := tracker.Snapshot()
	require.True(t, ready)
	assert.Len(t, idx.Notes, 2)

	links, found, err := store.GetNoteLinks(context.Background(), "people/Marcus Johnson.md")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, links, "turbopump")
}

func TestRunBatchHandlesDelete(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "projects/Turbopump.md", "# Turbopump\n\nA rocket engine project.\n")

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default(root)
	tracker := vaultindex.NewTracker()
	entities := entityindex.NewTracker()
	cache := embedcache.New(nil)

	p := NewProcessor(root, cfg, tracker, entities, store, cache)
	defer p.Stop()

	_, err = p.SubmitAndWait(context.Background(), []Event{
		{Path: "projects/Turbopump.md", Kind: EventAdd, At: time.Now()},
	}, nil)
	require.NoError(t, err)

	res, err := p.SubmitAndWait(context.Background(), []Event{
		{Path: "projects/Turbopump.md", Kind: EventDelete, At: time.Now()},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NotesDeleted)

	_, err = store.GetEntity(context.Background(), "turbopump")
	assert.True(t, sqlite.IsNotFound(err))
}

package vaultindex

import (
	"sync"

	"github.com/flywheel-memory/flywheel/internal/types"
)

// Tracker owns the process-wide VaultIndex snapshot and its build
// progress flag. Readers call Snapshot; the batch processor calls Replace
// to publish a new, fully-built index (replace, never mutate in place).
type Tracker struct {
	mu       sync.RWMutex
	index    *types.VaultIndex
	progress types.BuildProgress
	dirty    bool // set during watcher self-heal recovery
}

// NewTracker returns a Tracker in the "building" state with no index yet.
func NewTracker() *Tracker {
	return &Tracker{progress: types.BuildProgress{State: types.BuildStateBuilding}}
}

// Snapshot returns the current index and whether it is ready. Callers
// that require a ready index should check ok and, if false, return a
// typed "building" error that includes progress.
func (t *Tracker) Snapshot() (*types.VaultIndex, types.BuildProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.index, t.progress, t.progress.State == types.BuildStateReady
}

// SetProgress updates the (parsed, total) counters while a build is in
// flight.
func (t *Tracker) SetProgress(parsed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Parsed = parsed
	t.progress.Total = total
}

// Replace publishes a newly built index as the current snapshot and marks
// the tracker ready. This is the only way the index changes identity;
// existing readers holding the old pointer keep a consistent view.
func (t *Tracker) Replace(idx *types.VaultIndex) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.index = idx
	t.progress = types.BuildProgress{State: types.BuildStateReady, Parsed: len(idx.Notes), Total: len(idx.Notes)}
}

// Fail marks the tracker in the error state, preserving partial progress.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.State = types.BuildStateError
	t.progress.Err = err
}

// MarkDirty flags the index as stale during watcher recovery; reads still
// succeed but should be tagged with a staleness warning by the caller.
func (t *Tracker) MarkDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = true
}

// ClearDirty resets the staleness flag after a successful reconciling
// rescan.
func (t *Tracker) ClearDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = false
}

// Dirty reports whether the index is currently flagged stale.
func (t *Tracker) Dirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dirty
}

package entityindex

import (
	"sync"

	"github.com/flywheel-memory/flywheel/internal/types"
)

// Tracker owns the process-wide entity snapshot the scoring engine reads
// from, mirroring vaultindex.Tracker's replace-never-mutate contract.
type Tracker struct {
	mu      sync.RWMutex
	byName  map[string]types.Entity
	ordered []types.Entity
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{byName: make(map[string]types.Entity)}
}

// Replace publishes a new entity set atomically.
func (t *Tracker) Replace(entities []types.Entity) {
	byName := make(map[string]types.Entity, len(entities))
	for _, e := range entities {
		byName[e.NameLower] = e
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName = byName
	t.ordered = entities
}

// Snapshot returns every entity in the current set, in the stable order
// Build produced them.
func (t *Tracker) Snapshot() []types.Entity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ordered
}

// Get looks up one entity by its normalized name.
func (t *Tracker) Get(nameLower string) (types.Entity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byName[nameLower]
	return e, ok
}

package pipeline

import (
	"context"
	"encoding/json"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/flywheel-memory/flywheel/internal/config"
	"github.com/flywheel-memory/flywheel/internal/embedcache"
	"github.com/flywheel-memory/flywheel/internal/entityindex"
	"github.com/flywheel-memory/flywheel/internal/rewriter"
	"github.com/flywheel-memory/flywheel/internal/scanner"
	"github.com/flywheel-memory/flywheel/internal/storage/sqlite"
	"github.com/flywheel-memory/flywheel/internal/types"
	"github.com/flywheel-memory/flywheel/internal/vaultindex"
)

// batchConcurrency bounds per-file fan-out within a single batch step
// (embeddings, unlinked-mention scan), matching vaultindex.Build's
// errgroup-with-limit idiom.
const batchConcurrency = 4

// yieldEvery cooperatively yields the scheduler every 10 files so one
// large batch never starves the debouncer/watcher goroutines sharing the
// process.
func yieldEvery(i int) {
	if i > 0 && i%10 == 0 {
		runtime.Gosched()
	}
}

// BatchResult summarizes one completed batch for logging/diagnostics.
type BatchResult struct {
	BatchID          string
	NotesUpserted    int
	NotesDeleted     int
	Renamed          int
	Entities         int
	UnlinkedMentions map[string][]string // path -> candidate names mentioned but not linked
}

// linkDiff is the forward-link delta for one note, threaded from step 12
// into step 14's implicit-feedback reconciliation.
type linkDiff struct {
	Path     string
	Final    sqlite.NoteLinkSet
	Added    []string
	Removed  []string
	FirstRun bool
}

// Processor runs the 15-step batch pipeline over a
// vault's VaultIndex/entity/state-store triad. A single background
// goroutine drains Processor's queue in FIFO order so batches arriving
// while one is in flight are queued rather than recursively nested,
// bounding stack growth regardless of how many batches pile up.
type Processor struct {
	root string
	cfg  *config.Config

	tracker    *vaultindex.Tracker
	entities   *entityindex.Tracker
	store      *sqlite.Store
	embedCache *embedcache.Cache

	lastEdgeRecompute time.Time

	queue chan batchJob
	done  chan struct{}
}

type batchJob struct {
	events  []Event
	renames []Rename
	result  chan batchOutcome
}

type batchOutcome struct {
	res *BatchResult
	err error
}

// NewProcessor returns a Processor with its background worker started.
func NewProcessor(root string, cfg *config.Config, tracker *vaultindex.Tracker, entities *entityindex.Tracker, store *sqlite.Store, embedCache *embedcache.Cache) *Processor {
	p := &Processor{
		root:       root,
		cfg:        cfg,
		tracker:    tracker,
		entities:   entities,
		store:      store,
		embedCache: embedCache,
		queue:      make(chan batchJob, 64),
		done:       make(chan struct{}),
	}
	go p.loop()
	return p
}

// Submit enqueues a batch without waiting for it to run.
func (p *Processor) Submit(events []Event, renames []Rename) {
	p.queue <- batchJob{events: events, renames: renames}
}

// SubmitAndWait enqueues a batch and blocks until it has run.
func (p *Processor) SubmitAndWait(ctx context.Context, events []Event, renames []Rename) (*BatchResult, error) {
	result := make(chan batchOutcome, 1)
	select {
	case p.queue <- batchJob{events: events, renames: renames, result: result}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case out := <-result:
		return out.res, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop closes the queue and waits for the worker to drain it.
func (p *Processor) Stop() {
	close(p.queue)
	<-p.done
}

func (p *Processor) loop() {
	defer close(p.done)
	for job := range p.queue {
		res, err := p.RunBatch(context.Background(), job.events, job.renames)
		if job.result != nil {
			job.result <- batchOutcome{res: res, err: err}
		}
	}
}

func (p *Processor) recordStep(ctx context.Context, batchID, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	outcome := sqlite.StepOK
	if err != nil {
		outcome = sqlite.StepError
	}
	_ = p.store.RecordStep(ctx, batchID, name, time.Since(start).Milliseconds(), outcome)
	return err
}

// RunBatch runs all 15 steps sequentially over one coalesced batch of
// file-system events and collapsed renames.
func (p *Processor) RunBatch(ctx context.Context, events []Event, renames []Rename) (*BatchResult, error) {
	batchID := uuid.NewString()
	now := time.Now()
	result := &BatchResult{BatchID: batchID, UnlinkedMentions: make(map[string][]string)}

	base, _, ready := p.tracker.Snapshot()
	if !ready {
		base = types.NewVaultIndex()
	}
	idx := vaultindex.Clone(base)

	touched := make(map[string]struct{})
	var deletedPaths []string

	// Step 1: parse & upsert every add/change event; tear down derived rows
	// for deletes.
	_ = p.recordStep(ctx, batchID, "parse_and_upsert", func() error {
		for _, e := range events {
			switch e.Kind {
			case EventDelete:
				vaultindex.Remove(idx, e.Path)
				deletedPaths = append(deletedPaths, e.Path)
				_ = p.store.DeleteEntitiesForPath(ctx, e.Path)
				_ = p.store.DeleteEmbeddingsForPath(ctx, e.Path)
				_ = p.store.DeleteNoteFTS(ctx, e.Path)
				_ = p.store.ReplaceNoteLinks(ctx, e.Path, sqlite.NoteLinkSet{})
				_ = p.store.ReplaceNoteTags(ctx, e.Path, nil)
				result.NotesDeleted++
			case EventAdd, EventChange:
				res := scanner.ScanFile(p.root, e.Path)
				if res.Skip != nil || res.Note == nil {
					continue
				}
				vaultindex.Upsert(idx, res.Note)
				_ = p.store.SyncNoteFTS(ctx, res.Note.Path, res.Note.Body)
				touched[res.Note.Path] = struct{}{}
				result.NotesUpserted++
			}
		}
		if len(touched) > 0 {
			_ = p.store.MarkFTSBuilt(ctx, "notes")
		}
		return nil
	})

	// Step 2: rename reconciliation — re-scan at the new path, migrate
	// in-memory references, and fan the rename out across every table
	// keyed by note path.
	_ = p.recordStep(ctx, batchID, "rename_reconciliation", func() error {
		for _, r := range renames {
			res := scanner.ScanFile(p.root, r.To)
			if res.Skip != nil || res.Note == nil {
				continue
			}
			vaultindex.Remove(idx, r.From)
			vaultindex.Upsert(idx, res.Note)
			vaultindex.Rename(idx, r.From, r.To)
			_ = p.store.ApplyRename(ctx, r.From, r.To)
			_ = p.store.RenameApplications(ctx, r.From, r.To)
			touched[r.To] = struct{}{}
			result.Renamed++
		}
		return nil
	})

	bodies := entityindex.Bodies(idx)
	var entities []types.Entity

	// Step 3: entity scan delta — recompute the entity set and persist it
	// (also folds step 4's hub-score refresh, computed inside Build).
	_ = p.recordStep(ctx, batchID, "entity_scan_delta", func() error {
		var err error
		entities, err = entityindex.Build(idx)
		if err != nil {
			return err
		}
		for path := range touched {
			if !entityindex.Eligible(path) {
				_ = p.store.DeleteEntitiesForPath(ctx, path)
			}
		}
		for _, e := range entities {
			hash := entityindex.ContentHash(entityindex.EmbeddingText(e, bodies[e.Path]))
			if err := p.store.UpsertEntity(ctx, sqlite.EntityRow{Entity: e, ContentHash: hash}); err != nil {
				return err
			}
			_ = p.store.SyncEntityFTS(ctx, e.NameLower, e.Name, strings.Join(e.Aliases, " "))
		}
		_ = p.store.MarkFTSBuilt(ctx, "entities")
		result.Entities = len(entities)
		return nil
	})

	entityByPath := make(map[string]types.Entity, len(entities))
	for _, e := range entities {
		entityByPath[e.Path] = e
	}

	// resolvedTargets returns the distinct entities a note's outlinks
	// resolve to, shared by steps 5, 6, 7, and 12.
	resolvedTargets := func(n *types.Note) []types.Entity {
		seen := make(map[string]struct{})
		var out []types.Entity
		for _, ol := range n.Outlinks {
			targetPath, ok := vaultindex.ResolveEntity(idx, ol.Target)
			if !ok {
				continue
			}
			e, ok := entityByPath[targetPath]
			if !ok {
				continue
			}
			if _, dup := seen[e.NameLower]; dup {
				continue
			}
			seen[e.NameLower] = struct{}{}
			out = append(out, e)
		}
		return out
	}

	touchedPaths := make([]string, 0, len(touched))
	for path := range touched {
		touchedPaths = append(touchedPaths, path)
	}
	sort.Strings(touchedPaths)

	// Step 5: recency update.
	_ = p.recordStep(ctx, batchID, "recency_update", func() error {
		for i, path := range touchedPaths {
			yieldEvery(i)
			n, ok := idx.Notes[path]
			if !ok {
				continue
			}
			for _, e := range resolvedTargets(n) {
				_ = p.store.BumpRecency(ctx, e.NameLower, now)
			}
		}
		return nil
	})

	// Step 6: co-occurrence update — every unordered pair of entities
	// resolved from the same note's outlinks.
	_ = p.recordStep(ctx, batchID, "cooccurrence_update", func() error {
		for i, path := range touchedPaths {
			yieldEvery(i)
			n, ok := idx.Notes[path]
			if !ok {
				continue
			}
			targets := resolvedTargets(n)
			for a := 0; a < len(targets); a++ {
				for b := a + 1; b < len(targets); b++ {
					_ = p.store.BumpCooccurrence(ctx, targets[a].NameLower, targets[b].NameLower, 1)
				}
			}
		}
		return nil
	})

	// Step 7: edge-weight recompute, gated to at most once per hour. When
	// the gate is closed, step 12 below keeps whatever weight was already
	// persisted for surviving links.
	recomputeWeights := time.Since(p.lastEdgeRecompute) >= time.Hour
	linkWeights := make(map[string]sqlite.NoteLinkSet, len(touchedPaths))
	_ = p.recordStep(ctx, batchID, "edge_weight_recompute", func() error {
		if !recomputeWeights {
			return nil
		}
		p.lastEdgeRecompute = now
		for i, path := range touchedPaths {
			yieldEvery(i)
			n, ok := idx.Notes[path]
			if !ok {
				continue
			}
			set := make(sqlite.NoteLinkSet)
			for _, e := range resolvedTargets(n) {
				hist, _ := p.store.GetLinkHistory(ctx, path, e.NameLower)
				set[e.NameLower] = 1.0 + hist.EditWeightSignal() + hist.SourceAccessSignal()
			}
			linkWeights[path] = set
		}
		return nil
	})

	// Step 8: note embeddings, content-hash gated, bounded concurrency.
	_ = p.recordStep(ctx, batchID, "note_embeddings", func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)
		for i, path := range touchedPaths {
			yieldEvery(i)
			path := path
			n, ok := idx.Notes[path]
			if !ok {
				continue
			}
			body := n.Body
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return nil //nolint:nilerr // one note's embedding failure never aborts the batch
				}
				hash := entityindex.ContentHash(body)
				existing, err := p.store.NoteEmbeddingHash(gctx, path)
				if err != nil || existing == hash {
					return nil
				}
				vec, err := p.embedCache.Embed(gctx, body)
				if err != nil || vec == nil {
					return nil
				}
				_ = p.store.UpsertNoteEmbedding(gctx, path, hash, vec)
				return nil
			})
		}
		return g.Wait()
	})

	// Step 9: entity embeddings.
	_ = p.recordStep(ctx, batchID, "entity_embeddings", func() error {
		return entityindex.SyncEmbeddings(ctx, p.store, p.embedCache, entities, bodies)
	})

	// Step 10: in-memory suggestion index rebuild.
	_ = p.recordStep(ctx, batchID, "suggestion_index_rebuild", func() error {
		p.entities.Replace(entities)
		return nil
	})

	// Step 11: task cache atomic swap — publish the new VaultIndex pointer
	// and the on-disk snapshot together.
	_ = p.recordStep(ctx, batchID, "task_cache_swap", func() error {
		p.tracker.Replace(idx)
		payload, err := json.Marshal(vaultindex.CachePayloadFrom(idx))
		if err != nil {
			return err
		}
		return p.store.SaveIndexCache(ctx, len(idx.Notes), payload)
	})

	// Step 12: forward-link diff, with first-run seeding (no feedback
	// emitted the first time a note's link set is ever recorded).
	var diffs []linkDiff
	var diffMu sync.Mutex
	_ = p.recordStep(ctx, batchID, "forward_link_diff", func() error {
		for i, path := range touchedPaths {
			yieldEvery(i)
			n, ok := idx.Notes[path]
			if !ok {
				continue
			}
			current, computed := linkWeights[path]
			if !computed {
				current = make(sqlite.NoteLinkSet)
				for _, e := range resolvedTargets(n) {
					current[e.NameLower] = 1.0
				}
			}
			existing, found, err := p.store.GetNoteLinks(ctx, path)
			if err != nil {
				return err
			}
			final := make(sqlite.NoteLinkSet, len(current))
			var added, removed []string
			for name, w := range current {
				if old, ok := existing[name]; ok && !recomputeWeights {
					w = old
				}
				final[name] = w
				if _, ok := existing[name]; !ok {
					added = append(added, name)
				}
			}
			for name := range existing {
				if _, ok := current[name]; !ok {
					removed = append(removed, name)
				}
			}
			if err := p.store.ReplaceNoteLinks(ctx, path, final); err != nil {
				return err
			}
			diffMu.Lock()
			diffs = append(diffs, linkDiff{Path: path, Final: final, Added: added, Removed: removed, FirstRun: !found})
			diffMu.Unlock()
		}
		return nil
	})

	// Step 13: unlinked-mention scan — which currently-eligible candidates
	// appear in a note's body but were never accepted as a link.
	candidates := rewriter.BuildCandidates(entities)
	_ = p.recordStep(ctx, batchID, "unlinked_mention_scan", func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)
		var mentionsMu sync.Mutex
		for i, path := range touchedPaths {
			yieldEvery(i)
			if err := gctx.Err(); err != nil {
				break
			}
			path := path
			n, ok := idx.Notes[path]
			if !ok || n.SkipLinking {
				continue
			}
			g.Go(func() error {
				_, applied := rewriter.Rewrite(n.Body, candidates, path)
				var names []string
				for _, a := range applied {
					names = append(names, a.Canonical)
				}
				if len(names) > 0 {
					mentionsMu.Lock()
					result.UnlinkedMentions[path] = names
					mentionsMu.Unlock()
				}
				return nil
			})
		}
		return g.Wait()
	})

	// Step 14: implicit feedback + suppression reconciliation.
	_ = p.recordStep(ctx, batchID, "implicit_feedback", func() error {
		touchedEntities := make(map[string]string) // name_lower -> a folder it was touched in
		for _, d := range diffs {
			folder := types.FolderOf(d.Path)
			if !d.FirstRun {
				for _, name := range d.Removed {
					if wasApplied, _ := p.store.WasEngineApplied(ctx, d.Path, name); wasApplied {
						_ = p.store.MarkApplicationRemoved(ctx, d.Path, name)
						_ = p.store.RecordFeedback(ctx, name, sqlite.ContextImplicitRemoved, d.Path, false)
					}
					touchedEntities[name] = folder
				}
				for _, name := range d.Added {
					if wasApplied, _ := p.store.WasEngineApplied(ctx, d.Path, name); !wasApplied {
						_ = p.store.MarkManuallyAdded(ctx, d.Path, name)
						_ = p.store.RecordFeedback(ctx, name, sqlite.ContextImplicitManualAdded, d.Path, true)
					}
					touchedEntities[name] = folder
				}
			}
			for name := range d.Final {
				_ = p.store.BumpSurvivedEdits(ctx, d.Path, name)
				if hist, err := p.store.GetLinkHistory(ctx, d.Path, name); err == nil && hist.SurvivedEdits == 3 {
					_ = p.store.RecordFeedback(ctx, name, sqlite.ContextImplicitKept, d.Path, true)
				}
				touchedEntities[name] = folder
			}
		}

		for name, folder := range touchedEntities {
			if stats, err := p.store.Accuracy(ctx, name); err == nil && stats.Samples >= p.cfg.SuppressionMinSamples {
				if stats.FalsePositiveRate() >= p.cfg.SuppressionFPRate {
					_ = p.store.SetSuppressed(ctx, name, "")
				} else {
					_ = p.store.ClearSuppressed(ctx, name, "")
				}
			}
			if folder == "" {
				continue
			}
			if stats, err := p.store.AccuracyInFolder(ctx, name, folder); err == nil && stats.Samples >= p.cfg.SuppressionMinSamples {
				if stats.FalsePositiveRate() >= p.cfg.SuppressionFPRate {
					_ = p.store.SetSuppressed(ctx, name, folder)
				} else {
					_ = p.store.ClearSuppressed(ctx, name, folder)
				}
			}
		}
		return nil
	})

	// Step 15: tag scan delta. Tags have no feedback loop, so first-run
	// seeding is just an unconditional replace.
	_ = p.recordStep(ctx, batchID, "tag_scan_delta", func() error {
		for i, path := range touchedPaths {
			yieldEvery(i)
			n, ok := idx.Notes[path]
			if !ok {
				continue
			}
			if err := p.store.ReplaceNoteTags(ctx, path, n.TagList()); err != nil {
				return err
			}
		}
		return nil
	})

	return result, nil
}


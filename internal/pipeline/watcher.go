package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/flywheel-memory/flywheel/internal/config"
	"github.com/flywheel-memory/flywheel/internal/scanner"
	"github.com/flywheel-memory/flywheel/internal/vaultindex"
)

// pollInterval is how often the watcher rescans the vault tree by hand
// once self-heal has fallen back to polling mode.
const pollInterval = 5 * time.Second

// Watcher wires fsnotify ingestion, the path filter, the debouncer, rename
// detection, and the self-heal state machine into one event loop feeding
// a Processor.
type Watcher struct {
	root      string
	filter    *PathFilter
	debouncer *Debouncer
	selfHeal  *SelfHeal
	processor *Processor
	tracker   *vaultindex.Tracker

	fsw *fsnotify.Watcher
}

// NewWatcher constructs a Watcher and establishes the initial fsnotify
// subscription over every directory under root.
func NewWatcher(root string, cfg *config.Config, processor *Processor, tracker *vaultindex.Tracker) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:      root,
		filter:    NewPathFilter(cfg.ExcludedDirs),
		debouncer: NewDebouncer(cfg.DebounceWindow(), cfg.FlushWindow()),
		selfHeal:  NewSelfHeal(),
		processor: processor,
		tracker:   tracker,
		fsw:       fsw,
	}
	if err := w.watchTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// watchTree adds every directory under root to the fsnotify subscription,
// skipping the same directories the path filter excludes.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // a transient stat failure never aborts the walk
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if rel != "." {
			for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
				if strings.HasPrefix(seg, ".") {
					return filepath.SkipDir
				}
				if _, skip := w.filter.skipDirs[strings.ToLower(seg)]; skip {
					return filepath.SkipDir
				}
			}
		}
		return w.fsw.Add(path)
	})
}

// Run drives the watcher loop until ctx is canceled: fsnotify events feed
// the debouncer, debounced batches feed rename detection and then the
// processor, and fsnotify errors drive the self-heal state machine.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.debouncer.Stop()
	defer func() { _ = w.fsw.Close() }()

	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := statIsDir(ev.Name); statErr == nil && info {
					_ = w.fsw.Add(ev.Name)
				}
			}

			if !w.filter.Accept(rel) {
				continue
			}
			kind := EventChange
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = EventAdd
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				kind = EventDelete
			}
			w.debouncer.Submit(Event{Path: rel, Kind: kind, At: time.Now()})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.selfHeal.HandleError(ctx, err, w.restart)
			if w.selfHeal.Dirty() {
				w.tracker.MarkDirty()
			}

		case batch := <-w.debouncer.Flushes():
			renames, rest := DetectRenames(batch)
			w.processor.Submit(rest, renames)

		case <-pollTicker.C:
			if w.selfHeal.State() != HealStatePolling {
				continue
			}
			w.pollRescan(ctx)
		}
	}
}

// restart attempts to re-establish the fsnotify subscription from
// scratch, the recovery action self-heal's resource/unknown paths call
// before declaring success.
func (w *Watcher) restart(ctx context.Context) error {
	_ = w.fsw.Close()
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	if err := w.watchTree(w.root); err != nil {
		return err
	}
	w.tracker.ClearDirty()
	return nil
}

// pollRescan is the sticky polling fallback: walk the tree by hand and
// synthesize a change event for every eligible file and submit them all.
// The batch processor runs every step for each of them; only its
// embedding steps skip content whose hash is unchanged.
func (w *Watcher) pollRescan(ctx context.Context) {
	files, err := scanner.Walk(w.root, nil)
	if err != nil {
		return
	}
	now := time.Now()
	events := make([]Event, 0, len(files))
	for _, rel := range files {
		if !w.filter.Accept(rel) {
			continue
		}
		events = append(events, Event{Path: rel, Kind: EventChange, At: now})
	}
	w.processor.Submit(events, nil)
}

func statIsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

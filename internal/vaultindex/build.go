// Package vaultindex builds and maintains the in-memory VaultIndex graph:
// notes, backlinks, entity_map, tag_map.
package vaultindex

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flywheel-memory/flywheel/internal/scanner"
	"github.com/flywheel-memory/flywheel/internal/types"
)

// batchSize isolates failures within fixed-size groups rather than across
// the whole file set.
const batchSize = 50

// BuildResult carries the built index plus the skips/warnings collected
// along the way, since per-file failures never abort the batch.
type BuildResult struct {
	Index    *types.VaultIndex
	Skips    []scanner.SkipReason
	Warnings map[string]string // path -> warning
}

// Build enumerates and parses every Markdown file under root, then
// populates entity_map, backlinks, and tag_map in a second pass.
// Parallelism within the parse pass is bounded and each batch is
// isolated: one file's failure never fails the batch.
func Build(ctx context.Context, root string, excludedDirs []string, concurrency int) (*BuildResult, error) {
	files, err := scanner.Walk(root, excludedDirs)
	if err != nil {
		return nil, err
	}

	if concurrency <= 0 {
		concurrency = 4
	}

	var mu sync.Mutex
	notes := make(map[string]*types.Note, len(files))
	var skips []scanner.SkipReason
	warnings := make(map[string]string)

	for start := 0; start < len(files); start += batchSize {
		end := start + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, rel := range batch {
			rel := rel
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res := scanner.ScanFile(root, rel)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case res.Skip != nil:
					skips = append(skips, *res.Skip)
				case res.Note != nil:
					notes[res.Note.Path] = res.Note
					if res.Warn != "" {
						warnings[res.Note.Path] = res.Warn
					}
				}
				return nil
			})
		}
		// allSettled-style isolation: a cancellation still lets prior
		// batches' results stand, but we stop enqueueing new work.
		if err := g.Wait(); err != nil {
			return &BuildResult{Index: assemble(notes), Skips: skips, Warnings: warnings}, err
		}
	}

	idx := assemble(notes)
	idx.BuiltAt = time.Now()
	return &BuildResult{Index: idx, Skips: skips, Warnings: warnings}, nil
}

// assemble runs the second pass: populate entity_map, backlinks, and
// tag_map from the parsed notes.
func assemble(notes map[string]*types.Note) *types.VaultIndex {
	idx := types.NewVaultIndex()
	idx.Notes = notes

	// entity_map: title first (first-writer-wins on collision), then
	// aliases, then an explicit path entry that always overrides.
	for _, n := range notesInStableOrder(notes) {
		titleLower := types.NormalizeTarget(n.Title)
		if _, exists := idx.EntityMap[titleLower]; !exists {
			idx.EntityMap[titleLower] = n.Path
		}
		for _, a := range n.Aliases {
			aliasLower := types.NormalizeTarget(a)
			if _, exists := idx.EntityMap[aliasLower]; !exists {
				idx.EntityMap[aliasLower] = n.Path
			}
		}
	}
	for _, n := range notesInStableOrder(notes) {
		pathLower := types.NormalizeTarget(n.Path)
		idx.EntityMap[pathLower] = n.Path // path entries always win
	}

	// backlinks: resolve each outlink through entity_map; fall back to the
	// normalized raw target if unresolved.
	for _, n := range notesInStableOrder(notes) {
		for _, ol := range n.Outlinks {
			targetLower := types.NormalizeTarget(ol.Target)
			key := targetLower
			if resolved, ok := idx.EntityMap[targetLower]; ok {
				key = types.NormalizeTarget(resolved)
			}
			idx.Backlinks[key] = append(idx.Backlinks[key], types.BacklinkEntry{
				SourcePath: n.Path,
				LineNumber: ol.LineNumber,
			})
		}
	}

	// tag_map
	for _, n := range notesInStableOrder(notes) {
		for tag := range n.Tags {
			if idx.TagMap[tag] == nil {
				idx.TagMap[tag] = make(map[string]struct{})
			}
			idx.TagMap[tag][n.Path] = struct{}{}
		}
	}

	return idx
}

// notesInStableOrder returns notes sorted by path so entity_map
// first-writer-wins semantics are deterministic across runs.
func notesInStableOrder(notes map[string]*types.Note) []*types.Note {
	out := make([]*types.Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

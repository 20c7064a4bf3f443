package vaultindex

import (
	"sort"
	"time"

	"github.com/flywheel-memory/flywheel/internal/types"
)

// CachePayload is the serialized shape persisted to vault_index_cache: full
// per-note content, so FromCachePayload can run the same assemble pass Build
// does and reconstruct a value-equal VaultIndex rather than a stub.
type CachePayload struct {
	Notes []CachedNote `json:"notes"`
}

// CachedNote carries every field assemble/Build needs to reconstruct one
// note and its derived entity_map/backlinks/tag_map entries.
type CachedNote struct {
	Path        string          `json:"path"`
	Title       string          `json:"title"`
	Aliases     []string        `json:"aliases,omitempty"`
	Frontmatter map[string]any  `json:"frontmatter,omitempty"`
	Body        string          `json:"body"`
	Outlinks    []types.Outlink `json:"outlinks,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Modified    time.Time       `json:"modified"`
	Created     time.Time       `json:"created,omitempty"`
	SkipLinking bool            `json:"skip_linking,omitempty"`
}

// CachePayloadFrom captures idx's notes in full so the cache can be
// deserialized back into a value-equal VaultIndex later.
func CachePayloadFrom(idx *types.VaultIndex) CachePayload {
	out := CachePayload{Notes: make([]CachedNote, 0, len(idx.Notes))}
	for _, n := range idx.Notes {
		out.Notes = append(out.Notes, CachedNote{
			Path:        n.Path,
			Title:       n.Title,
			Aliases:     n.Aliases,
			Frontmatter: n.Frontmatter,
			Body:        n.Body,
			Outlinks:    n.Outlinks,
			Tags:        n.TagList(),
			Modified:    n.Modified,
			Created:     n.Created,
			SkipLinking: n.SkipLinking,
		})
	}
	sort.Slice(out.Notes, func(i, j int) bool { return out.Notes[i].Path < out.Notes[j].Path })
	return out
}

// FromCachePayload reconstructs a VaultIndex from p by rebuilding the notes
// map and running it through the same assemble pass Build uses, so
// entity_map/backlinks/tag_map come out identical to a fresh scan.
func FromCachePayload(p CachePayload, cachedAt time.Time) *types.VaultIndex {
	notes := make(map[string]*types.Note, len(p.Notes))
	for _, cn := range p.Notes {
		n := &types.Note{
			Path:        cn.Path,
			Title:       cn.Title,
			Aliases:     cn.Aliases,
			Frontmatter: cn.Frontmatter,
			Body:        cn.Body,
			Outlinks:    cn.Outlinks,
			Tags:        make(map[string]struct{}, len(cn.Tags)),
			Modified:    cn.Modified,
			Created:     cn.Created,
			SkipLinking: cn.SkipLinking,
		}
		for _, t := range cn.Tags {
			n.Tags[t] = struct{}{}
		}
		notes[cn.Path] = n
	}
	idx := assemble(notes)
	idx.BuiltAt = cachedAt
	return idx
}

// CacheValid applies the warm-start cache contract: the cached index may
// be reused iff the scanned file count is within ±5% of the cached note
// count and the cache is younger than maxAge.
func CacheValid(scannedCount, cachedCount int, cachedAt time.Time, maxAge time.Duration) bool {
	if time.Since(cachedAt) >= maxAge {
		return false
	}
	if cachedCount == 0 {
		return scannedCount == 0
	}
	delta := float64(scannedCount-cachedCount) / float64(cachedCount)
	if delta < 0 {
		delta = -delta
	}
	return delta <= 0.05
}

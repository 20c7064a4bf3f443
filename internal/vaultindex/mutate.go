package vaultindex

import (
	"github.com/flywheel-memory/flywheel/internal/types"
)

// Upsert adds or replaces a note in idx and recomputes the entity_map,
// backlinks, and tag_map entries that depend on it. It mutates idx in
// place — callers that need snapshot isolation should Clone first and
// publish the copy through Tracker.Replace.
func Upsert(idx *types.VaultIndex, n *types.Note) {
	Remove(idx, n.Path)
	idx.Notes[n.Path] = n

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
	idx.EntityMap[types.NormalizeTarget(n.Path)] = n.Path

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

	for tag := range n.Tags {
		if idx.TagMap[tag] == nil {
			idx.TagMap[tag] = make(map[string]struct{})
		}
		idx.TagMap[tag][n.Path] = struct{}{}
	}
}

// Remove deletes a note and every derived entry it contributed: its
// entity_map rows (title/aliases pointing at it), its outgoing backlink
// rows, and its tag_map memberships.
func Remove(idx *types.VaultIndex, path string) {
	old, ok := idx.Notes[path]
	if !ok {
		return
	}
	delete(idx.Notes, path)

	for name, p := range idx.EntityMap {
		if p == path {
			delete(idx.EntityMap, name)
		}
	}
	for target, entries := range idx.Backlinks {
		filtered := entries[:0]
		for _, e := range entries {
			if e.SourcePath != path {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(idx.Backlinks, target)
		} else {
			idx.Backlinks[target] = filtered
		}
	}
	for tag := range old.Tags {
		if paths, ok := idx.TagMap[tag]; ok {
			delete(paths, path)
			if len(paths) == 0 {
				delete(idx.TagMap, tag)
			}
		}
	}
}

// Rename moves a note from oldPath to newPath, rewriting backlink source
// paths and entity_map targets that pointed at oldPath. The note itself is
// re-upserted by the caller with its new path before or after this call;
// Rename only needs oldPath to locate what must move.
func Rename(idx *types.VaultIndex, oldPath, newPath string) {
	for target, entries := range idx.Backlinks {
		for i := range entries {
			if entries[i].SourcePath == oldPath {
				entries[i].SourcePath = newPath
			}
		}
		idx.Backlinks[target] = entries
	}
	if entries, ok := idx.Backlinks[types.NormalizeTarget(oldPath)]; ok {
		delete(idx.Backlinks, types.NormalizeTarget(oldPath))
		idx.Backlinks[types.NormalizeTarget(newPath)] = append(idx.Backlinks[types.NormalizeTarget(newPath)], entries...)
	}
	for name, p := range idx.EntityMap {
		if p == oldPath {
			idx.EntityMap[name] = newPath
		}
	}
}

// HubScore returns backlink_count + forward_link_count for path.
func HubScore(idx *types.VaultIndex, path string) int {
	back := len(idx.Backlinks[types.NormalizeTarget(path)])
	forward := 0
	if n, ok := idx.Notes[path]; ok {
		forward = len(n.Outlinks)
	}
	return back + forward
}

// ResolveEntity looks up a mention (case-insensitive) in entity_map and
// returns the canonical path, or ("", false) if unknown.
func ResolveEntity(idx *types.VaultIndex, mention string) (string, bool) {
	p, ok := idx.EntityMap[types.NormalizeTarget(mention)]
	return p, ok
}

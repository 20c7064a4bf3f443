package vaultindex

import "github.com/flywheel-memory/flywheel/internal/types"

// Clone returns a shallow copy of idx's four maps so a batch can mutate a
// working copy in place and publish it via Tracker.Replace without
// readers ever observing a partially-updated index ( "replaced,
// not mutated in place"). Note values themselves are not deep-copied:
// Upsert always installs a brand new *types.Note rather than editing an
// existing one, so sharing pointers across clones is safe.
func Clone(idx *types.VaultIndex) *types.VaultIndex {
	if idx == nil {
		return types.NewVaultIndex()
	}
	out := types.NewVaultIndex()
	for p, n := range idx.Notes {
		out.Notes[p] = n
	}
	for target, entries := range idx.Backlinks {
		out.Backlinks[target] = append([]types.BacklinkEntry(nil), entries...)
	}
	for name, p := range idx.EntityMap {
		out.EntityMap[name] = p
	}
	for tag, paths := range idx.TagMap {
		set := make(map[string]struct{}, len(paths))
		for p := range paths {
			set[p] = struct{}{}
		}
		out.TagMap[tag] = set
	}
	out.BuiltAt = idx.BuiltAt
	return out
}

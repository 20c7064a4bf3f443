// Package entityindex builds the entity layer on top of a
// vaultindex.VaultIndex: one Entity per eligible note, category
// classification, hub scores, and lazily-generated content-hash-gated
// embeddings.
package entityindex

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/flywheel-memory/flywheel/internal/types"
	"github.com/flywheel-memory/flywheel/internal/vaultindex"
)

// excludedDirs lists the top-level folders excluded from entity
// construction: transient or bulk content that should never become a
// linkable entity.
var excludedDirs = map[string]struct{}{
	"daily":       {},
	"journal":     {},
	"inbox":       {},
	"templates":   {},
	"attachments": {},
	"clippings":   {},
}

// Eligible reports whether a note's folder makes it a candidate for entity
// construction.
func Eligible(path string) bool {
	_, excluded := excludedDirs[strings.ToLower(types.FolderOf(path))]
	return !excluded
}

// Build constructs one Entity per eligible note in idx, keyed by the note's
// title; declared aliases are carried on that Entity's Aliases field, not
// emitted as separate entries. Entities are returned in stable name_lower
// order for deterministic downstream persistence.
func Build(idx *types.VaultIndex) ([]types.Entity, error) {
	paths := make([]string, 0, len(idx.Notes))
	for p := range idx.Notes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	entities := make([]types.Entity, 0, len(paths))
	for _, p := range paths {
		n := idx.Notes[p]
		if !Eligible(p) {
			continue
		}
		cat, err := Classify(n)
		if err != nil {
			return nil, err
		}
		e := types.Entity{
			Name:      n.Title,
			NameLower: types.NormalizeTarget(n.Title),
			Path:      n.Path,
			Category:  cat,
			Aliases:   append([]string(nil), n.Aliases...),
			HubScore:  vaultindex.HubScore(idx, n.Path),
		}
		entities = append(entities, e)
	}

	sort.Slice(entities, func(i, j int) bool { return entities[i].NameLower < entities[j].NameLower })
	return entities, nil
}

// Bodies returns a path -> body map for every note in idx, the shape
// SyncEmbeddings needs to build entity embedding text.
func Bodies(idx *types.VaultIndex) map[string]string {
	out := make(map[string]string, len(idx.Notes))
	for p, n := range idx.Notes {
		out[p] = n.Body
	}
	return out
}

// ContentHash returns the hash stored alongside an entity's embedding, so
// unchanged entities are skipped on rebuild.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// EmbeddingText builds the text an entity is embedded from: "name name
// aliases category first_500_chars_of_body".
func EmbeddingText(e types.Entity, body string) string {
	if len(body) > 500 {
		body = body[:500]
	}
	parts := []string{e.Name, e.Name, strings.Join(e.Aliases, " "), string(e.Category), body}
	return strings.Join(parts, " ")
}

package entityindex

import (
	"strings"

	"github.com/flywheel-memory/flywheel/internal/types"
)

// folderCategories maps a top-level vault folder to the category a note
// living there is assigned, absent a frontmatter override.
var folderCategories = map[string]types.Category{
	"people":        types.CategoryPeople,
	"projects":      types.CategoryProjects,
	"organizations": types.CategoryOrganizations,
	"orgs":          types.CategoryOrganizations,
	"locations":     types.CategoryLocations,
	"places":        types.CategoryLocations,
	"technologies":  types.CategoryTechnologies,
	"tech":          types.CategoryTechnologies,
	"concepts":      types.CategoryConcepts,
	"documents":     types.CategoryDocuments,
	"docs":          types.CategoryDocuments,
	"events":        types.CategoryEvents,
	"media":         types.CategoryMedia,
	"animals":       types.CategoryAnimals,
	"vehicles":      types.CategoryVehicles,
	"food":          types.CategoryFood,
	"health":        types.CategoryHealth,
	"finance":       types.CategoryFinance,
	"hobbies":       types.CategoryHobbies,
}

// acronymLike reports whether title looks like an acronym: 2-6 characters,
// all uppercase letters/digits, no lowercase.
func acronymLike(title string) bool {
	if len(title) < 2 || len(title) > 6 {
		return false
	}
	hasLetter := false
	for _, r := range title {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			// allowed
		default:
			return false
		}
	}
	return hasLetter
}

// Classify assigns exactly one of the fixed categories to note: frontmatter
// `type` always wins; otherwise the first vault folder segment maps to a
// category via folderCategories; otherwise a lexical heuristic on the
// title (acronym shape -> acronyms), falling back to the "other" residual
// bucket.
func Classify(n *types.Note) (types.Category, error) {
	if raw, ok := n.Frontmatter["type"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			return types.ParseCategory(s)
		}
	}

	folder := strings.ToLower(types.FolderOf(n.Path))
	if cat, ok := folderCategories[folder]; ok {
		return cat, nil
	}

	if acronymLike(n.Title) {
		return types.CategoryAcronyms, nil
	}

	return types.CategoryOther, nil
}

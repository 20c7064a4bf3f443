package types

import (
	"fmt"
	"sort"

	"github.com/flywheel-memory/flywheel/internal/diagnostics"
)

// Category is one of the fixed entity categories.
type Category string

const (
	CategoryPeople        Category = "people"
	CategoryProjects      Category = "projects"
	CategoryOrganizations Category = "organizations"
	CategoryLocations     Category = "locations"
	CategoryTechnologies  Category = "technologies"
	CategoryAcronyms      Category = "acronyms"
	CategoryConcepts      Category = "concepts"
	CategoryDocuments     Category = "documents"
	CategoryEvents        Category = "events"
	CategoryMedia         Category = "media"
	CategoryAnimals       Category = "animals"
	CategoryVehicles      Category = "vehicles"
	CategoryFood          Category = "food"
	CategoryHealth        Category = "health"
	CategoryFinance       Category = "finance"
	CategoryHobbies       Category = "hobbies"
	CategoryOther         Category = "other"
)

// validCategories is the fixed set; category strings are canonicalized to
// lowercase and rejected if unknown (Open Question #3 — see DESIGN.md).
var validCategories = map[Category]struct{}{
	CategoryPeople: {}, CategoryProjects: {}, CategoryOrganizations: {},
	CategoryLocations: {}, CategoryTechnologies: {}, CategoryAcronyms: {},
	CategoryConcepts: {}, CategoryDocuments: {}, CategoryEvents: {},
	CategoryMedia: {}, CategoryAnimals: {}, CategoryVehicles: {},
	CategoryFood: {}, CategoryHealth: {}, CategoryFinance: {},
	CategoryHobbies: {}, CategoryOther: {},
}

// ParseCategory canonicalizes a raw category string (from frontmatter
// `type:` or a classifier) to lowercase and validates it against the fixed
// set. Unknown categories are a hard error, never silently "other", and
// come back as a *diagnostics.DiagnosticError carrying the closest valid
// category so a caller can self-correct.
func ParseCategory(raw string) (Category, error) {
	c := Category(lowerASCII(raw))
	if _, ok := validCategories[c]; !ok {
		names := validCategoryNames()
		closest, _ := diagnostics.ClosestMatch(string(c), names)
		return "", &diagnostics.DiagnosticError{
			Op:             "parse_category",
			Message:        fmt.Sprintf("unknown entity category %q", raw),
			ClosestSection: closest,
			Suggestions:    []string{fmt.Sprintf("did you mean %q? valid categories: %v", closest, names)},
		}
	}
	return c, nil
}

func validCategoryNames() []string {
	names := make([]string, 0, len(validCategories))
	for c := range validCategories {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return names
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Entity is one linkable reference: a note's title, or one of its
// declared aliases, resolving to the same canonical path.
type Entity struct {
	Name       string // display form
	NameLower  string // normalized: lowercase, ".md" stripped
	Path       string // canonical backing note path
	Category   Category
	Aliases    []string  // ordered, only set on the title-entity
	HubScore   int       // backlinks + forward-links of the backing note
	Embedding  []float32 // nil if not yet computed
	Suppressed bool
}

// IsAlias reports whether this Entity record represents an alias rather
// than the note's title (both resolve to the same Path).
func (e *Entity) IsAlias(noteTitle string) bool {
	return e.Name != noteTitle
}

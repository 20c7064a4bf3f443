package rewriter

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/flywheel-memory/flywheel/internal/types"
)

// Candidate is one entity the rewriter may link to, carrying every surface
// form (name plus declared aliases) that should resolve to Canonical.
type Candidate struct {
	Canonical string // entity display name, used inside [[...]]
	Surfaces  []string
}

// Applied records one substitution the rewriter made, for callers (the
// pipeline's unlinked-mention scan, step 13, and flywheelctl rewrite) that
// need to know what changed without re-parsing the output.
type Applied struct {
	Canonical string
	Surface   string
	Start     int // byte offset in the ORIGINAL input text
	End       int
}

// BuildCandidates turns an entity list into Candidates, deduplicating
// nothing — callers pass the live entity index as-is.
func BuildCandidates(entities []types.Entity) []Candidate {
	out := make([]Candidate, 0, len(entities))
	for _, e := range entities {
		surfaces := append([]string{e.Name}, e.Aliases...)
		out = append(out, Candidate{Canonical: e.Name, Surfaces: surfaces})
	}
	return out
}

// Rewrite transforms text, substituting `[[Name]]` or `[[Name|surface]]`
// at the first surviving occurrence of each candidate. host is the note
// path text was read from; it is accepted for symmetry with future
// host-aware matching rules but current rules do not use it.
func Rewrite(text string, candidates []Candidate, host string) (string, []Applied) {
	zones := protectedZones(text)
	linked := existingWikilinkTargets(text)

	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Canonical) > len(ordered[j].Canonical)
	})

	var accepted []Applied
	for _, c := range ordered {
		if c.Canonical == "" {
			continue
		}
		if alreadyLinked(c, linked) {
			continue
		}
		match, ok := firstSurvivingOccurrence(text, c, zones, accepted)
		if !ok {
			continue
		}
		accepted = append(accepted, match)
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })

	var b strings.Builder
	cursor := 0
	for _, m := range accepted {
		b.WriteString(text[cursor:m.Start])
		b.WriteString(renderLink(m.Canonical, m.Surface))
		cursor = m.End
	}
	b.WriteString(text[cursor:])

	return b.String(), accepted
}

func renderLink(canonical, surface string) string {
	if strings.EqualFold(canonical, surface) {
		return "[[" + canonical + "]]"
	}
	return "[[" + canonical + "|" + surface + "]]"
}

// existingWikilinkTargets returns the normalized target of every `[[...]]`
// already present in text (the part before "|", if any), so a candidate
// already linked anywhere in the document can be dropped outright instead
// of just protecting the occurrence that happens to be linked. Without
// this, re-running Rewrite over its own output keeps finding a fresh
// plain-text occurrence to promote, adding a new link on every pass.
func existingWikilinkTargets(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, loc := range wikilinkSpan.FindAllStringIndex(text, -1) {
		inner := text[loc[0]+2 : loc[1]-2]
		target := inner
		if idx := strings.IndexByte(inner, '|'); idx >= 0 {
			target = inner[:idx]
		}
		out[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}
	return out
}

// alreadyLinked reports whether any surface form of c (its canonical name
// or an alias) matches an existing wikilink target.
func alreadyLinked(c Candidate, linked map[string]struct{}) bool {
	if _, ok := linked[strings.ToLower(c.Canonical)]; ok {
		return true
	}
	for _, s := range c.Surfaces {
		if _, ok := linked[strings.ToLower(s)]; ok {
			return true
		}
	}
	return false
}

// firstSurvivingOccurrence finds the earliest occurrence, across every
// surface form of c, that does not overlap a protected zone or an
// already-accepted substitution, and is a valid wikilink target.
func firstSurvivingOccurrence(text string, c Candidate, zones []zoneRange, accepted []Applied) (Applied, bool) {
	best := Applied{Start: -1}
	for _, surface := range c.Surfaces {
		if surface == "" {
			continue
		}
		for _, loc := range findWholeWordOccurrences(text, surface) {
			start, end := loc[0], loc[1]
			if !validWikilinkSpan(c.Canonical, text[start:end]) {
				continue
			}
			if inAnyZone(zones, start, end) {
				continue
			}
			if overlapsAccepted(accepted, start, end) {
				continue
			}
			if best.Start == -1 || start < best.Start {
				best = Applied{Canonical: c.Canonical, Surface: text[start:end], Start: start, End: end}
			}
		}
	}
	if best.Start == -1 {
		return Applied{}, false
	}
	return best, true
}

// validWikilinkSpan rejects matches that would produce a broken wikilink:
// empty name, embedded brackets, or a surface crossing a newline.
func validWikilinkSpan(canonical, surface string) bool {
	if canonical == "" || surface == "" {
		return false
	}
	if strings.ContainsAny(surface, "[]") || strings.ContainsAny(canonical, "[]") {
		return false
	}
	if strings.Contains(surface, "\n") {
		return false
	}
	return true
}

func overlapsAccepted(accepted []Applied, start, end int) bool {
	for _, a := range accepted {
		if start < a.End && end > a.Start {
			return true
		}
	}
	return false
}

// boundaryChar reports whether r counts as "word-like" for boundary
// purposes: alphanumeric, underscore, hyphen, or apostrophe, so names like
// "O'Brien" match as a single word.
func boundaryChar(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r == '_' || r == '-' || r == '\'':
		return true
	default:
		return false
	}
}

// findWholeWordOccurrences returns every [start, end) byte range where
// surface occurs in text, case-insensitively, with a non-boundaryChar (or
// text edge) immediately before and after.
func findWholeWordOccurrences(text, surface string) [][2]int {
	if surface == "" {
		return nil
	}
	pattern := "(?i)" + regexp.QuoteMeta(surface)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	var out [][2]int
	for _, loc := range re.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 {
			if r := lastRune(text[:start]); boundaryChar(r) {
				continue
			}
		}
		if end < len(text) {
			if r := firstRune(text[end:]); boundaryChar(r) {
				continue
			}
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// Package rewriter implements: turning a block of text into
// the same text with `[[EntityName]]` / `[[EntityName|alias]]` links
// substituted at the first occurrence of each matching entity mention,
// without touching code, frontmatter, existing links, URLs, HTML, headings,
// or footnotes.
package rewriter

import (
	"regexp"
	"strings"
)

// zoneRange is a half-open [Start, End) byte range that must never be
// altered or matched into.
type zoneRange struct {
	Start, End int
}

var (
	fencedCodeOpen = regexp.MustCompile("(?m)^[ \t]{0,3}(```+|~~~+)")
	inlineCodeSpan = regexp.MustCompile("`[^`\n]+`")
	wikilinkSpan   = regexp.MustCompile(`\[\[[^\]]*\]\]`)
	mdLinkSpan     = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	urlSpan        = regexp.MustCompile(`(?i)(https?://|mailto:)[^\s)\]]+`)
	htmlTagSpan    = regexp.MustCompile(`</?[a-zA-Z][^<>]*>`)
	atxHeadingLine = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t].*$`)
	setextRuleLine = regexp.MustCompile(`^(=+|-+)[ \t]*$`)
	footnoteDef    = regexp.MustCompile(`(?m)^\[\^[^\]]+\]:.*$`)
	footnoteRef    = regexp.MustCompile(`\[\^[^\]]+\]`)
)

// protectedZones computes every protected range in text: code, existing
// links, headings, rules, and footnotes are all off-limits for rewriting.
func protectedZones(text string) []zoneRange {
	var zones []zoneRange

	zones = append(zones, frontmatterZone(text)...)
	zones = append(zones, fencedCodeZones(text)...)
	zones = append(zones, patternZones(text, inlineCodeSpan)...)
	zones = append(zones, patternZones(text, wikilinkSpan)...)
	zones = append(zones, patternZones(text, mdLinkSpan)...)
	zones = append(zones, patternZones(text, urlSpan)...)
	zones = append(zones, patternZones(text, htmlTagSpan)...)
	zones = append(zones, patternZones(text, atxHeadingLine)...)
	zones = append(zones, setextHeadingZones(text)...)
	zones = append(zones, patternZones(text, footnoteDef)...)
	zones = append(zones, patternZones(text, footnoteRef)...)

	return zones
}

func patternZones(text string, re *regexp.Regexp) []zoneRange {
	var zones []zoneRange
	for _, loc := range re.FindAllStringIndex(text, -1) {
		zones = append(zones, zoneRange{Start: loc[0], End: loc[1]})
	}
	return zones
}

// frontmatterZone protects a leading "---" delimited YAML block, the same
// shape internal/scanner splits off before parsing.
func frontmatterZone(text string) []zoneRange {
	if !strings.HasPrefix(text, "---\n") && text != "---" {
		return nil
	}
	rest := text[len("---"):]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return nil
	}
	end := len("---") + idx + len("\n---")
	// extend to end of that closing delimiter's line
	if nl := strings.IndexByte(text[end:], '\n'); nl >= 0 {
		end += nl
	} else {
		end = len(text)
	}
	return []zoneRange{{Start: 0, End: end}}
}

// fencedCodeZones protects ``` / ~~~ delimited blocks, including an
// unclosed trailing fence which runs to EOF.
func fencedCodeZones(text string) []zoneRange {
	var zones []zoneRange
	opens := fencedCodeOpen.FindAllStringIndex(text, -1)
	consumed := -1
	for i := 0; i < len(opens); i++ {
		start := opens[i][0]
		if start < consumed {
			continue // nested inside a block we already protected
		}
		lineEnd := strings.IndexByte(text[opens[i][1]:], '\n')
		bodyStart := opens[i][1]
		if lineEnd >= 0 {
			bodyStart = opens[i][1] + lineEnd + 1
		} else {
			zones = append(zones, zoneRange{Start: start, End: len(text)})
			consumed = len(text)
			continue
		}
		closeIdx := -1
		for j := i + 1; j < len(opens); j++ {
			if opens[j][0] >= bodyStart {
				closeIdx = opens[j][0]
				// extend to end of that line
				if nl := strings.IndexByte(text[opens[j][1]:], '\n'); nl >= 0 {
					closeIdx = opens[j][1] + nl
				} else {
					closeIdx = len(text)
				}
				consumed = closeIdx
				i = j
				break
			}
		}
		if closeIdx < 0 {
			zones = append(zones, zoneRange{Start: start, End: len(text)})
			consumed = len(text)
			continue
		}
		zones = append(zones, zoneRange{Start: start, End: closeIdx})
	}
	return zones
}

// setextHeadingZones protects a text line immediately followed by a line of
// all "=" or all "-" (an underline-style heading), including the underline
// itself.
func setextHeadingZones(text string) []zoneRange {
	lines := strings.Split(text, "\n")
	offsets := make([]int, len(lines)+1)
	pos := 0
	for i, l := range lines {
		offsets[i] = pos
		pos += len(l) + 1
	}
	offsets[len(lines)] = pos

	var zones []zoneRange
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i-1]) == "" {
			continue
		}
		if setextRuleLine.MatchString(lines[i]) {
			start := offsets[i-1]
			end := offsets[i] + len(lines[i])
			zones = append(zones, zoneRange{Start: start, End: end})
		}
	}
	return zones
}

func inAnyZone(zones []zoneRange, start, end int) bool {
	for _, z := range zones {
		if start < z.End && end > z.Start {
			return true
		}
	}
	return false
}

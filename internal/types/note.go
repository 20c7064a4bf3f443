// Package types defines the shared value types used across the vault
// index, entity index, rewriter, scoring, and pipeline packages.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Outlink is a single wikilink occurrence inside a note's body.
type Outlink struct {
	Target       string // raw target as written, before entity resolution
	DisplayAlias string // text after "|", empty if none
	LineNumber   int    // 1-based line the link occurs on
}

// Note is one parsed Markdown file.
type Note struct {
	Path        string // vault-relative, forward-slash, ends in ".md"
	Title       string // filename without ".md"
	Aliases     []string
	Frontmatter map[string]any
	Body        string // content with frontmatter stripped
	Outlinks    []Outlink
	Tags        map[string]struct{}
	Modified    time.Time
	Created     time.Time // zero value if unknown
	SkipLinking bool      // frontmatter skipWikilinks: true
}

// Validate checks the Note invariants hold.
func (n *Note) Validate(lineCount int) error {
	if !strings.HasSuffix(n.Path, ".md") {
		return fmt.Errorf("note %q: path must end with .md", n.Path)
	}
	if n.Title == "" {
		return fmt.Errorf("note %q: title must be non-empty", n.Path)
	}
	for _, a := range n.Aliases {
		if strings.Contains(a, "[[") || strings.Contains(a, "]]") {
			return fmt.Errorf("note %q: alias %q contains wikilink brackets", n.Path, a)
		}
	}
	for _, ol := range n.Outlinks {
		if ol.LineNumber < 1 || ol.LineNumber > lineCount {
			return fmt.Errorf("note %q: outlink to %q has out-of-range line %d (file has %d lines)",
				n.Path, ol.Target, ol.LineNumber, lineCount)
		}
	}
	return nil
}

// TagList returns the note's tags as a sorted-free slice (callers sort if needed).
func (n *Note) TagList() []string {
	out := make([]string, 0, len(n.Tags))
	for t := range n.Tags {
		out = append(out, t)
	}
	return out
}

// NormalizeTarget lowercases and strips a ".md" suffix for entity_map /
// backlink lookups. Every package that keys a map by note or entity name
// normalizes through this one function so key shapes stay consistent.
func NormalizeTarget(target string) string {
	t := strings.TrimSuffix(target, ".md")
	return strings.ToLower(t)
}

// FolderOf returns the first path segment of a vault-relative path, used
// by Layer 4 (folder context) and Layer 6 (cross-folder) of the scoring
// engine, and by folder-scoped suppression.
func FolderOf(path string) string {
	path = strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx]
	}
	return ""
}

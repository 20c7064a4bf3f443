// Package scanner enumerates Markdown files under a vault root, parses
// frontmatter/outlinks/tags, and skips binary or oversized files without
// aborting the batch.
package scanner

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/flywheel-memory/flywheel/internal/types"
)

// SkipReason explains why a file produced no Note.
type SkipReason struct {
	Path   string
	Reason string
}

// Result is the outcome of scanning one file.
type Result struct {
	Note *types.Note
	Skip *SkipReason
	Warn string // non-fatal warning, e.g. malformed frontmatter
}

const maxFileSize = 10 * 1024 * 1024

var defaultExcludedDirs = map[string]struct{}{
	".git":         {},
	".flywheel":    {},
	"node_modules": {},
	"attachments":  {},
	"templates":    {},
}

// Walk enumerates all ".md" files under root, excluding hidden directories
// and the names in excludedDirs (merged with a fixed default set).
func Walk(root string, excludedDirs []string) ([]string, error) {
	excluded := map[string]struct{}{}
	for k := range defaultExcludedDirs {
		excluded[k] = struct{}{}
	}
	for _, d := range excludedDirs {
		excluded[d] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // transient I/O errors never abort the walk
		}
		name := d.Name()
		if d.IsDir() {
			if name != "." && (strings.HasPrefix(name, ".") || inSet(excluded, name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".md") {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	return files, err
}

func inSet(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

// ScanFile reads and parses one vault-relative path rooted at root. It
// never returns a fatal error for per-file problems — those come back as
// Result.Skip or Result.Warn, so one bad file never aborts the batch.
func ScanFile(root, relPath string) Result {
	full := filepath.Join(root, filepath.FromSlash(relPath))

	info, err := os.Stat(full)
	if err != nil {
		return Result{Skip: &SkipReason{Path: relPath, Reason: fmt.Sprintf("stat failed: %v", err)}}
	}
	if info.Size() > maxFileSize {
		return Result{Skip: &SkipReason{Path: relPath, Reason: "file exceeds 10MB limit"}}
	}

	data, err := os.ReadFile(full) // #nosec G304 - relPath is vault-relative, joined against a fixed root
	if err != nil {
		return Result{Skip: &SkipReason{Path: relPath, Reason: fmt.Sprintf("read failed: %v", err)}}
	}
	if looksBinary(data) {
		return Result{Skip: &SkipReason{Path: relPath, Reason: "binary content detected"}}
	}
	if !utf8.Valid(data) {
		return Result{Skip: &SkipReason{Path: relPath, Reason: "not valid UTF-8"}}
	}

	note := &types.Note{
		Path:     relPath,
		Title:    strings.TrimSuffix(filepath.Base(relPath), ".md"),
		Modified: info.ModTime(),
		Tags:     make(map[string]struct{}),
	}

	body, fm, warn := splitFrontmatter(data)
	if fm != nil {
		note.Frontmatter = fm
		applyFrontmatter(note, fm)
	}

	lineCount := bytes.Count(body, []byte("\n")) + 1
	note.Body = string(body)
	note.Outlinks = ExtractWikilinks(note.Body)
	mergeInlineTags(note, note.Body)

	if err := note.Validate(lineCount); err != nil {
		return Result{Skip: &SkipReason{Path: relPath, Reason: err.Error()}}
	}

	return Result{Note: note, Warn: warn}
}

// looksBinary flags a file as binary on a null byte or >10% non-printable
// bytes in the first 1KB.
func looksBinary(data []byte) bool {
	n := len(data)
	if n > 1024 {
		n = 1024
	}
	sample := data[:n]
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	if n == 0 {
		return false
	}
	nonPrintable := 0
	for _, b := range sample {
		if b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		if b < 0x20 || b == 0x7f {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(n) > 0.10
}

// splitFrontmatter extracts a leading "---" delimited YAML block. On
// malformed frontmatter it returns the whole input as body and a warning.
func splitFrontmatter(data []byte) (body []byte, fm map[string]any, warn string) {
	const delim = "---"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return data, nil, ""
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	var firstLine bool
	var yamlBuf bytes.Buffer
	var bodyBuf bytes.Buffer
	closed := false
	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++
		if lineNo == 1 {
			firstLine = strings.TrimSpace(line) == delim
			if !firstLine {
				return data, nil, ""
			}
			continue
		}
		if !closed {
			if strings.TrimSpace(line) == delim {
				closed = true
				continue
			}
			yamlBuf.WriteString(line)
			yamlBuf.WriteByte('\n')
			continue
		}
		bodyBuf.WriteString(line)
		bodyBuf.WriteByte('\n')
	}
	if !closed {
		return data, nil, "frontmatter opening delimiter found but no closing delimiter"
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &parsed); err != nil {
		return data, nil, fmt.Sprintf("malformed frontmatter: %v", err)
	}
	return bodyBuf.Bytes(), parsed, ""
}

// applyFrontmatter extracts aliases, tags, type, created, and
// skipWikilinks from a parsed frontmatter map.
func applyFrontmatter(note *types.Note, fm map[string]any) {
	note.Aliases = stringOrList(fm["aliases"])
	if len(note.Aliases) == 0 {
		note.Aliases = stringOrList(fm["alias"])
	}
	for _, t := range stringOrList(fm["tags"]) {
		note.Tags[normalizeTag(t)] = struct{}{}
	}
	if skip, ok := fm["skipWikilinks"].(bool); ok {
		note.SkipLinking = skip
	}
	if created, ok := fm["created"].(string); ok {
		if t, err := time.Parse("2006-01-02", created); err == nil {
			note.Created = t
		} else if t, err := time.Parse(time.RFC3339, created); err == nil {
			note.Created = t
		}
	}
}

func stringOrList(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	default:
		return nil
	}
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimPrefix(t, "#"))
}

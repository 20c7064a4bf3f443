// Package pipeline implements file-watch event ingestion, per-path
// debouncing, rename detection, the batch processor, and watcher
// self-heal.
package pipeline

import (
	"path/filepath"
	"strings"
)

// defaultSkipDirs lists directory names the path filter rejects outright,
// mirroring internal/scanner's excluded-directory handling.
var defaultSkipDirs = map[string]struct{}{
	".git": {}, ".flywheel": {}, "attachments": {}, "templates": {}, "node_modules": {},
}

// PathFilter decides whether a raw watcher event is worth carrying into the
// debouncer at all.
type PathFilter struct {
	skipDirs map[string]struct{}
}

// NewPathFilter returns a filter using defaultSkipDirs plus any
// vault-configured excluded directories.
func NewPathFilter(extraExcluded []string) *PathFilter {
	skip := make(map[string]struct{}, len(defaultSkipDirs)+len(extraExcluded))
	for d := range defaultSkipDirs {
		skip[d] = struct{}{}
	}
	for _, d := range extraExcluded {
		skip[strings.ToLower(d)] = struct{}{}
	}
	return &PathFilter{skipDirs: skip}
}

// Accept reports whether relPath should be carried forward.
func (f *PathFilter) Accept(relPath string) bool {
	if !strings.HasSuffix(relPath, ".md") {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(relPath), "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ".") {
			return false
		}
		if _, skip := f.skipDirs[strings.ToLower(seg)]; skip {
			return false
		}
	}
	return true
}

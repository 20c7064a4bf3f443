package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flywheel-memory/flywheel/internal/config"
	"github.com/flywheel-memory/flywheel/internal/diagnostics"
)

// resolveVaultRoot returns the --vault flag value if set, otherwise
// discovers the vault root by walking up from the current directory.
func resolveVaultRoot() (string, error) {
	if vaultFlag != "" {
		return vaultFlag, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return config.DiscoverVaultRoot(cwd), nil
}

// resolveNotePath validates relPath as a vault-relative note path and joins
// it against root, rejecting anything that could escape the vault:
// absolute paths, ".." segments that survive Clean, and any
// post-Clean result that isn't lexically inside root.
func resolveNotePath(root, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", &diagnostics.DiagnosticError{
			Op:          "validate_path",
			Message:     fmt.Sprintf("note path %q must be vault-relative, not absolute", relPath),
			Suggestions: []string{"pass a path relative to the vault root"},
		}
	}

	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", &diagnostics.DiagnosticError{
			Op:          "validate_path",
			Message:     fmt.Sprintf("note path %q escapes the vault root", relPath),
			Suggestions: []string{"remove \"..\" segments from the path"},
		}
	}

	cleanRoot := filepath.Clean(root)
	full := filepath.Join(cleanRoot, cleaned)
	rootWithSep := cleanRoot + string(filepath.Separator)
	if full != cleanRoot && !strings.HasPrefix(full, rootWithSep) {
		return "", &diagnostics.DiagnosticError{
			Op:          "validate_path",
			Message:     fmt.Sprintf("note path %q escapes the vault root", relPath),
			Suggestions: []string{"remove \"..\" segments from the path"},
		}
	}

	return full, nil
}

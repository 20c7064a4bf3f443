package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flywheel-memory/flywheel/internal/daemon"
	"github.com/flywheel-memory/flywheel/internal/diagnostics"
	"github.com/flywheel-memory/flywheel/internal/entityindex"
	"github.com/flywheel-memory/flywheel/internal/labelguard"
	"github.com/flywheel-memory/flywheel/internal/rewriter"
)

var rewriteDryRun bool

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <note-path>",
	Short: "Substitute [[wikilinks]] for known entity mentions in one note",
	Args:  cobra.ExactArgs(1),
	RunE:  runRewrite,
}

func init() {
	rewriteCmd.Flags().BoolVar(&rewriteDryRun, "dry-run", false, "print the rewritten content instead of writing it back")
	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	root, err := resolveVaultRoot()
	if err != nil {
		return err
	}
	relPath := args[0]
	ctx := context.Background()

	fullPath, err := resolveNotePath(root, relPath)
	if err != nil {
		return err
	}

	core, err := daemon.Bootstrap(ctx, root)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() { _ = core.Close() }()

	original, err := os.ReadFile(fullPath) // #nosec G304 - resolveNotePath rejects absolute paths and ".." escapes
	if err != nil {
		return fmt.Errorf("read %s: %w", relPath, err)
	}

	lease := core.Guard.Acquire(relPath, entityindex.ContentHash(string(original)))

	candidates := rewriter.BuildCandidates(core.EntityTracker.Snapshot())
	rewritten, applied := rewriter.Rewrite(string(original), candidates, relPath)

	if len(applied) == 0 {
		lease.Abort()
		color.Yellow("no new links found in %s", relPath)
		return nil
	}

	if rewriteDryRun {
		lease.Abort()
		fmt.Println(rewritten)
		return nil
	}

	current, err := os.ReadFile(fullPath) // #nosec G304 - same validated path as the first read
	if err != nil {
		lease.Abort()
		return fmt.Errorf("re-read %s: %w", relPath, err)
	}
	if err := lease.Commit(entityindex.ContentHash(string(current))); err != nil {
		if errors.Is(err, labelguard.ErrWriteConflict) {
			return &diagnostics.DiagnosticError{
				Op:      "rewrite",
				Message: fmt.Sprintf("%s changed on disk between read and write", relPath),
				Suggestions: []string{
					"re-run `flywheelctl score` or `rewrite` to re-read the current content",
				},
			}
		}
		return fmt.Errorf("rewrite %s: %w", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(rewritten), 0o644); err != nil { // #nosec G306 - vault notes are plain user-owned files
		return fmt.Errorf("write %s: %w", relPath, err)
	}

	color.Green("applied %d link(s) in %s", len(applied), relPath)
	for _, a := range applied {
		fmt.Printf("  %s -> [[%s]]\n", a.Surface, a.Canonical)
	}
	return nil
}

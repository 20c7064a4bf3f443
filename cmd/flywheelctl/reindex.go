package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/flywheel-memory/flywheel/internal/config"
	"github.com/flywheel-memory/flywheel/internal/daemon"
	"github.com/flywheel-memory/flywheel/internal/scanner"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-bootstrap the vault index, entity index, and embeddings (a still-valid index cache is reused)",
	RunE:  runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	root, err := resolveVaultRoot()
	if err != nil {
		return err
	}
	ctx := context.Background()

	cfg := config.Load(root)
	files, err := scanner.Walk(root, cfg.ExcludedDirs)
	if err != nil {
		return fmt.Errorf("walk vault: %w", err)
	}

	bar := progressbar.Default(int64(len(files)), "rebuilding index")
	core, err := daemon.Bootstrap(ctx, root)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() { _ = core.Close() }()
	_ = bar.Set(len(files))
	_ = bar.Finish()

	idx, _, _ := core.VaultTracker.Snapshot()
	entities := core.EntityTracker.Snapshot()
	color.Green("reindexed: %d notes, %d entities", len(idx.Notes), len(entities))
	return nil
}

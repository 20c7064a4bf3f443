package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flywheel-memory/flywheel/internal/config"
	"github.com/flywheel-memory/flywheel/internal/daemon"
	"github.com/flywheel-memory/flywheel/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the vault index and watch for changes",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := vaultFlag
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getwd: %w", err)
		}
		root = config.DiscoverVaultRoot(cwd)
	}

	color.Cyan("flywheeld: bootstrapping vault at %s", root)
	core, err := daemon.Bootstrap(ctx, root)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() {
		if err := core.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "flywheeld: close: %v\n", err)
		}
	}()

	idx, progress, ready := core.VaultTracker.Snapshot()
	if ready {
		color.Green("flywheeld: index ready, %d notes, %d entities", len(idx.Notes), len(core.EntityTracker.Snapshot()))
	} else {
		color.Yellow("flywheeld: index not ready (%d/%d)", progress.Parsed, progress.Total)
	}

	watcher, err := pipeline.NewWatcher(root, core.Config, core.Processor, core.VaultTracker)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	color.Cyan("flywheeld: watching for changes (ctrl-c to stop)")
	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watcher: %w", err)
	}

	color.Cyan("flywheeld: shutting down")
	return nil
}

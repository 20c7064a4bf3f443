package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flywheel-memory/flywheel/internal/daemon"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Build the vault index and report its size and recent batch history",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := resolveVaultRoot()
	if err != nil {
		return err
	}

	ctx := context.Background()
	core, err := daemon.Bootstrap(ctx, root)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() { _ = core.Close() }()

	idx, progress, ready := core.VaultTracker.Snapshot()
	entities := core.EntityTracker.Snapshot()

	color.Cyan("vault: %s", root)
	if !ready {
		color.Yellow("index: building (%d/%d)", progress.Parsed, progress.Total)
		return nil
	}
	fmt.Printf("index:    %d notes, %d entities\n", len(idx.Notes), len(entities))
	fmt.Printf("built at: %s\n", idx.BuiltAt.Format("2006-01-02 15:04:05"))

	steps, err := core.Store.RecentSteps(ctx, 15)
	if err != nil {
		return fmt.Errorf("recent steps: %w", err)
	}
	if len(steps) == 0 {
		fmt.Println("no batches recorded yet")
		return nil
	}
	fmt.Println("recent pipeline steps:")
	for _, s := range steps {
		line := fmt.Sprintf("  %-28s %6dms  %s", s.StepName, s.DurationMS, s.Outcome)
		switch s.Outcome {
		case "error":
			color.Red(line)
		default:
			fmt.Println(line)
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flywheel-memory/flywheel/internal/daemon"
	"github.com/flywheel-memory/flywheel/internal/scanner"
	"github.com/flywheel-memory/flywheel/internal/scoring"
	"github.com/flywheel-memory/flywheel/internal/types"
)

var scoreStrictness string
var scoreMax int

var scoreCmd = &cobra.Command{
	Use:   "score <note-path>",
	Short: "Rank link suggestions for one note without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreStrictness, "strictness", "balanced", "conservative, balanced, or aggressive")
	scoreCmd.Flags().IntVar(&scoreMax, "max", 3, "maximum suggestions to print")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
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

	content, err := os.ReadFile(fullPath) // #nosec G304 - resolveNotePath rejects absolute paths and ".." escapes
	if err != nil {
		return fmt.Errorf("read %s: %w", relPath, err)
	}

	candidates, err := core.Candidates(ctx)
	if err != nil {
		return fmt.Errorf("assemble candidates: %w", err)
	}

	alreadyLinked := alreadyLinkedSet(string(content))

	in := scoring.Input{
		Content:        string(content),
		HostPath:       relPath,
		AlreadyLinked:  alreadyLinked,
		MaxSuggestions: scoreMax,
		Strictness:     types.Strictness(scoreStrictness),
		Cooccurring:    core.CooccurringFunc(ctx, alreadyLinked),
		Embed:          func(text string) ([]float32, error) { return core.EmbedCache.Embed(ctx, text) },
		Now:            time.Now(),
	}

	results := scoring.Score(in, candidates)
	if len(results) == 0 {
		color.Yellow("no suggestions for %s", relPath)
		return nil
	}

	color.Cyan("suggestions for %s:", relPath)
	for _, r := range results {
		fmt.Printf("  %-24s %6.1f  %s\n", r.Name, r.Score, r.Path)
	}
	return nil
}

// alreadyLinkedSet extracts every `[[Name]]` or `[[Name|surface]]` target
// already present in content, lowercased, so the scoring engine never
// re-suggests an existing link.
func alreadyLinkedSet(content string) map[string]struct{} {
	links := scanner.ExtractWikilinks(content)
	out := make(map[string]struct{}, len(links))
	for _, l := range links {
		out[types.NormalizeTarget(l.Target)] = struct{}{}
	}
	return out
}

package daemon

import (
	"context"
	"fmt"

	"github.com/flywheel-memory/flywheel/internal/scoring"
	"github.com/flywheel-memory/flywheel/internal/types"
)

// Candidates assembles the full scoring.Candidate set for the current
// entity snapshot, enriching each entity with the persisted recency,
// embedding, accuracy, edge-weight, and suppression signals the 12-layer
// engine needs.
func (c *Core) Candidates(ctx context.Context) ([]scoring.Candidate, error) {
	entities := c.EntityTracker.Snapshot()

	recency, err := c.Store.AllRecency(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recency: %w", err)
	}
	embeddings, err := c.Store.AllEntityEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entity embeddings: %w", err)
	}
	suppressions, err := c.Store.ListSuppressions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load suppressions: %w", err)
	}

	out := make([]scoring.Candidate, 0, len(entities))
	for _, e := range entities {
		accGlobal, err := c.Store.Accuracy(ctx, e.NameLower)
		if err != nil {
			return nil, fmt.Errorf("accuracy for %q: %w", e.NameLower, err)
		}
		edgeAvg, err := c.Store.AverageEdgeWeight(ctx, e.NameLower)
		if err != nil {
			return nil, fmt.Errorf("edge weight for %q: %w", e.NameLower, err)
		}

		cand := scoring.Candidate{
			Name:          e.Name,
			NameLower:     e.NameLower,
			Path:          e.Path,
			Category:      e.Category,
			Aliases:       e.Aliases,
			FolderOf:      types.FolderOf(e.Path),
			HubScore:      e.HubScore,
			LastMentioned: recency[e.NameLower],
			Embedding:     embeddings[e.NameLower],
			EdgeAvgWeight: edgeAvg,
			Accuracy:      scoring.Accuracy{Value: accGlobal.Accuracy, Samples: accGlobal.Samples},
		}

		for _, folder := range suppressions[e.NameLower] {
			if folder == "" {
				cand.Suppressed = true
				continue
			}
			if cand.SuppressedIn == nil {
				cand.SuppressedIn = make(map[string]struct{})
			}
			cand.SuppressedIn[folder] = struct{}{}
		}

		out = append(out, cand)
	}
	return out, nil
}

// CooccurringFunc returns a scoring.Input.Cooccurring closure that counts,
// for a given candidate, how many of alreadyLinked's entities co-occur
// with it in the persisted cooccurrence table.
func (c *Core) CooccurringFunc(ctx context.Context, alreadyLinked map[string]struct{}) func(nameLower string) int {
	return func(nameLower string) int {
		counts, err := c.Store.CooccurringWith(ctx, nameLower)
		if err != nil {
			return 0
		}
		total := 0
		for linked := range alreadyLinked {
			if counts[linked] > 0 {
				total++
			}
		}
		return total
	}
}

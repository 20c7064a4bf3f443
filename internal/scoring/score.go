package scoring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/flywheel-memory/flywheel/internal/types"
)

var wordPattern = regexp.MustCompile(`[A-Za-z0-9']+`)

func tokenize(content string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(content, -1) {
		out[strings.ToLower(w)] = struct{}{}
	}
	return out
}

// adaptiveThreshold computes the effective minimum score, scaling down for
// very short notes and up for long ones.
func adaptiveThreshold(base float64, contentLen int) float64 {
	switch {
	case contentLen < 50:
		t := base * 0.6
		if t < 5 {
			t = 5
		}
		return floorTo(t)
	case contentLen <= 200:
		return base
	default:
		return floorTo(base * 1.2)
	}
}

func floorTo(v float64) float64 {
	return float64(int64(v))
}

// Score runs all 12 layers over candidates and returns the top
// in.MaxSuggestions results.
func Score(in Input, candidates []Candidate) []Result {
	profile := ProfileFor(in.Strictness)
	hostFolder := types.FolderOf(in.HostPath)
	contentWords := tokenize(in.Content)
	threshold := adaptiveThreshold(profile.MinTotalScore, len(in.Content))

	var contentEmbedding []float32
	skipSemantic := len(in.Content) < 20
	if !skipSemantic && in.Embed != nil {
		if vec, err := in.Embed(in.Content); err == nil {
			contentEmbedding = vec
		}
		// A semantic failure degrades silently to the remaining layers;
		// contentEmbedding stays nil.
	}

	already := in.AlreadyLinked
	if already == nil {
		already = map[string]struct{}{}
	}

	type scored struct {
		c Candidate
		b Breakdown
	}
	var primary []scored
	var semanticOnly []scored

	for _, c := range candidates {
		if !Eligible(c, hostFolder, already) {
			continue
		}

		b := Breakdown{
			ContentMatch:  layerContentMatch(c, contentWords, profile, in.Strictness),
			Cooccurrence:  layerCooccurrence(c, contentWords, in.Cooccurring),
			TypeBoost:     layerTypeBoost(c),
			FolderContext: layerFolderContext(c, hostFolder),
			Recency:       layerRecency(c, in.Now),
			CrossFolder:   layerCrossFolder(c, hostFolder),
			Hub:           layerHub(c),
			Feedback:      layerFeedback(c),
			EdgeWeight:    layerEdgeWeight(c),
		}
		if contentEmbedding != nil {
			b.Semantic = layerSemantic(c, contentEmbedding, profile.SemanticMultiplier)
		}

		if b.ContentMatch > 0 {
			primary = append(primary, scored{c, b})
			continue
		}
		// Zero content match: only eligible for the scored set on semantic
		// grounds, and only when some other structural layer also fired.
		if b.Semantic > 0 && (b.TypeBoost > 0 || b.FolderContext > 0 || b.Hub > 0) {
			semanticOnly = append(semanticOnly, scored{c, b})
		}
	}

	maxExtras := 3 * in.MaxSuggestions
	if len(semanticOnly) > maxExtras {
		sort.Slice(semanticOnly, func(i, j int) bool {
			return semanticOnly[i].b.Total() > semanticOnly[j].b.Total()
		})
		semanticOnly = semanticOnly[:maxExtras]
	}

	all := append(primary, semanticOnly...)

	var results []Result
	for _, s := range all {
		total := s.b.Total()
		if total < threshold {
			continue
		}
		results = append(results, Result{Name: s.c.Name, Path: s.c.Path, Score: total, Breakdown: s.b})
	}

	byName := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byName[c.Name] = c
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		ci, cj := byName[results[i].Name], byName[results[j].Name]
		if !ci.LastMentioned.Equal(cj.LastMentioned) {
			return ci.LastMentioned.After(cj.LastMentioned)
		}
		return strings.ToLower(results[i].Name) < strings.ToLower(results[j].Name)
	})

	k := in.MaxSuggestions
	if k <= 0 {
		k = 3
	}
	if len(results) > k {
		results = results[:k]
	}
	return results
}

package scoring

import (
	"strings"
	"time"

	"github.com/flywheel-memory/flywheel/internal/embedcache"
	"github.com/flywheel-memory/flywheel/internal/types"
)

// typeBoostTable is Layer 3's fixed per-category boost.
var typeBoostTable = map[types.Category]float64{
	types.CategoryPeople:        5,
	types.CategoryProjects:      3,
	types.CategoryOrganizations: 2,
	types.CategoryLocations:     1,
	types.CategoryConcepts:      1,
	types.CategoryTechnologies:  0,
	types.CategoryAcronyms:      0,
}

func layerTypeBoost(c Candidate) float64 {
	return typeBoostTable[c.Category]
}

// folderContextRules is Layer 4's host-folder -> category boosts.
var folderContextRules = []struct {
	folders map[string]struct{}
	boosts  map[types.Category]float64
}{
	{
		folders: set("daily-notes", "journal", "logs"),
		boosts:  map[types.Category]float64{types.CategoryPeople: 5, types.CategoryProjects: 2},
	},
	{
		folders: set("projects", "systems"),
		boosts:  map[types.Category]float64{types.CategoryProjects: 5, types.CategoryTechnologies: 2},
	},
	{
		folders: set("tech", "code", "engineering", "docs"),
		boosts:  map[types.Category]float64{types.CategoryTechnologies: 5, types.CategoryAcronyms: 3},
	},
}

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

func layerFolderContext(c Candidate, hostFolder string) float64 {
	hostFolder = strings.ToLower(hostFolder)
	for _, rule := range folderContextRules {
		if _, ok := rule.folders[hostFolder]; ok {
			return rule.boosts[c.Category]
		}
	}
	return 0
}

func layerRecency(c Candidate, now time.Time) float64 {
	if c.LastMentioned.IsZero() {
		return 0
	}
	age := now.Sub(c.LastMentioned)
	switch {
	case age <= time.Hour:
		return 8
	case age <= 24*time.Hour:
		return 5
	case age <= 3*24*time.Hour:
		return 3
	case age <= 7*24*time.Hour:
		return 1
	default:
		return 0
	}
}

func layerCrossFolder(c Candidate, hostFolder string) float64 {
	if c.FolderOf != "" && hostFolder != "" && c.FolderOf != hostFolder {
		return 3
	}
	return 0
}

func layerHub(c Candidate) float64 {
	switch {
	case c.HubScore >= 100:
		return 8
	case c.HubScore >= 50:
		return 5
	case c.HubScore >= 20:
		return 3
	case c.HubScore >= 5:
		return 1
	default:
		return 0
	}
}

// layerFeedback is Layer 8: persistent accuracy stats, folder-aware,
// with the fixed thresholds
func layerFeedback(c Candidate) float64 {
	a := c.Accuracy
	switch {
	case a.Samples < 5:
		return 0
	case a.Value >= 0.95 && a.Samples >= 20:
		return 5
	case a.Value >= 0.80:
		return 2
	case a.Value >= 0.60:
		return 0
	case a.Value >= 0.40:
		return -2
	default:
		return -4
	}
}

// layerEdgeWeight is Layer 10: min((avg_weight-1)*2, 4), zero if never
// linked.
func layerEdgeWeight(c Candidate) float64 {
	if c.EdgeAvgWeight == 0 {
		return 0
	}
	v := (c.EdgeAvgWeight - 1) * 2
	if v > 4 {
		v = 4
	}
	if v < 0 {
		v = 0
	}
	return v
}

// layerCooccurrence is Layer 2: +3 per qualifying co-occurring entity
// mentioned in content, capped at +6, then scaled by recency.
func layerCooccurrence(c Candidate, contentWords map[string]struct{}, cooccurring func(string) int) float64 {
	if cooccurring == nil {
		return 0
	}
	if !sharesWord(c.Name, contentWords) {
		return 0
	}
	n := cooccurring(c.NameLower)
	if n <= 0 {
		return 0
	}
	base := float64(n) * 3
	if base > 6 {
		base = 6
	}
	if !c.LastMentioned.IsZero() {
		base *= 1.5
	} else {
		base *= 0.5
	}
	return base
}

func sharesWord(name string, contentWords map[string]struct{}) bool {
	for _, w := range strings.Fields(name) {
		if _, ok := contentWords[strings.ToLower(w)]; ok {
			return true
		}
	}
	return false
}

// layerSemantic is Layer 9: cosine(content_embedding, candidate_embedding)
// scaled, gated on a 0.30 similarity floor and a 20-character content
// minimum.
func layerSemantic(c Candidate, contentEmbedding []float32, multiplier float64) float64 {
	if contentEmbedding == nil || c.Embedding == nil {
		return 0
	}
	sim := embedcache.Cosine(contentEmbedding, c.Embedding)
	if sim < 0.30 {
		return 0
	}
	v := sim * 12 * multiplier
	if v > 12 {
		v = 12
	}
	return v
}

// layerContentMatch is Layer 1. It returns the content-match score; for a
// multi-word candidate that fails the word-match ratio gate (or the
// multiple-words requirement) the score is 0.
func layerContentMatch(c Candidate, contentWords map[string]struct{}, profile Profile, strictness types.Strictness) float64 {
	words := strings.Fields(c.Name)
	if len(words) == 0 {
		return 0
	}

	if len(words) == 1 {
		return layerContentMatchSingleWord(c, words[0], contentWords, profile, strictness)
	}

	matched := 0
	score := 0.0
	for _, w := range words {
		wl := strings.ToLower(w)
		if _, ok := contentWords[wl]; ok {
			score += profile.ExactWordBonus
			matched++
			continue
		}
		if stemMatches(wl, contentWords) {
			score += profile.StemOnlyBonus
			matched++
		}
	}
	ratio := float64(matched) / float64(len(words))
	if ratio < profile.MinWordMatchRatio {
		return 0
	}
	if profile.RequireMultipleWords && matched < 2 {
		return 0
	}
	return score
}

func layerContentMatchSingleWord(c Candidate, word string, contentWords map[string]struct{}, profile Profile, strictness types.Strictness) float64 {
	wl := strings.ToLower(word)
	if _, ok := contentWords[wl]; ok {
		return aliasBonus(c, contentWords) + profile.ExactWordBonus
	}
	if strictness == types.StrictnessConservative {
		// Under conservative strictness, stem-only matches are not allowed
		// for single-word candidates.
		return aliasBonus(c, contentWords)
	}
	if stemMatches(wl, contentWords) {
		return aliasBonus(c, contentWords) + profile.StemOnlyBonus
	}
	return aliasBonus(c, contentWords)
}

// aliasBonus adds +8 when a single-word alias of length >=4 is present in
// the content verbatim.
func aliasBonus(c Candidate, contentWords map[string]struct{}) float64 {
	for _, a := range c.Aliases {
		if len(strings.Fields(a)) != 1 || len(a) < 4 {
			continue
		}
		if _, ok := contentWords[strings.ToLower(a)]; ok {
			return 8
		}
	}
	return 0
}

func stemMatches(word string, contentWords map[string]struct{}) bool {
	target := Stem(word)
	for w := range contentWords {
		if Stem(w) == target {
			return true
		}
	}
	return false
}

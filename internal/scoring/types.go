// Package scoring implements the 12-layer suggestion engine: content, host
// note, and the entity index go in; a ranked top-K list of candidate
// links comes out.
package scoring

import (
	"time"

	"github.com/flywheel-memory/flywheel/internal/types"
)

// Profile is a strictness tier's tunable thresholds.
type Profile struct {
	MinTotalScore        float64
	MinWordMatchRatio    float64
	RequireMultipleWords bool
	StemOnlyBonus        float64
	ExactWordBonus       float64
	SemanticMultiplier   float64
}

var profiles = map[types.Strictness]Profile{
	types.StrictnessConservative: {
		MinTotalScore: 15, MinWordMatchRatio: 0.6, RequireMultipleWords: true,
		StemOnlyBonus: 3, ExactWordBonus: 10, SemanticMultiplier: 0.6,
	},
	types.StrictnessBalanced: {
		MinTotalScore: 8, MinWordMatchRatio: 0.4, RequireMultipleWords: false,
		StemOnlyBonus: 5, ExactWordBonus: 10, SemanticMultiplier: 1.0,
	},
	types.StrictnessAggressive: {
		MinTotalScore: 5, MinWordMatchRatio: 0.3, RequireMultipleWords: false,
		StemOnlyBonus: 6, ExactWordBonus: 10, SemanticMultiplier: 1.3,
	},
}

// ProfileFor returns the tuning table for s, defaulting to balanced for an
// unrecognized value.
func ProfileFor(s types.Strictness) Profile {
	if p, ok := profiles[s]; ok {
		return p
	}
	return profiles[types.StrictnessBalanced]
}

// Candidate is everything the scoring engine needs about one entity to run
// all 12 layers, assembled by the caller (the pipeline or a query path)
// from the entity index, state store, and embedding cache.
type Candidate struct {
	Name          string
	NameLower     string
	Path          string
	Category      types.Category
	Aliases       []string
	FolderOf      string // first path segment of the backing note
	HubScore      int
	LastMentioned time.Time // zero value if never mentioned
	Embedding     []float32
	EdgeAvgWeight float64 // average per-link weight, 0 if never linked
	Suppressed    bool
	SuppressedIn  map[string]struct{} // folder-scoped suppressions

	// Accuracy is the persisted feedback signal for this entity, folder-aware.
	// Callers pass the folder-scoped stats when available, falling back to
	// global.
	Accuracy Accuracy
}

// Accuracy is the feedback-loop signal Layer 8.
type Accuracy struct {
	Value   float64
	Samples int
}

// Input bundles the per-call context "Inputs" defines.
type Input struct {
	Content        string
	HostPath       string
	AlreadyLinked  map[string]struct{} // name_lower set
	MaxSuggestions int
	Strictness     types.Strictness

	// Cooccurring maps a candidate's name_lower to the number of entities
	// already linked in the content that co-occur with it (Layer 2 support
	// data), supplied by the caller from the cooccurrence table.
	Cooccurring func(nameLower string) int

	// Embed embeds content for Layer 9; nil disables semantic scoring.
	Embed func(content string) ([]float32, error)

	Now time.Time
}

// Breakdown is the per-layer score contribution for one candidate, kept
// around for a "detail mode" that lets callers inspect why a suggestion
// ranked where it did.
type Breakdown struct {
	ContentMatch  float64
	Cooccurrence  float64
	TypeBoost     float64
	FolderContext float64
	Recency       float64
	CrossFolder   float64
	Hub           float64
	Feedback      float64
	Semantic      float64
	EdgeWeight    float64
}

func (b Breakdown) Total() float64 {
	return b.ContentMatch + b.Cooccurrence + b.TypeBoost + b.FolderContext +
		b.Recency + b.CrossFolder + b.Hub + b.Feedback + b.Semantic + b.EdgeWeight
}

// Result is one ranked suggestion.
type Result struct {
	Name      string
	Path      string
	Score     float64
	Breakdown Breakdown
}

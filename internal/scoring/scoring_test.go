package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flywheel-memory/flywheel/internal/types"
)

func TestEligibleFiltersGenericAndSuppressed(t *testing.T) {
	assert.False(t, Eligible(Candidate{Name: "Message"}, "", nil))
	assert.False(t, Eligible(Candidate{Name: "Guide to Go"}, "", nil))
	assert.False(t, Eligible(Candidate{Name: "X", Suppressed: true}, "", nil))
	assert.False(t, Eligible(Candidate{Name: "Turbopump", NameLower: "turbopump"}, "", map[string]struct{}{"turbopump": {}}))
	assert.True(t, Eligible(Candidate{Name: "Turbopump", NameLower: "turbopump"}, "", nil))
}

func TestScoreExactMultiWordMatch(t *testing.T) {
	cands := []Candidate{
		{Name: "Marcus Johnson", NameLower: "marcus johnson", Path: "people/Marcus Johnson.md", Category: types.CategoryPeople},
	}
	in := Input{
		Content:        "Today I met with Marcus Johnson about the launch schedule and follow-ups.",
		HostPath:       "daily-notes/2026-07-30.md",
		MaxSuggestions: 3,
		Strictness:     types.StrictnessBalanced,
	}
	results := Score(in, cands)
	require.Len(t, results, 1)
	assert.Equal(t, "Marcus Johnson", results[0].Name)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestScoreRejectsBelowAdaptiveThreshold(t *testing.T) {
	cands := []Candidate{
		{Name: "Zzz", NameLower: "zzz", Category: types.CategoryOther},
	}
	in := Input{
		Content:        "nothing relevant here about anything in particular today",
		HostPath:       "notes/a.md",
		MaxSuggestions: 3,
		Strictness:     types.StrictnessConservative,
	}
	results := Score(in, cands)
	assert.Empty(t, results)
}

func TestScoreRespectsAlreadyLinked(t *testing.T) {
	cands := []Candidate{
		{Name: "Marcus Johnson", NameLower: "marcus johnson"},
	}
	in := Input{
		Content:        "Marcus Johnson again in this note, many times over, discussing things.",
		HostPath:       "notes/a.md",
		MaxSuggestions: 3,
		Strictness:     types.StrictnessBalanced,
		AlreadyLinked:  map[string]struct{}{"marcus johnson": {}},
	}
	results := Score(in, cands)
	assert.Empty(t, results)
}

func TestScoreRankingTieBreaksOnRecencyThenName(t *testing.T) {
	now := time.Now()
	cands := []Candidate{
		{Name: "Project Beta", NameLower: "project beta", Category: types.CategoryProjects, LastMentioned: now.Add(-time.Hour)},
		{Name: "Project Alpha", NameLower: "project alpha", Category: types.CategoryProjects, LastMentioned: now.Add(-time.Hour)},
	}
	in := Input{
		Content:        "Project Alpha and Project Beta both shipped this week with good results.",
		HostPath:       "projects/x.md",
		MaxSuggestions: 3,
		Strictness:     types.StrictnessBalanced,
		Now:            now,
	}
	results := Score(in, cands)
	require.Len(t, results, 2)
	assert.Equal(t, "Project Alpha", results[0].Name)
}

func TestScoreSemanticOnlyRequiresStructuralSignal(t *testing.T) {
	cands := []Candidate{
		{
			Name: "Unrelated Entity", NameLower: "unrelated entity",
			Category: types.CategoryOther, Embedding: []float32{1, 0, 0},
		},
	}
	in := Input{
		Content:        "Some long enough piece of content about nothing in particular today.",
		HostPath:       "notes/a.md",
		MaxSuggestions: 3,
		Strictness:     types.StrictnessAggressive,
		Embed: func(content string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		},
	}
	results := Score(in, cands)
	assert.Empty(t, results, "zero content match + no type/folder/hub boost should never surface purely on semantics")
}

func TestLayerEdgeWeightClampsToFour(t *testing.T) {
	assert.Equal(t, 4.0, layerEdgeWeight(Candidate{EdgeAvgWeight: 10}))
	assert.Equal(t, 0.0, layerEdgeWeight(Candidate{EdgeAvgWeight: 0}))
}

func TestLayerFeedbackThresholds(t *testing.T) {
	assert.Equal(t, 5.0, layerFeedback(Candidate{Accuracy: Accuracy{Value: 0.97, Samples: 25}}))
	assert.Equal(t, 0.0, layerFeedback(Candidate{Accuracy: Accuracy{Value: 0.97, Samples: 2}}))
	assert.Equal(t, -4.0, layerFeedback(Candidate{Accuracy: Accuracy{Value: 0.1, Samples: 10}}))
}

package rewriter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flywheel-memory/flywheel/internal/types"
)

func TestRewriteBasicNameMatch(t *testing.T) {
	out, applied := Rewrite("Marcus Johnson led the meeting.", []Candidate{
		{Canonical: "Marcus Johnson", Surfaces: []string{"Marcus Johnson"}},
	}, "meeting.md")
	assert.Equal(t, "[[Marcus Johnson]] led the meeting.", out)
	assert.Len(t, applied, 1)
}

func TestRewriteAliasEmitsPipe(t *testing.T) {
	out, _ := Rewrite("Marcus spoke up.", []Candidate{
		{Canonical: "Marcus Johnson", Surfaces: []string{"Marcus Johnson", "Marcus"}},
	}, "x.md")
	assert.Equal(t, "[[Marcus Johnson|Marcus]] spoke up.", out)
}

func TestRewriteLongestCandidateWinsOverlap(t *testing.T) {
	out, _ := Rewrite("Machine Learning is a field.", []Candidate{
		{Canonical: "Machine Learning", Surfaces: []string{"Machine Learning"}},
		{Canonical: "Learning", Surfaces: []string{"Learning"}},
	}, "x.md")
	assert.Equal(t, "[[Machine Learning]] is a field.", out)
}

func TestRewriteSkipsFencedCodeBlock(t *testing.T) {
	text := "See Turbopump below.\n```\nTurbopump\n```\n"
	out, applied := Rewrite(text, []Candidate{
		{Canonical: "Turbopump", Surfaces: []string{"Turbopump"}},
	}, "x.md")
	assert.Contains(t, out, "[[Turbopump]] below.")
	assert.Contains(t, out, "```\nTurbopump\n```")
	assert.Len(t, applied, 1)
}

func TestRewriteSkipsInlineCode(t *testing.T) {
	text := "Run `Turbopump` the config, then mention Turbopump normally."
	out, _ := Rewrite(text, []Candidate{
		{Canonical: "Turbopump", Surfaces: []string{"Turbopump"}},
	}, "x.md")
	assert.Contains(t, out, "`Turbopump`")
	assert.Contains(t, out, "mention [[Turbopump]] normally")
}

func TestRewriteSkipsFrontmatter(t *testing.T) {
	text := "---\ntitle: Turbopump\n---\nTurbopump runs hot.\n"
	out, applied := Rewrite(text, []Candidate{
		{Canonical: "Turbopump", Surfaces: []string{"Turbopump"}},
	}, "x.md")
	assert.Contains(t, out, "title: Turbopump")
	assert.Contains(t, out, "[[Turbopump]] runs hot.")
	assert.Len(t, applied, 1)
}

func TestRewriteSkipsExistingWikilink(t *testing.T) {
	text := "[[Turbopump]] is already linked. Turbopump appears again."
	out, applied := Rewrite(text, []Candidate{
		{Canonical: "Turbopump", Surfaces: []string{"Turbopump"}},
	}, "x.md")
	assert.Equal(t, text, out)
	assert.Len(t, applied, 0)
}

func TestRewriteIsIdempotent(t *testing.T) {
	text := "Turbopump appears for the first time here, and again later."
	candidates := []Candidate{
		{Canonical: "Turbopump", Surfaces: []string{"Turbopump"}},
	}
	once, _ := Rewrite(text, candidates, "x.md")
	twice, applied := Rewrite(once, candidates, "x.md")
	assert.Equal(t, once, twice)
	assert.Len(t, applied, 0)
}

func TestRewriteSkipsCandidateLinkedByAlias(t *testing.T) {
	text := "[[Marcus Johnson|Marcus]] led the meeting. Marcus Johnson spoke again."
	out, applied := Rewrite(text, []Candidate{
		{Canonical: "Marcus Johnson", Surfaces: []string{"Marcus Johnson", "Marcus"}},
	}, "x.md")
	assert.Equal(t, text, out)
	assert.Len(t, applied, 0)
}

func TestRewriteFirstOccurrenceOnly(t *testing.T) {
	text := "Turbopump first, Turbopump second, Turbopump third."
	_, applied := Rewrite(text, []Candidate{
		{Canonical: "Turbopump", Surfaces: []string{"Turbopump"}},
	}, "x.md")
	assert.Len(t, applied, 1)
}

func TestRewriteHonorsWordBoundariesWithApostrophe(t *testing.T) {
	text := "O'Brien arrived. Mr.O'Brien is different."
	out, applied := Rewrite(text, []Candidate{
		{Canonical: "O'Brien", Surfaces: []string{"O'Brien"}},
	}, "x.md")
	assert.Contains(t, out, "[[O'Brien]] arrived.")
	assert.Len(t, applied, 1)
}

func TestRewriteSkipsURL(t *testing.T) {
	text := "See https://turbopump.example.com/Turbopump for details about Turbopump."
	out, _ := Rewrite(text, []Candidate{
		{Canonical: "Turbopump", Surfaces: []string{"Turbopump"}},
	}, "x.md")
	assert.Contains(t, out, "https://turbopump.example.com/Turbopump")
	assert.Contains(t, out, "details about [[Turbopump]]")
}

func TestRewriteSkipsHeadingLine(t *testing.T) {
	text := "# Turbopump\nTurbopump runs hot.\n"
	out, applied := Rewrite(text, []Candidate{
		{Canonical: "Turbopump", Surfaces: []string{"Turbopump"}},
	}, "x.md")
	assert.Contains(t, out, "# Turbopump\n")
	assert.Contains(t, out, "[[Turbopump]] runs hot.")
	assert.Len(t, applied, 1)
}

func TestBuildCandidatesIncludesAliases(t *testing.T) {
	cands := BuildCandidates([]types.Entity{
		{Name: "Marcus Johnson", Aliases: []string{"Marcus", "MJ"}},
	})
	assert.Equal(t, []string{"Marcus Johnson", "Marcus", "MJ"}, cands[0].Surfaces)
}

package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractWikilinks(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string // targets only, in order
	}{
		{"plain", "See [[Marcus Johnson]] for details.", []string{"Marcus Johnson"}},
		{"alias", "We use [[Model Context Protocol|MCP]] daily.", []string{"Model Context Protocol"}},
		{"heading", "Read [[Turbopump#Status]] today.", []string{"Turbopump"}},
		{"in-fenced-code", "```\n[[Not A Link]]\n```\ntext", nil},
		{"in-inline-code", "See `[[Marcus Johnson]]` in code. Marcus was here.", nil},
		{"multiple", "[[A]] then [[B|alt]]", []string{"A", "B"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			links := ExtractWikilinks(tc.body)
			var got []string
			for _, l := range links {
				got = append(got, l.Target)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSplitFrontmatter(t *testing.T) {
	data := []byte("---\naliases: [MCP, Protocol]\ntags: [tech]\n---\nBody here.\n")
	body, fm, warn := splitFrontmatter(data)
	require.Empty(t, warn)
	require.NotNil(t, fm)
	assert.Equal(t, "Body here.\n", string(body))
	assert.Equal(t, []any{"MCP", "Protocol"}, fm["aliases"])
}

func TestSplitFrontmatterMalformed(t *testing.T) {
	data := []byte("---\naliases: [unterminated\n---\nbody\n")
	body, fm, warn := splitFrontmatter(data)
	assert.Nil(t, fm)
	assert.NotEmpty(t, warn)
	assert.Equal(t, string(data), string(body))
}

func TestLooksBinary(t *testing.T) {
	assert.True(t, looksBinary([]byte("hello\x00world")))
	assert.False(t, looksBinary([]byte("hello\nworld\t!")))
}

func TestScanFileSkipsOversized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.md")
	require.NoError(t, os.WriteFile(path, make([]byte, maxFileSize+1), 0o600))

	res := ScanFile(dir, "big.md")
	require.NotNil(t, res.Skip)
	assert.Contains(t, res.Skip.Reason, "10MB")
}

func TestScanFileParsesAliasesAndTags(t *testing.T) {
	dir := t.TempDir()
	content := "---\naliases: MCP\ntags: [protocol, spec]\n---\nUses #golang and [[Other Note]].\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Model Context Protocol.md"), []byte(content), 0o600))

	res := ScanFile(dir, "Model Context Protocol.md")
	require.Nil(t, res.Skip)
	require.NotNil(t, res.Note)
	assert.Equal(t, "Model Context Protocol", res.Note.Title)
	assert.Equal(t, []string{"MCP"}, res.Note.Aliases)
	assert.Contains(t, res.Note.Tags, "golang")
	assert.Contains(t, res.Note.Tags, "protocol")
	require.Len(t, res.Note.Outlinks, 1)
	assert.Equal(t, "Other Note", res.Note.Outlinks[0].Target)
}

func TestWalkExcludesHiddenAndConfiguredDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "attachments"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "x.md"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "attachments", "y.md"), []byte("y"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes", "z.md"), []byte("z"), 0o600))

	files, err := Walk(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/z.md"}, files)
}

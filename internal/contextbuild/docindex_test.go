package contextbuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocIndex(t *testing.T, content string) *DocIndex {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	d, err := NewDocIndex(path)
	require.NoError(t, err)
	return d
}

func TestDocIndexHeader(t *testing.T) {
	d := writeDocIndex(t, "line one\nline two\nline three\n")

	header, err := d.Header(2)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", header)

	header, err = d.Header(100)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\nline three\n", header)
}

func TestDocIndexSection(t *testing.T) {
	d := writeDocIndex(t, fixtureDocs)

	sec, err := d.Section("Rotation Guide")
	require.NoError(t, err)
	assert.Contains(t, sec, "## Rotation Guide")
	assert.Contains(t, sec, "How agent rotation works in detail.")
	assert.NotContains(t, sec, "Storage Layout")
}

func TestDocIndexSectionNotFound(t *testing.T) {
	d := writeDocIndex(t, fixtureDocs)

	_, err := d.Section("No Such Heading")
	require.Error(t, err)
	assert.ErrorIs(t, err, errSectionNotFound)
}

func TestDocIndexSectionCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.md")
	require.NoError(t, os.WriteFile(path, []byte(fixtureDocs), 0644))
	d, err := NewDocIndex(path)
	require.NoError(t, err)

	first, err := d.Section("Storage Layout")
	require.NoError(t, err)

	// Removing the file does not evict already-cached sections.
	require.NoError(t, os.Remove(path))
	second, err := d.Section("Storage Layout")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMatchSectionsOnePerKeyword(t *testing.T) {
	d := writeDocIndex(t, `# Index

## Alpha

rotation details and rotation internals

## Beta

more rotation text plus cooldown notes
`)

	// Both keywords hit Alpha first but a section matches only once.
	out, err := d.MatchSections([]string{"rotation", "cooldown"}, 3)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Contains(t, out[0], "## Alpha")
	assert.Contains(t, out[1], "## Beta")
}

func TestMatchSectionsRespectsMax(t *testing.T) {
	d := writeDocIndex(t, fixtureDocs)

	out, err := d.MatchSections([]string{"rotation", "state", "docs"}, 1)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestMatchSectionsMissingFile(t *testing.T) {
	d, err := NewDocIndex(filepath.Join(t.TempDir(), "absent.md"))
	require.NoError(t, err)

	out, err := d.MatchSections([]string{"anything"}, 3)
	require.NoError(t, err)
	assert.Empty(t, out)
}

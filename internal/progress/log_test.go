package progress

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `# Progress Log

## Patterns & Conventions

- Always use the repository layer.

## 2026-08-01

Did the first thing.

## 2026-08-02 14:30

Did the second thing.
More detail here.

---

## 2026-08-03

Third entry.
`

func TestParse_PreambleAndEntries(t *testing.T) {
	parsed := Parse(sampleLog)

	require.Len(t, parsed.Entries, 3)
	assert.Contains(t, parsed.PreambleText(), "Patterns & Conventions")
	assert.Contains(t, parsed.PreambleText(), "repository layer")

	assert.Equal(t, "## 2026-08-01", parsed.Entries[0].Heading)
	assert.Contains(t, parsed.Entries[1].Text(), "More detail here.")
	assert.Contains(t, parsed.Entries[2].Text(), "Third entry.")
}

func TestParse_SeparatorClosesEntry(t *testing.T) {
	parsed := Parse(sampleLog)
	// The "---" after the second entry must not leak into its text.
	assert.NotContains(t, parsed.Entries[1].Text(), "---")
}

func TestParse_NoEntries(t *testing.T) {
	parsed := Parse("just a preamble\nwith two lines")
	assert.Empty(t, parsed.Entries)
	assert.Equal(t, "just a preamble\nwith two lines", parsed.PreambleText())
}

func TestParse_BracketedHeading(t *testing.T) {
	parsed := Parse("preamble\n\n### [2026-08-30 10:00] US-042\n\nwork done\n")
	require.Len(t, parsed.Entries, 1)
	assert.Contains(t, parsed.Entries[0].Heading, "US-042")
}

func TestAppend_CreatesDatedEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.md")
	require.NoError(t, os.WriteFile(path, []byte("preamble\n"), 0644))

	require.NoError(t, Append(path, "implemented the thing"))

	content, err := Read(path)
	require.NoError(t, err)
	parsed := Parse(content)
	require.Len(t, parsed.Entries, 1)
	assert.Contains(t, parsed.Entries[0].Text(), "implemented the thing")
}

func TestBackup_TimestampedSibling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "progress.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0644))

	backupPath, err := Backup(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(backupPath), "progress.md.backup-"))

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, sampleLog, string(data))
}

func TestWindow(t *testing.T) {
	content := "l0\nl1\nl2\nl3\nl4"

	window, total := Window(content, 1, 2)
	assert.Equal(t, "l1\nl2", window)
	assert.Equal(t, 5, total)

	window, _ = Window(content, 3, 10)
	assert.Equal(t, "l3\nl4", window)

	window, _ = Window(content, 99, 10)
	assert.Equal(t, "", window)
}

func TestHeadTail(t *testing.T) {
	content := "a\nb\nc\nd"
	assert.Equal(t, "a\nb", Head(content, 2))
	assert.Equal(t, "c\nd", Tail(content, 2))
	assert.Equal(t, content, Head(content, 10))
	assert.Equal(t, content, Tail(content, 10))
}

func TestLineCount(t *testing.T) {
	assert.Equal(t, 0, LineCount(""))
	assert.Equal(t, 1, LineCount("x"))
	assert.Equal(t, 3, LineCount("a\nb\nc"))
}

func TestReader_ServesAndInvalidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "progress.md")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0644))

	r := NewReader(path, nil)
	defer r.Close()

	content, err := r.Content()
	require.NoError(t, err)
	assert.Equal(t, "first\n", content)

	require.NoError(t, os.WriteFile(path, []byte("second\n"), 0644))
	r.Invalidate()

	content, err = r.Content()
	require.NoError(t, err)
	assert.Equal(t, "second\n", content)
}

func TestReader_MissingFileReadsEmpty(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "absent.md"), nil)
	defer r.Close()

	content, err := r.Content()
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

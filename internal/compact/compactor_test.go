package compact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ralph/internal/model"
	"ralph/internal/progress"
)

func testConfig() model.CompactionConfig {
	return model.CompactionConfig{
		Mode:           "relevance",
		ThresholdLines: 20,
		PreserveStart:  5,
		PreserveEnd:    5,
		MinScore:       5,
		MaxBullets:     10,
		Weights:        model.DefaultScoreWeights,
	}
}

// buildLog returns a log with a preamble and one filler entry per n, padded
// past the threshold.
func buildLog(entries ...string) string {
	var b strings.Builder
	b.WriteString("# Progress Log\n\n## Patterns & Conventions\n\n- preamble rule\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "\n## 2026-08-%02d\n\n%s\n", i+1, e)
	}
	return b.String()
}

func TestCompact_NoOpAtOrBelowThreshold(t *testing.T) {
	c := New(t.TempDir(), testConfig(), nil)
	content := "line\nline\nline"

	out, stats := c.Compact(content, nil)
	assert.True(t, stats.Skipped)
	assert.Equal(t, content, out, "under-threshold log must be byte-for-byte unchanged")
}

func TestCompact_PreservesPreambleVerbatim(t *testing.T) {
	c := New(t.TempDir(), testConfig(), nil)
	content := buildLog("filler", "filler", "filler", "filler", "filler", "filler")

	out, stats := c.Compact(content, nil)
	assert.False(t, stats.Skipped)
	assert.Contains(t, out, "## Patterns & Conventions\n\n- preamble rule")
}

func TestCompact_KeepsHighValueDropsLowValue(t *testing.T) {
	cfg := testConfig()
	cfg.ThresholdLines = 10
	c := New(t.TempDir(), cfg, nil)

	gotcha := "avoid null pointer, this is a known gotcha"
	content := buildLog(
		gotcha,
		"US-042 routine work, nothing notable",
		"filler", "filler", "filler",
	)

	out, stats := c.Compact(content, nil)
	require.False(t, stats.Skipped)

	assert.Contains(t, out, gotcha, "gotcha-marker entry scores 8 and is kept verbatim")
	assert.NotContains(t, out, "routine work")
	assert.Contains(t, out, "- Completed: US-042 (score: 0)")
	assert.Equal(t, 5, stats.EntriesBefore)
}

func TestCompact_RecencyBonusKeepsLastEntries(t *testing.T) {
	cfg := testConfig()
	cfg.ThresholdLines = 10
	c := New(t.TempDir(), cfg, nil)

	content := buildLog("old filler", "old filler", "recent one", "recent two", "recent three")
	out, _ := c.Compact(content, nil)

	// Last 3 entries get the flat +5 bonus, meeting the min score of 5.
	assert.Contains(t, out, "recent one")
	assert.Contains(t, out, "recent three")
	assert.NotContains(t, out, "old filler")
}

func TestCompact_KeywordScore(t *testing.T) {
	cfg := testConfig()
	cfg.ThresholdLines = 10
	cfg.Weights.Recency = 0 // isolate keyword scoring
	c := New(t.TempDir(), cfg, nil)

	content := buildLog(
		"touched the rotation scheduler and cooldown logic here", // 3 keywords x2 = 6
		"nothing related", "nothing related", "nothing related", "nothing related",
	)
	out, _ := c.Compact(content, []string{"cooldown", "rotation", "scheduler"})

	assert.Contains(t, out, "touched the rotation scheduler")
	assert.NotContains(t, out, "nothing related")
}

func TestCompact_MarkerCategoryCountsOnce(t *testing.T) {
	kws := []string{}
	w := model.DefaultScoreWeights
	// Three gotcha words still score one category weight.
	assert.Equal(t, w.Gotcha, scoreEntry("bug bug gotcha avoid", kws, w))
	// Two categories stack.
	assert.Equal(t, w.Gotcha+w.Schema, scoreEntry("fixed the database bug", kws, w))
	assert.Equal(t, 0, scoreEntry("plain text with no markers", kws, w))
}

func TestCompact_EndsWithSeparator(t *testing.T) {
	cfg := testConfig()
	cfg.ThresholdLines = 10
	c := New(t.TempDir(), cfg, nil)

	out, _ := c.Compact(buildLog("a", "b", "c", "d", "e"), nil)
	assert.True(t, strings.HasSuffix(out, "---\n"))
}

func TestCompactFile_WritesBackupAndEventLog(t *testing.T) {
	ralphDir := t.TempDir()
	cfg := testConfig()
	cfg.ThresholdLines = 10
	c := New(ralphDir, cfg, nil)

	path := filepath.Join(ralphDir, "progress.md")
	content := buildLog("one", "two", "three", "four", "five")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	stats, err := c.CompactFile(path, nil)
	require.NoError(t, err)
	require.False(t, stats.Skipped)

	// original bytes survive in the timestamped backup
	require.NotEmpty(t, stats.BackupPath)
	backup, err := os.ReadFile(stats.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(backup))

	// event log records the before/after counts
	event, err := os.ReadFile(filepath.Join(ralphDir, "logs", "compaction.log"))
	require.NoError(t, err)
	assert.Contains(t, string(event), "mode=relevance")
	assert.Contains(t, string(event), fmt.Sprintf("lines=%d→", stats.LinesBefore))
}

func TestCompactFile_MissingLogIsSilentNoOp(t *testing.T) {
	ralphDir := t.TempDir()
	c := New(ralphDir, testConfig(), nil)

	stats, err := c.CompactFile(filepath.Join(ralphDir, "progress.md"), nil)
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
}

func TestCompact_LineMode(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = "line"
	cfg.ThresholdLines = 10
	cfg.PreserveStart = 3
	cfg.PreserveEnd = 3
	c := New(t.TempDir(), cfg, nil)

	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("line %02d", i))
	}
	lines[10] = "work on US-007 done"
	lines[12] = "### Learnings for future iterations"
	lines[13] = "- always run the linter"
	content := strings.Join(lines, "\n")

	out, stats := c.Compact(content, nil)
	require.False(t, stats.Skipped)
	assert.Equal(t, "line", stats.Mode)

	assert.Contains(t, out, "line 00")
	assert.Contains(t, out, "line 29")
	assert.NotContains(t, out, "line 11")
	assert.Contains(t, out, "Stories covered: US-007")
	assert.Contains(t, out, "- always run the linter")
}

func TestCompact_RelevanceFallsBackToLineMode(t *testing.T) {
	cfg := testConfig()
	cfg.ThresholdLines = 5
	cfg.PreserveStart = 2
	cfg.PreserveEnd = 2
	c := New(t.TempDir(), cfg, nil)

	// No dated headings anywhere: relevance mode has nothing to score.
	content := strings.Repeat("undated line\n", 10)
	_, stats := c.Compact(content, nil)
	assert.Equal(t, "line", stats.Mode)
}

func TestCompact_ConsistentWithProgressParse(t *testing.T) {
	cfg := testConfig()
	cfg.ThresholdLines = 10
	c := New(t.TempDir(), cfg, nil)

	content := buildLog("keep this gotcha warning", "drop me", "drop me too", "x", "y")
	out, _ := c.Compact(content, nil)

	// The compacted output must still parse: preamble intact, kept entries
	// recognizable.
	parsed := progress.Parse(out)
	assert.Contains(t, parsed.PreambleText(), "preamble rule")
	require.NotEmpty(t, parsed.Entries)
	assert.Contains(t, parsed.Entries[0].Text(), "gotcha warning")
}

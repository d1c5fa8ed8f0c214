// Package compact shrinks the progress log once it outgrows a line
// threshold, preferring high-relevance entries and leaving one-line
// references for everything dropped.
package compact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ralph/internal/logging"
	"ralph/internal/model"
	"ralph/internal/progress"
)

// Stats describes one compaction run for the event log.
type Stats struct {
	Skipped       bool
	Mode          string
	LinesBefore   int
	LinesAfter    int
	EntriesBefore int
	EntriesKept   int
	BackupPath    string
}

type Compactor struct {
	ralphDir string
	cfg      model.CompactionConfig
	logger   *logging.Logger
}

func New(ralphDir string, cfg model.CompactionConfig, logger *logging.Logger) *Compactor {
	return &Compactor{
		ralphDir: ralphDir,
		cfg:      cfg,
		logger:   logging.OrNop(logger),
	}
}

// Compact rewrites log content if it exceeds the line threshold. At or
// below the threshold the input is returned byte-for-byte unchanged.
func (c *Compactor) Compact(content string, kws []string) (string, Stats) {
	stats := Stats{
		Mode:        c.cfg.Mode,
		LinesBefore: progress.LineCount(content),
	}

	if stats.LinesBefore <= c.cfg.ThresholdLines {
		stats.Skipped = true
		stats.LinesAfter = stats.LinesBefore
		c.logger.Debug("compaction skipped: %d lines <= threshold %d", stats.LinesBefore, c.cfg.ThresholdLines)
		return content, stats
	}

	var out string
	if c.cfg.Mode == "line" {
		out = c.compactByLines(content, &stats)
	} else {
		parsed := progress.Parse(content)
		if len(parsed.Entries) == 0 {
			// No dated headings to score: relevance mode is unusable here.
			c.logger.Warn("no dated entries found, falling back to line-mode compaction")
			stats.Mode = "line"
			out = c.compactByLines(content, &stats)
		} else {
			out = c.compactByRelevance(parsed, kws, &stats)
		}
	}

	stats.LinesAfter = progress.LineCount(out)
	return out, stats
}

// CompactFile compacts the log at path in place, writing a timestamped
// backup first and recording the event in the compaction log.
func (c *Compactor) CompactFile(path string, kws []string) (Stats, error) {
	content, err := progress.Read(path)
	if err != nil {
		return Stats{}, err
	}
	if content == "" {
		c.logger.Debug("compaction skipped: no progress log at %s", path)
		return Stats{Skipped: true, Mode: c.cfg.Mode}, nil
	}

	out, stats := c.Compact(content, kws)
	if stats.Skipped {
		return stats, nil
	}

	backupPath, err := progress.Backup(path)
	if err != nil {
		return stats, err
	}
	stats.BackupPath = backupPath

	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return stats, fmt.Errorf("write compacted log: %w", err)
	}

	c.recordEvent(stats)
	c.logger.Info("compacted %s: %d → %d lines (%d/%d entries kept)",
		path, stats.LinesBefore, stats.LinesAfter, stats.EntriesKept, stats.EntriesBefore)
	return stats, nil
}

func (c *Compactor) compactByRelevance(parsed progress.Parsed, kws []string, stats *Stats) string {
	stats.EntriesBefore = len(parsed.Entries)

	type scored struct {
		entry progress.Entry
		score int
	}
	entries := make([]scored, len(parsed.Entries))
	recencyFrom := len(parsed.Entries) - 3

	for i, e := range parsed.Entries {
		score := scoreEntry(e.Text(), kws, c.cfg.Weights)
		if i >= recencyFrom {
			score += c.cfg.Weights.Recency
		}
		entries[i] = scored{entry: e, score: score}
	}

	var b strings.Builder
	b.WriteString(parsed.PreambleText())

	var summary []string
	for _, se := range entries {
		if se.score >= c.cfg.MinScore {
			stats.EntriesKept++
			b.WriteString("\n")
			b.WriteString(se.entry.Text())
		} else {
			ref := entryReference(entryView{heading: se.entry.Heading, text: se.entry.Text()})
			summary = append(summary, fmt.Sprintf("- Completed: %s (score: %d)", ref, se.score))
		}
	}

	if len(summary) > 0 {
		b.WriteString("\n\n## Compacted entries\n\n")
		b.WriteString(strings.Join(summary, "\n"))
	}
	b.WriteString("\n\n---\n")
	return b.String()
}

// compactByLines is the simpler fallback policy: keep the first and last
// blocks verbatim and summarize the discarded middle.
func (c *Compactor) compactByLines(content string, stats *Stats) string {
	lines := strings.Split(content, "\n")
	start, end := c.cfg.PreserveStart, c.cfg.PreserveEnd
	if start+end >= len(lines) {
		return content
	}

	head := lines[:start]
	tail := lines[len(lines)-end:]
	middle := lines[start : len(lines)-end]
	middleText := strings.Join(middle, "\n")

	var b strings.Builder
	b.WriteString(strings.Join(head, "\n"))
	b.WriteString("\n\n## Compacted summary\n\n")
	fmt.Fprintf(&b, "%d lines removed.\n", len(middle))

	if ids := uniqueStoryIDs(middleText); len(ids) > 0 {
		fmt.Fprintf(&b, "Stories covered: %s\n", strings.Join(ids, ", "))
	}
	if bullets := learnings(middle, c.cfg.MaxBullets); len(bullets) > 0 {
		b.WriteString("Learnings:\n")
		b.WriteString(strings.Join(bullets, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\n---\n\n")
	b.WriteString(strings.Join(tail, "\n"))
	return b.String()
}

func uniqueStoryIDs(text string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, id := range storyIDRe.FindAllString(text, -1) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// learnings scrapes bullet points from "Learnings for future iterations"
// sub-sections in the discarded region, up to max bullets.
func learnings(lines []string, max int) []string {
	var out []string
	inSection := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			inSection = strings.Contains(strings.ToLower(trimmed), "learnings for future iterations")
			continue
		}
		if !inSection {
			continue
		}
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			out = append(out, "- "+strings.TrimSpace(trimmed[2:]))
			if len(out) >= max {
				return out
			}
		}
	}
	return out
}

func (c *Compactor) recordEvent(stats Stats) {
	logPath := filepath.Join(c.ralphDir, "logs", "compaction.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		c.logger.Warn("create compaction log dir: %v", err)
		return
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		c.logger.Warn("open compaction log: %v", err)
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "%s mode=%s entries=%d→%d lines=%d→%d backup=%s\n",
		time.Now().Format(time.RFC3339), stats.Mode,
		stats.EntriesBefore, stats.EntriesKept,
		stats.LinesBefore, stats.LinesAfter, stats.BackupPath)
}

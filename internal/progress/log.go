// Package progress reads and rewrites the append-only progress log: a fixed
// "patterns" preamble followed by dated entries. The outer loop appends;
// compaction rewrites with a backup.
package progress

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// FileName is the progress log's location inside the state directory.
const FileName = "progress.md"

// headingRe matches the dated heading that starts every entry, e.g.
// "## 2026-08-30" or "### [2026-08-30 14:02] US-042".
var headingRe = regexp.MustCompile(`^#{1,6}\s+\[?\d{4}-\d{2}-\d{2}`)

var separatorRe = regexp.MustCompile(`^---+\s*$`)

// Entry is one dated block of the log, spanning from its heading to the
// next heading or an explicit separator.
type Entry struct {
	Heading string
	Lines   []string // includes the heading line
}

func (e Entry) Text() string {
	return strings.Join(e.Lines, "\n")
}

// Parsed is the structured view of a progress log.
type Parsed struct {
	Preamble []string // everything before the first dated heading
	Entries  []Entry
}

func (p Parsed) PreambleText() string {
	return strings.Join(p.Preamble, "\n")
}

// Parse splits log content into preamble and dated entries. A separator line
// closes the current entry; stray lines between a separator and the next
// heading belong to no entry and are dropped on rewrite.
func Parse(content string) Parsed {
	lines := strings.Split(content, "\n")

	var parsed Parsed
	var current *Entry
	inPreamble := true
	closed := false

	for _, line := range lines {
		if headingRe.MatchString(line) {
			if current != nil {
				parsed.Entries = append(parsed.Entries, *current)
			}
			current = &Entry{Heading: line, Lines: []string{line}}
			inPreamble = false
			closed = false
			continue
		}
		if inPreamble {
			parsed.Preamble = append(parsed.Preamble, line)
			continue
		}
		if closed {
			continue
		}
		if separatorRe.MatchString(line) {
			if current != nil {
				parsed.Entries = append(parsed.Entries, *current)
				current = nil
			}
			closed = true
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}
	if current != nil {
		parsed.Entries = append(parsed.Entries, *current)
	}
	return parsed
}

// Read returns the raw log content. A missing log reads as empty.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read progress log: %w", err)
	}
	return string(data), nil
}

// Append adds one dated entry to the end of the log.
func Append(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open progress log: %w", err)
	}
	defer f.Close()

	heading := fmt.Sprintf("## %s", time.Now().Format("2006-01-02 15:04"))
	if _, err := fmt.Fprintf(f, "\n%s\n\n%s\n", heading, strings.TrimRight(text, "\n")); err != nil {
		return fmt.Errorf("append progress entry: %w", err)
	}
	return nil
}

// Backup copies the log to a timestamped sibling before a destructive
// rewrite and returns the backup path.
func Backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read progress log for backup: %w", err)
	}
	backupPath := fmt.Sprintf("%s.backup-%s", path, time.Now().Format("20060102T150405"))
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("write progress backup: %w", err)
	}
	return backupPath, nil
}

// Window returns count lines of content starting at a zero-based line
// offset, plus the total line count. Offsets past the end yield an empty
// window.
func Window(content string, offset, count int) (string, int) {
	lines := strings.Split(content, "\n")
	total := len(lines)
	if offset < 0 {
		offset = 0
	}
	if offset >= total || count <= 0 {
		return "", total
	}
	end := offset + count
	if end > total {
		end = total
	}
	return strings.Join(lines[offset:end], "\n"), total
}

// Tail returns the last n lines of content.
func Tail(content string, n int) string {
	lines := strings.Split(content, "\n")
	if n >= len(lines) {
		return content
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// Head returns the first n lines of content.
func Head(content string, n int) string {
	lines := strings.Split(content, "\n")
	if n >= len(lines) {
		return content
	}
	return strings.Join(lines[:n], "\n")
}

// LineCount reports the number of lines in content; empty content has zero.
func LineCount(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Split(content, "\n"))
}

package contextbuild

import (
	"fmt"
	"os"
	"strings"

	"ralph/internal/progress"
)

// ExpandKind names the three on-demand context requests. Proactive assembly
// is lossy under a budget, so mid-task an agent can pull exactly what it
// needs.
type ExpandKind string

const (
	// ExpandSpec fetches one named documentation section verbatim.
	ExpandSpec ExpandKind = "spec"
	// ExpandFile returns a file up to the configured line cap.
	ExpandFile ExpandKind = "file"
	// ExpandProgress returns a windowed slice of the progress log.
	ExpandProgress ExpandKind = "progress"
)

type ExpandRequest struct {
	Kind   ExpandKind
	Name   string // section heading, for ExpandSpec
	Path   string // file path, for ExpandFile
	Offset int    // line offset, for ExpandProgress
}

// Expand serves one pull request for additional context.
func (a *Assembler) Expand(req ExpandRequest) (string, error) {
	switch req.Kind {
	case ExpandSpec:
		return a.docs.Section(req.Name)
	case ExpandFile:
		return a.expandFile(req.Path)
	case ExpandProgress:
		return a.expandProgress(req.Offset)
	default:
		return "", fmt.Errorf("unknown expand kind %q", req.Kind)
	}
}

func (a *Assembler) expandFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) <= a.cfg.FileLineCap {
		return string(data), nil
	}

	capped := strings.Join(lines[:a.cfg.FileLineCap], "\n")
	elided := len(lines) - a.cfg.FileLineCap
	return fmt.Sprintf("%s\n\n(%d more lines elided)", capped, elided), nil
}

func (a *Assembler) expandProgress(offset int) (string, error) {
	content, err := a.log.Content()
	if err != nil {
		return "", err
	}

	window, total := progress.Window(content, offset, a.cfg.ProgressWindow)
	if window == "" {
		return fmt.Sprintf("(no progress lines at offset %d; log has %d lines)", offset, total), nil
	}

	end := offset + progress.LineCount(window)
	header := fmt.Sprintf("Progress log lines %d-%d of %d:", offset+1, end, total)
	return header + "\n\n" + window, nil
}

// Package gitstate reads version-control state for checkpointing.
package gitstate

import (
	"os/exec"
	"strings"
)

// Snapshot is the git state captured alongside a checkpoint.
type Snapshot struct {
	Branch         string
	Commit         string
	DirtyFileCount int
	StagedFiles    []string
	ModifiedFiles  []string
}

// Capture reads the current branch, HEAD commit and working-tree status of
// dir. Errors degrade to an empty snapshot: checkpoint creation must not
// fail because the repository is mid-rebase or not a repository at all.
func Capture(dir string) Snapshot {
	var snap Snapshot

	if out, err := run(dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		snap.Branch = out
	}
	if out, err := run(dir, "rev-parse", "HEAD"); err == nil {
		snap.Commit = out
	}

	out, err := run(dir, "status", "--porcelain")
	if err != nil || out == "" {
		return snap
	}

	snap.applyPorcelain(out)
	return snap
}

// applyPorcelain folds `git status --porcelain` output into the snapshot.
// A file both staged and modified counts once toward the dirty total.
func (s *Snapshot) applyPorcelain(out string) {
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		s.DirtyFileCount++
		index, worktree := line[0], line[1]
		file := strings.TrimSpace(line[3:])
		if index != ' ' && index != '?' {
			s.StagedFiles = append(s.StagedFiles, file)
		}
		if worktree != ' ' {
			s.ModifiedFiles = append(s.ModifiedFiles, file)
		}
	}
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

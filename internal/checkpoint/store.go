// Package checkpoint persists immutable snapshots of task progress and git
// state, one file per checkpoint, for resuming interrupted work.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ralph/internal/gitstate"
	"ralph/internal/jsonfile"
	"ralph/internal/logging"
	"ralph/internal/model"
	"ralph/internal/tasks"
)

const dirName = "checkpoints"

// ErrNoCheckpoint is returned by Latest for a task with zero checkpoints.
var ErrNoCheckpoint = errors.New("no checkpoint found")

type Store struct {
	ralphDir string
	repoDir  string
	tasks    *tasks.Store
	logger   *logging.Logger
	now      func() time.Time
}

func NewStore(ralphDir, repoDir string, taskStore *tasks.Store, logger *logging.Logger) *Store {
	return &Store{
		ralphDir: ralphDir,
		repoDir:  repoDir,
		tasks:    taskStore,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

func (s *Store) dir() string {
	return filepath.Join(s.ralphDir, dirName)
}

// fileName encodes (task id, timestamp, sanitized name) so that lexical
// sort of filenames equals chronological order within a task.
func (s *Store) fileName(taskID string, createdAt time.Time, name string) string {
	return fmt.Sprintf("%s_%s_%s.json", sanitize(taskID), createdAt.Format("20060102T150405"), sanitize(name))
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Create captures task text and git state and writes one new immutable
// checkpoint record. Checkpoints are never edited afterwards; progress means
// creating another one.
func (s *Store) Create(name, taskID string, status model.CheckpointStatus, notes string) (*model.Checkpoint, error) {
	if !model.IsValidCheckpointStatus(status) {
		return nil, fmt.Errorf("invalid checkpoint status %q", status)
	}

	var title, description string
	if task, err := s.tasks.Lookup(taskID); err == nil {
		title = task.Title
		description = task.Description
	} else {
		s.logger.Warn("task lookup for checkpoint: %v", err)
	}

	git := gitstate.Capture(s.repoDir)

	cp := &model.Checkpoint{
		CheckpointName:  name,
		CreatedAt:       s.now(),
		TaskID:          taskID,
		TaskTitle:       title,
		TaskDescription: description,
		Status:          status,
		Notes:           notes,
		GitBranch:       git.Branch,
		GitCommit:       git.Commit,
		DirtyFileCount:  git.DirtyFileCount,
		StagedFiles:     git.StagedFiles,
		ModifiedFiles:   git.ModifiedFiles,
	}

	if err := os.MkdirAll(s.dir(), 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}

	path := filepath.Join(s.dir(), s.fileName(taskID, cp.CreatedAt, name))
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("checkpoint %s already exists", filepath.Base(path))
	}
	if err := jsonfile.AtomicWrite(path, cp); err != nil {
		return nil, fmt.Errorf("write checkpoint: %w", err)
	}

	s.logger.Info("checkpoint %s created for %s (%s)", name, taskID, status)
	return cp, nil
}

// Latest returns the most recent checkpoint for a task, or ErrNoCheckpoint.
// Corrupt checkpoint files are skipped with a warning, never fatal.
func (s *Store) Latest(taskID string) (*model.Checkpoint, error) {
	files, err := s.taskFiles(taskID)
	if err != nil {
		return nil, err
	}

	// Filenames sort chronologically; walk newest-first past any corruption.
	for i := len(files) - 1; i >= 0; i-- {
		var cp model.Checkpoint
		if err := jsonfile.Load(files[i], &cp); err != nil {
			s.logger.Warn("skipping unreadable checkpoint %s: %v", filepath.Base(files[i]), err)
			continue
		}
		return &cp, nil
	}
	return nil, ErrNoCheckpoint
}

// StatusOf reports a checkpoint's recorded status.
func (s *Store) StatusOf(cp *model.Checkpoint) model.CheckpointStatus {
	return cp.Status
}

// ResumeSummary renders a compact digest of a checkpoint for re-injection
// into a continuing session.
func (s *Store) ResumeSummary(cp *model.Checkpoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resuming task %s from checkpoint %q (%s)\n", cp.TaskID, cp.CheckpointName, cp.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Status: %s\n", cp.Status)
	if cp.TaskTitle != "" {
		fmt.Fprintf(&b, "Task: %s\n", cp.TaskTitle)
	}
	if cp.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", cp.Notes)
	}
	fmt.Fprintf(&b, "Git: branch %s at %s, %d dirty files", orNone(cp.GitBranch), shortCommit(cp.GitCommit), cp.DirtyFileCount)
	if len(cp.StagedFiles) > 0 {
		fmt.Fprintf(&b, "\nStaged: %s", strings.Join(cp.StagedFiles, ", "))
	}
	if len(cp.ModifiedFiles) > 0 {
		fmt.Fprintf(&b, "\nModified: %s", strings.Join(cp.ModifiedFiles, ", "))
	}
	return b.String()
}

// PruneOlderThan deletes checkpoints across all tasks older than the
// retention window. Returns the number of files removed.
func (s *Store) PruneOlderThan(days int) (int, error) {
	cutoff := s.now().AddDate(0, 0, -days)
	files, err := s.allFiles()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range files {
		var cp model.Checkpoint
		if err := jsonfile.Load(path, &cp); err != nil {
			s.logger.Warn("skipping unreadable checkpoint %s: %v", filepath.Base(path), err)
			continue
		}
		if cp.CreatedAt.Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("remove checkpoint: %w", err)
			}
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("pruned %d checkpoints older than %d days", removed, days)
	}
	return removed, nil
}

// PruneTask deletes every checkpoint for one task, used once the task fully
// completes.
func (s *Store) PruneTask(taskID string) (int, error) {
	files, err := s.taskFiles(taskID)
	if err != nil {
		return 0, err
	}
	for i, path := range files {
		if err := os.Remove(path); err != nil {
			return i, fmt.Errorf("remove checkpoint: %w", err)
		}
	}
	return len(files), nil
}

func (s *Store) allFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(s.dir(), e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (s *Store) taskFiles(taskID string) ([]string, error) {
	all, err := s.allFiles()
	if err != nil {
		return nil, err
	}
	prefix := sanitize(taskID) + "_"
	var files []string
	for _, path := range all {
		if strings.HasPrefix(filepath.Base(path), prefix) {
			files = append(files, path)
		}
	}
	return files, nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return orNone(commit)
}

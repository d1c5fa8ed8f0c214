package model

import "time"

type CheckpointStatus string

const (
	CheckpointInProgress   CheckpointStatus = "in_progress"
	CheckpointTestsFailing CheckpointStatus = "tests_failing"
	CheckpointPartial      CheckpointStatus = "partial"
	CheckpointCompleted    CheckpointStatus = "completed"
)

var validCheckpointStatuses = map[CheckpointStatus]bool{
	CheckpointInProgress:   true,
	CheckpointTestsFailing: true,
	CheckpointPartial:      true,
	CheckpointCompleted:    true,
}

func IsValidCheckpointStatus(s CheckpointStatus) bool {
	return validCheckpointStatuses[s]
}

// Checkpoint is one immutable snapshot of task and git state. There is no
// in-place update: progress is always a new checkpoint, so history stays
// reconstructable from the file set alone.
type Checkpoint struct {
	CheckpointName  string           `json:"checkpoint_name"`
	CreatedAt       time.Time        `json:"created_at"`
	TaskID          string           `json:"task_id"`
	TaskTitle       string           `json:"task_title"`
	TaskDescription string           `json:"task_description"`
	Status          CheckpointStatus `json:"status"`
	Notes           string           `json:"notes"`
	GitBranch       string           `json:"git_branch"`
	GitCommit       string           `json:"git_commit"`
	DirtyFileCount  int              `json:"dirty_file_count"`
	StagedFiles     []string         `json:"staged_files"`
	ModifiedFiles   []string         `json:"modified_files"`
}

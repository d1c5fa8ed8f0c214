package gitstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyPorcelain(t *testing.T) {
	var s Snapshot
	s.applyPorcelain("M  staged.go\n M modified.go\nMM both.go\n?? new.go")

	assert.Equal(t, 4, s.DirtyFileCount)
	assert.Equal(t, []string{"staged.go", "both.go"}, s.StagedFiles)
	assert.Equal(t, []string{"modified.go", "both.go", "new.go"}, s.ModifiedFiles)
}

func TestApplyPorcelainSkipsShortLines(t *testing.T) {
	var s Snapshot
	s.applyPorcelain("M  a.go\n\nxx")

	assert.Equal(t, 1, s.DirtyFileCount)
}

func TestCaptureOutsideRepo(t *testing.T) {
	snap := Capture(t.TempDir())

	assert.Empty(t, snap.Branch)
	assert.Empty(t, snap.Commit)
	assert.Zero(t, snap.DirtyFileCount)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ralph/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte(content), 0644))
	return dir
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "sequential", cfg.Rotation.Strategy)
	assert.Equal(t, model.DefaultAgent, cfg.Rotation.PrimaryAgent)
	assert.Equal(t, 3, cfg.Rotation.FailureThreshold)
	assert.Equal(t, 300, cfg.Rotation.CooldownSec)
	assert.Equal(t, 8000, cfg.Context.BudgetTokens)
	assert.Equal(t, 4, cfg.Context.CharsPerToken)
	assert.Equal(t, 400, cfg.Compaction.ThresholdLines)
	assert.Equal(t, 5, cfg.Compaction.MinScore)
	assert.Equal(t, model.DefaultScoreWeights, cfg.Compaction.Weights)
	assert.Equal(t, 7, cfg.Checkpoints.RetentionDays)
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	dir := writeConfig(t, `
rotation:
  strategy: priority
  failure_threshold: 2
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "priority", cfg.Rotation.Strategy)
	assert.Equal(t, 2, cfg.Rotation.FailureThreshold)
	// untouched settings fall back
	assert.Equal(t, 300, cfg.Rotation.CooldownSec)
	assert.Equal(t, "dynamic", cfg.Context.Mode)
}

func TestLoad_UnknownStrategyIsConfigError(t *testing.T) {
	dir := writeConfig(t, `
rotation:
  strategy: roundrobin
`)
	_, err := Load(dir)
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected *model.ConfigError, got %v", err)
	assert.Contains(t, cfgErr.Error(), "rotation.strategy")
}

func TestLoad_EmptyAgentNameIsConfigError(t *testing.T) {
	dir := writeConfig(t, `
rotation:
  agents:
    - name: claude
    - name: ""
`)
	_, err := Load(dir)
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestLoad_DuplicateAgentIsConfigError(t *testing.T) {
	dir := writeConfig(t, `
rotation:
  agents:
    - name: claude
    - name: claude
`)
	_, err := Load(dir)
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Error(), "listed twice")
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	dir := writeConfig(t, "rotation: [not: a: mapping")
	_, err := Load(dir)
	require.Error(t, err)
}

func TestInit_CreatesStructure(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, Init(projectDir, "myproject"))

	base := filepath.Join(projectDir, DirName)
	for _, sub := range []string{"state", "checkpoints", "quarantine", "logs", "docs"} {
		info, err := os.Stat(filepath.Join(base, sub))
		require.NoError(t, err, sub)
		assert.True(t, info.IsDir())
	}

	cfg, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, "myproject", cfg.Project.Name)

	// progress log skeleton carries the patterns preamble
	data, err := os.ReadFile(filepath.Join(base, "progress.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Patterns")
}

func TestInit_RefusesExistingDir(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, Init(projectDir, ""))
	require.Error(t, Init(projectDir, ""))
}
